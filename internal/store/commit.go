package store

import (
	"database/sql"
	"fmt"
)

// SaveResult replaces the persisted resolution with types and records files,
// all within a single transaction. Types are stored in slice order; each
// type's Ordinal is set to its position. A missing SignatureHash is computed
// with ComputeTypeHash.
//
// Insert order respects FK dependencies:
//  1. Files (independent)
//  2. MockableTypes
//  3. Methods, Variables, Inherited, Generics, WhereClauses, Directives
//     (depend on type_id)
func (s *Store) SaveResult(files []*File, types []*TypeRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("save result: begin: %w", err)
	}
	defer tx.Rollback()

	if err := clearDescriptors(tx); err != nil {
		return fmt.Errorf("save result: %w", err)
	}

	for _, f := range files {
		if _, err := upsertFile(tx, f); err != nil {
			return fmt.Errorf("save result: file %q: %w", f.Path, err)
		}
	}

	for i, rec := range types {
		rec.Type.Ordinal = i
		if rec.Type.SignatureHash == "" {
			rec.Type.SignatureHash = ComputeTypeHash(rec)
		}
		if err := insertTypeRecordTx(tx, rec); err != nil {
			return fmt.Errorf("save result: type %q: %w", rec.Type.FullyQualifiedName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save result: commit: %w", err)
	}
	return nil
}

func insertTypeRecordTx(tx *sql.Tx, rec *TypeRecord) error {
	t := &rec.Type
	res, err := tx.Exec(
		`INSERT INTO mockable_types (ordinal, name, module, fqn, kind, identity, should_mock,
			attributes, is_contained, subclasses_external, has_opaque_inherited, signature_hash)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Ordinal, t.Name, t.Module, t.FullyQualifiedName, t.Kind, t.Identity, t.ShouldMock,
		marshalStrings(t.Attributes), t.IsContainedType, t.SubclassesExternalType,
		t.HasOpaqueInheritedType, t.SignatureHash,
	)
	if err != nil {
		return fmt.Errorf("insert type: %w", err)
	}
	if t.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}

	for i := range rec.Methods {
		m := &rec.Methods[i]
		m.TypeID = t.ID
		res, err := tx.Exec(
			`INSERT INTO type_methods (type_id, name, short_name, kind, signature, return_type, attributes, overloads)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			m.TypeID, m.Name, m.ShortName, m.Kind, m.Signature, m.ReturnType,
			marshalStrings(m.Attributes), m.Overloads,
		)
		if err != nil {
			return fmt.Errorf("insert method %q: %w", m.Name, err)
		}
		m.ID, _ = res.LastInsertId()
	}

	for i := range rec.Variables {
		v := &rec.Variables[i]
		v.TypeID = t.ID
		res, err := tx.Exec(
			`INSERT INTO type_variables (type_id, name, kind, type_name, settable, signature)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			v.TypeID, v.Name, v.Kind, v.TypeName, v.Settable, v.Signature,
		)
		if err != nil {
			return fmt.Errorf("insert variable %q: %w", v.Name, err)
		}
		v.ID, _ = res.LastInsertId()
	}

	for i := range rec.Inherited {
		it := &rec.Inherited[i]
		it.TypeID = t.ID
		if it.Relation == "" {
			it.Relation = RelationInherits
		}
		res, err := tx.Exec(
			"INSERT INTO type_inheritance (type_id, inherited_fqn, relation) VALUES (?, ?, ?)",
			it.TypeID, it.FullyQualifiedName, it.Relation,
		)
		if err != nil {
			return fmt.Errorf("insert inherited %q: %w", it.FullyQualifiedName, err)
		}
		it.ID, _ = res.LastInsertId()
	}

	for i := range rec.Generics {
		g := &rec.Generics[i]
		g.TypeID = t.ID
		g.Ordinal = i
		res, err := tx.Exec(
			"INSERT INTO type_generics (type_id, name, ordinal, constraints) VALUES (?, ?, ?, ?)",
			g.TypeID, g.Name, g.Ordinal, marshalStrings(g.Constraints),
		)
		if err != nil {
			return fmt.Errorf("insert generic %q: %w", g.Name, err)
		}
		g.ID, _ = res.LastInsertId()
	}

	for i := range rec.WhereClauses {
		w := &rec.WhereClauses[i]
		w.TypeID = t.ID
		w.Ordinal = i
		res, err := tx.Exec(
			"INSERT INTO type_where_clauses (type_id, ordinal, clause) VALUES (?, ?, ?)",
			w.TypeID, w.Ordinal, w.Clause,
		)
		if err != nil {
			return fmt.Errorf("insert where clause %q: %w", w.Clause, err)
		}
		w.ID, _ = res.LastInsertId()
	}

	for i := range rec.Directives {
		d := &rec.Directives[i]
		d.TypeID = t.ID
		d.Ordinal = i
		res, err := tx.Exec(
			"INSERT INTO type_directives (type_id, ordinal, condition) VALUES (?, ?, ?)",
			d.TypeID, d.Ordinal, d.Condition,
		)
		if err != nil {
			return fmt.Errorf("insert directive %q: %w", d.Condition, err)
		}
		d.ID, _ = res.LastInsertId()
	}
	return nil
}
