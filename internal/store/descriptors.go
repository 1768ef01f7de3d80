package store

import (
	"database/sql"
	"fmt"
)

// --- Descriptor queries ---

const typeCols = `id, ordinal, name, module, fqn, kind, identity, should_mock, attributes,
	is_contained, subclasses_external, has_opaque_inherited, signature_hash`

func scanType(sc rowScanner) (*MockableType, error) {
	t := &MockableType{}
	var attrs string
	err := sc.Scan(
		&t.ID, &t.Ordinal, &t.Name, &t.Module, &t.FullyQualifiedName, &t.Kind, &t.Identity,
		&t.ShouldMock, &attrs, &t.IsContainedType, &t.SubclassesExternalType,
		&t.HasOpaqueInheritedType, &t.SignatureHash,
	)
	if err != nil {
		return nil, err
	}
	t.Attributes = unmarshalStrings(attrs)
	return t, nil
}

func (s *Store) queryTypes(query string, args ...any) ([]*MockableType, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var types []*MockableType
	for rows.Next() {
		t, err := scanType(rows)
		if err != nil {
			return nil, fmt.Errorf("scan type: %w", err)
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

// Types returns every persisted descriptor in output order.
func (s *Store) Types() ([]*MockableType, error) {
	types, err := s.queryTypes("SELECT " + typeCols + " FROM mockable_types ORDER BY ordinal")
	if err != nil {
		return nil, fmt.Errorf("types: %w", err)
	}
	return types, nil
}

// TypesByModule returns the persisted descriptors declared in module.
func (s *Store) TypesByModule(module string) ([]*MockableType, error) {
	types, err := s.queryTypes("SELECT "+typeCols+" FROM mockable_types WHERE module = ? ORDER BY ordinal", module)
	if err != nil {
		return nil, fmt.Errorf("types by module: %w", err)
	}
	return types, nil
}

// TypeByName returns the descriptors whose fully-qualified name or plain
// name equals name. A fully-qualified match is returned alone.
func (s *Store) TypeByName(name string) ([]*MockableType, error) {
	t, err := scanType(s.db.QueryRow("SELECT "+typeCols+" FROM mockable_types WHERE fqn = ?", name))
	switch {
	case err == nil:
		return []*MockableType{t}, nil
	case err != sql.ErrNoRows:
		return nil, fmt.Errorf("type by name: %w", err)
	}
	types, err := s.queryTypes("SELECT "+typeCols+" FROM mockable_types WHERE name = ? ORDER BY ordinal", name)
	if err != nil {
		return nil, fmt.Errorf("type by name: %w", err)
	}
	return types, nil
}

// MethodsOf returns the methods of a descriptor ordered by signature.
func (s *Store) MethodsOf(typeID int64) ([]*Method, error) {
	rows, err := s.db.Query(
		`SELECT id, type_id, name, short_name, kind, signature, return_type, attributes, overloads
		 FROM type_methods WHERE type_id = ? ORDER BY signature`, typeID,
	)
	if err != nil {
		return nil, fmt.Errorf("methods of: %w", err)
	}
	defer rows.Close()
	var methods []*Method
	for rows.Next() {
		m := &Method{}
		var attrs string
		if err := rows.Scan(&m.ID, &m.TypeID, &m.Name, &m.ShortName, &m.Kind, &m.Signature,
			&m.ReturnType, &attrs, &m.Overloads); err != nil {
			return nil, fmt.Errorf("scan method: %w", err)
		}
		m.Attributes = unmarshalStrings(attrs)
		methods = append(methods, m)
	}
	return methods, rows.Err()
}

// VariablesOf returns the variables of a descriptor ordered by signature.
func (s *Store) VariablesOf(typeID int64) ([]*Variable, error) {
	rows, err := s.db.Query(
		`SELECT id, type_id, name, kind, type_name, settable, signature
		 FROM type_variables WHERE type_id = ? ORDER BY signature`, typeID,
	)
	if err != nil {
		return nil, fmt.Errorf("variables of: %w", err)
	}
	defer rows.Close()
	var vars []*Variable
	for rows.Next() {
		v := &Variable{}
		if err := rows.Scan(&v.ID, &v.TypeID, &v.Name, &v.Kind, &v.TypeName, &v.Settable, &v.Signature); err != nil {
			return nil, fmt.Errorf("scan variable: %w", err)
		}
		vars = append(vars, v)
	}
	return vars, rows.Err()
}

// InheritedOf returns the inheritance edges of a descriptor: inherited types
// first, then self-conformance types, each ordered by name.
func (s *Store) InheritedOf(typeID int64) ([]*InheritedType, error) {
	rows, err := s.db.Query(
		`SELECT id, type_id, inherited_fqn, relation FROM type_inheritance
		 WHERE type_id = ? ORDER BY relation = ?, inherited_fqn`, typeID, RelationSelfConformance,
	)
	if err != nil {
		return nil, fmt.Errorf("inherited of: %w", err)
	}
	defer rows.Close()
	var out []*InheritedType
	for rows.Next() {
		it := &InheritedType{}
		if err := rows.Scan(&it.ID, &it.TypeID, &it.FullyQualifiedName, &it.Relation); err != nil {
			return nil, fmt.Errorf("scan inherited: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// InheritorsOf returns the descriptors that inherit from fqn, in output
// order.
func (s *Store) InheritorsOf(fqn string) ([]*MockableType, error) {
	types, err := s.queryTypes(
		`SELECT t.id, t.ordinal, t.name, t.module, t.fqn, t.kind, t.identity, t.should_mock,
			t.attributes, t.is_contained, t.subclasses_external, t.has_opaque_inherited, t.signature_hash
		 FROM mockable_types t
		 JOIN type_inheritance i ON i.type_id = t.id
		 WHERE i.inherited_fqn = ? AND i.relation = ?
		 ORDER BY t.ordinal`, fqn, RelationInherits,
	)
	if err != nil {
		return nil, fmt.Errorf("inheritors of: %w", err)
	}
	return types, nil
}

// GenericsOf returns the generic descriptors of a type in declaration order.
func (s *Store) GenericsOf(typeID int64) ([]*GenericType, error) {
	rows, err := s.db.Query(
		"SELECT id, type_id, name, ordinal, constraints FROM type_generics WHERE type_id = ? ORDER BY ordinal", typeID,
	)
	if err != nil {
		return nil, fmt.Errorf("generics of: %w", err)
	}
	defer rows.Close()
	var out []*GenericType
	for rows.Next() {
		g := &GenericType{}
		var constraints string
		if err := rows.Scan(&g.ID, &g.TypeID, &g.Name, &g.Ordinal, &constraints); err != nil {
			return nil, fmt.Errorf("scan generic: %w", err)
		}
		g.Constraints = unmarshalStrings(constraints)
		out = append(out, g)
	}
	return out, rows.Err()
}

// WhereClausesOf returns the where-clauses of a type in declaration order.
func (s *Store) WhereClausesOf(typeID int64) ([]*WhereClause, error) {
	rows, err := s.db.Query(
		"SELECT id, type_id, ordinal, clause FROM type_where_clauses WHERE type_id = ? ORDER BY ordinal", typeID,
	)
	if err != nil {
		return nil, fmt.Errorf("where clauses of: %w", err)
	}
	defer rows.Close()
	var out []*WhereClause
	for rows.Next() {
		w := &WhereClause{}
		if err := rows.Scan(&w.ID, &w.TypeID, &w.Ordinal, &w.Clause); err != nil {
			return nil, fmt.Errorf("scan where clause: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// DirectivesOf returns the compilation directives wrapping a type's
// declaration, outermost first.
func (s *Store) DirectivesOf(typeID int64) ([]*Directive, error) {
	rows, err := s.db.Query(
		"SELECT id, type_id, ordinal, condition FROM type_directives WHERE type_id = ? ORDER BY ordinal", typeID,
	)
	if err != nil {
		return nil, fmt.Errorf("directives of: %w", err)
	}
	defer rows.Close()
	var out []*Directive
	for rows.Next() {
		d := &Directive{}
		if err := rows.Scan(&d.ID, &d.TypeID, &d.Ordinal, &d.Condition); err != nil {
			return nil, fmt.Errorf("scan directive: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
