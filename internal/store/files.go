package store

import (
	"database/sql"
	"fmt"
)

// --- File operations ---

// UpsertFile records a file, replacing any row with the same path.
func (s *Store) UpsertFile(f *File) (int64, error) {
	return upsertFile(s.db, f)
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
	QueryRow(query string, args ...any) *sql.Row
}

func upsertFile(db execer, f *File) (int64, error) {
	_, err := db.Exec(
		`INSERT INTO files (path, module, hash, should_mock, declarations, last_indexed)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET
		   module = excluded.module, hash = excluded.hash, should_mock = excluded.should_mock,
		   declarations = excluded.declarations, last_indexed = excluded.last_indexed`,
		f.Path, f.Module, f.Hash, f.ShouldMock, f.Declarations, f.LastIndexed,
	)
	if err != nil {
		return 0, fmt.Errorf("upsert file: %w", err)
	}
	if err := db.QueryRow("SELECT id FROM files WHERE path = ?", f.Path).Scan(&f.ID); err != nil {
		return 0, fmt.Errorf("upsert file id: %w", err)
	}
	return f.ID, nil
}

const fileCols = "id, path, module, hash, should_mock, declarations, last_indexed"

func scanFile(sc rowScanner) (*File, error) {
	f := &File{}
	if err := sc.Scan(&f.ID, &f.Path, &f.Module, &f.Hash, &f.ShouldMock, &f.Declarations, &f.LastIndexed); err != nil {
		return nil, err
	}
	return f, nil
}

// FileByPath returns the file recorded at path, or nil if none.
func (s *Store) FileByPath(path string) (*File, error) {
	f, err := scanFile(s.db.QueryRow("SELECT "+fileCols+" FROM files WHERE path = ?", path))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("file by path: %w", err)
	}
	return f, nil
}

// Files returns every recorded file ordered by path.
func (s *Store) Files() ([]*File, error) {
	return s.queryFiles("SELECT " + fileCols + " FROM files ORDER BY path")
}

// FilesByModule returns the files recorded for module ordered by path.
func (s *Store) FilesByModule(module string) ([]*File, error) {
	return s.queryFiles("SELECT "+fileCols+" FROM files WHERE module = ? ORDER BY path", module)
}

func (s *Store) queryFiles(query string, args ...any) ([]*File, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query files: %w", err)
	}
	defer rows.Close()
	var files []*File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// --- Metadata ---

// SetMetadata stores a key/value pair, replacing any previous value.
func (s *Store) SetMetadata(key, value string) error {
	_, err := s.db.Exec(
		"INSERT INTO metadata (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set metadata %q: %w", key, err)
	}
	return nil
}

// GetMetadata returns the value stored under key. ok is false when the key
// is absent.
func (s *Store) GetMetadata(key string) (value string, ok bool, err error) {
	err = s.db.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get metadata %q: %w", key, err)
	}
	return value, true, nil
}
