package store

import (
	"database/sql"
	"fmt"
)

// --- File operations ---

func (s *Store) InsertFile(f *File) (int64, error) {
	id, err := lastID(s.db.Exec(
		"INSERT INTO files (path, language, hash, last_indexed) VALUES (?, ?, ?, ?)",
		f.Path, f.Language, f.Hash, f.LastIndexed,
	))
	if err != nil {
		return 0, err
	}
	f.ID = id
	return id, nil
}

const fileCols = `id, path, language, hash, last_indexed`

func scanFile(scanner interface{ Scan(...any) error }) (*File, error) {
	f := &File{}
	return f, scanner.Scan(&f.ID, &f.Path, &f.Language, &f.Hash, &f.LastIndexed)
}

// FileByPath returns the file stored under path, or nil if there is none.
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

// Files returns every stored file ordered by path.
func (s *Store) Files() ([]*File, error) {
	rows, err := s.db.Query("SELECT " + fileCols + " FROM files ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("files: %w", err)
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
