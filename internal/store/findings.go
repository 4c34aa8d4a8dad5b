package store

import "fmt"

// ReplaceFindings transactionally replaces the stored findings of a file.
func (s *Store) ReplaceFindings(fileID int64, findings []*Finding) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("replace findings: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM findings WHERE file_id = ?", fileID); err != nil {
		return fmt.Errorf("replace findings: delete: %w", err)
	}
	for _, f := range findings {
		f.FileID = fileID
		id, err := lastID(tx.Exec(
			"INSERT INTO findings (file_id, name, kind, line, col, message) VALUES (?, ?, ?, ?, ?, ?)",
			f.FileID, f.Name, f.Kind, f.Line, f.Col, f.Message,
		))
		if err != nil {
			return fmt.Errorf("replace findings: %w", err)
		}
		f.ID = id
	}
	return tx.Commit()
}

const findingQuery = `SELECT f.id, f.file_id, fl.path, f.name, f.kind, f.line, f.col, f.message
	FROM findings f JOIN files fl ON fl.id = f.file_id`

func (s *Store) queryFindings(query string, args ...any) ([]*Finding, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query findings: %w", err)
	}
	defer rows.Close()
	var out []*Finding
	for rows.Next() {
		f := &Finding{}
		if err := rows.Scan(&f.ID, &f.FileID, &f.Path, &f.Name, &f.Kind, &f.Line, &f.Col, &f.Message); err != nil {
			return nil, fmt.Errorf("scan finding: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// FindingsByFile returns a file's findings in report order.
func (s *Store) FindingsByFile(fileID int64) ([]*Finding, error) {
	return s.queryFindings(findingQuery+" WHERE f.file_id = ? ORDER BY f.id", fileID)
}

// AllFindings returns every stored finding grouped by path, each file's
// findings in report order.
func (s *Store) AllFindings() ([]*Finding, error) {
	return s.queryFindings(findingQuery + " ORDER BY fl.path, f.id")
}

// FindingsByName returns the findings for bindings called name.
func (s *Store) FindingsByName(name string) ([]*Finding, error) {
	return s.queryFindings(findingQuery+" WHERE f.name = ? ORDER BY fl.path, f.id", name)
}
