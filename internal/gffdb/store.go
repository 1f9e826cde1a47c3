// Package gffdb stores sequence annotations (GFF3-style features) in SQLite
// and serves them as a locus.FeatureStore. Features are index-addressable:
// a deterministic (start, id) ordering plus LIMIT/OFFSET retrieval is what
// lets feature search paginate with single-integer offset tokens.
package gffdb

import (
	"database/sql"
	"fmt"
	"strings"

	// SQLite driver registration.
	_ "github.com/mattn/go-sqlite3"

	"github.com/locusdb/locus/locus"
)

const schema = `
CREATE TABLE IF NOT EXISTS feature (
	id             TEXT PRIMARY KEY,
	parent_id      TEXT NOT NULL DEFAULT '',
	reference_name TEXT NOT NULL,
	start          INTEGER NOT NULL,
	end            INTEGER NOT NULL,
	type_id        TEXT NOT NULL DEFAULT '',
	type_term      TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_feature_interval ON feature (reference_name, start);
CREATE INDEX IF NOT EXISTS idx_feature_parent ON feature (parent_id);
`

// Store implements locus.FeatureStore over a SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) a feature database at the given path.
// Use ":memory:" for an ephemeral database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("gffdb: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("gffdb: init schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// AddFeatures inserts features with local identifiers. Import tooling and
// test fixtures share this path.
func (s *Store) AddFeatures(features ...*locus.Feature) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT INTO feature
		(id, parent_id, reference_name, start, end, type_id, type_term)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer func() { _ = stmt.Close() }()
	for _, f := range features {
		typeID, typeTerm := "", ""
		if f.FeatureType != nil {
			typeID, typeTerm = f.FeatureType.ID, f.FeatureType.Term
		}
		if _, err := stmt.Exec(f.ID, f.ParentID, f.ReferenceName, f.Start, f.End, typeID, typeTerm); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("gffdb: insert feature %s: %w", f.ID, err)
		}
	}
	return tx.Commit()
}

// featurePredicate builds the WHERE clause shared by count and search. A
// query by parent alone carries no reference name; the interval clauses are
// applied only when one is present.
func featurePredicate(referenceName string, start, end int64, featureTypes []string, parentLocalID string) (string, []any) {
	var clauses []string
	var args []any
	if referenceName != "" {
		clauses = append(clauses, "reference_name = ?", "start < ?", "end > ?")
		args = append(args, referenceName, end, start)
	}
	if parentLocalID != "" {
		clauses = append(clauses, "parent_id = ?")
		args = append(args, parentLocalID)
	}
	if len(featureTypes) > 0 {
		placeholders := strings.Repeat("?, ", len(featureTypes)-1) + "?"
		clauses = append(clauses, "type_term IN ("+placeholders+")")
		for _, t := range featureTypes {
			args = append(args, t)
		}
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// CountFeatures implements locus.FeatureStore.
func (s *Store) CountFeatures(referenceName string, start, end int64, featureTypes []string, parentLocalID string) (int64, error) {
	where, args := featurePredicate(referenceName, start, end, featureTypes, parentLocalID)
	var count int64
	err := s.db.QueryRow("SELECT COUNT(*) FROM feature"+where, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("gffdb: count features: %w", err)
	}
	return count, nil
}

// SearchFeatures implements locus.FeatureStore.
func (s *Store) SearchFeatures(offset, limit int64, referenceName string, start, end int64, featureTypes []string, parentLocalID string) ([]*locus.Feature, error) {
	where, args := featurePredicate(referenceName, start, end, featureTypes, parentLocalID)
	query := `SELECT id, parent_id, reference_name, start, end, type_id, type_term
		FROM feature` + where + ` ORDER BY start, id LIMIT ? OFFSET ?`
	args = append(args, limit, offset)
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("gffdb: search features: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var features []*locus.Feature
	for rows.Next() {
		f, err := scanFeature(rows)
		if err != nil {
			return nil, err
		}
		features = append(features, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("gffdb: search features: %w", err)
	}
	return features, nil
}

// FeatureByLocalID implements locus.FeatureStore.
func (s *Store) FeatureByLocalID(localID string) (*locus.Feature, error) {
	row := s.db.QueryRow(`SELECT id, parent_id, reference_name, start, end, type_id, type_term
		FROM feature WHERE id = ?`, localID)
	f, err := scanFeature(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, &locus.NotFoundError{Kind: "feature", ID: localID}
		}
		return nil, err
	}
	return f, nil
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanFeature(row rowScanner) (*locus.Feature, error) {
	var f locus.Feature
	var typeID, typeTerm string
	if err := row.Scan(&f.ID, &f.ParentID, &f.ReferenceName, &f.Start, &f.End, &typeID, &typeTerm); err != nil {
		return nil, err
	}
	if typeID != "" || typeTerm != "" {
		f.FeatureType = &locus.OntologyTerm{ID: typeID, Term: typeTerm}
	}
	return &f, nil
}
