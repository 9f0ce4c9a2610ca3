package tags

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lthms/taxdiff/internal/idset"
)

// sqlStore implements Store on a genomes/genome_tags schema. Queries are
// written with '?' placeholders and rebound for the driver.
type sqlStore struct {
	db       *sql.DB
	name     string
	dollarPH bool
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS genomes (
		genome_id TEXT PRIMARY KEY
	)`,
	`CREATE TABLE IF NOT EXISTS genome_tags (
		genome_id TEXT NOT NULL REFERENCES genomes(genome_id) ON DELETE CASCADE,
		tag       TEXT NOT NULL,
		PRIMARY KEY (genome_id, tag)
	)`,
}

func migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create tag tables: %w", err)
		}
	}
	return nil
}

func (s *sqlStore) q(query string) string {
	if !s.dollarPH {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *sqlStore) Tags(ctx context.Context, genomeID string) (idset.Set[string], error) {
	rows, err := s.db.QueryContext(ctx, s.q(`SELECT tag FROM genome_tags WHERE genome_id = ?`), genomeID)
	if err != nil {
		return nil, fmt.Errorf("%s: query tags: %w", s.name, err)
	}
	defer rows.Close()

	set := idset.New[string](0)
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, err
		}
		set.Add(tag)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return set, nil
}

func (s *sqlStore) Put(ctx context.Context, genomeID string, set idset.Set[string]) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin: %w", s.name, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, s.q(`INSERT INTO genomes (genome_id) VALUES (?) ON CONFLICT DO NOTHING`), genomeID); err != nil {
		return fmt.Errorf("%s: insert genome %s: %w", s.name, genomeID, err)
	}
	if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM genome_tags WHERE genome_id = ?`), genomeID); err != nil {
		return fmt.Errorf("%s: reset tags of %s: %w", s.name, genomeID, err)
	}
	stmt, err := tx.PrepareContext(ctx, s.q(`INSERT INTO genome_tags (genome_id, tag) VALUES (?, ?)`))
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, tag := range set.Sorted() {
		if _, err := stmt.ExecContext(ctx, genomeID, tag); err != nil {
			return fmt.Errorf("%s: insert tag %q for %s: %w", s.name, tag, genomeID, err)
		}
	}
	return tx.Commit()
}

func (s *sqlStore) Has(ctx context.Context, genomeID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, s.q(`SELECT 1 FROM genomes WHERE genome_id = ?`), genomeID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *sqlStore) Len(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM genomes`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *sqlStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM genome_tags`); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM genomes`)
	return err
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}
