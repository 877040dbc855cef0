// Package audit persists per-record liftover provenance to DuckDB so a
// run's flip decisions stay queryable after the output tables are written.
package audit

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"os"
	"path/filepath"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/sumlift/internal/reconcile"
)

// flushBatch is how many buffered entries trigger an appender flush.
const flushBatch = 10000

// Store manages a DuckDB connection holding liftover provenance.
// It implements reconcile.ProvenanceSink.
type Store struct {
	db      *sql.DB
	path    string
	pending []reconcile.Provenance
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create audit directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// ensureSchema creates the provenance table if it doesn't exist.
func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS liftover_provenance (
		identity VARCHAR,
		source_chrom VARCHAR,
		source_pos BIGINT,
		lifted_chrom VARCHAR,
		lifted_pos BIGINT,
		status VARCHAR,
		preswap BOOLEAN,
		allele_swap BOOLEAN,
		strand_flip BOOLEAN,
		effect_flipped BOOLEAN,
		PRIMARY KEY (identity)
	)`)
	return err
}

// Record buffers one provenance entry, flushing in batches.
func (s *Store) Record(p reconcile.Provenance) error {
	s.pending = append(s.pending, p)
	if len(s.pending) >= flushBatch {
		return s.Flush()
	}
	return nil
}

// Flush batch-inserts buffered entries using the DuckDB Appender API.
func (s *Store) Flush() error {
	if len(s.pending) == 0 {
		return nil
	}

	conn, err := s.db.Conn(context.Background())
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "liftover_provenance")
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	for _, p := range s.pending {
		err := appender.AppendRow(
			p.Identity,
			p.SourceChrom,
			p.SourcePos,
			p.LiftedChrom,
			p.LiftedPos,
			string(p.Status),
			p.Swaps.PreSwap,
			p.Swaps.AlleleSwap,
			p.Swaps.StrandFlip,
			p.EffectFlipped,
		)
		if err != nil {
			return fmt.Errorf("append provenance row: %w", err)
		}
	}

	if err := appender.Flush(); err != nil {
		return fmt.Errorf("flush appender: %w", err)
	}

	s.pending = s.pending[:0]
	return nil
}

// Count returns the number of persisted provenance rows.
func (s *Store) Count() (int64, error) {
	var n int64
	err := s.db.QueryRow(`SELECT COUNT(*) FROM liftover_provenance`).Scan(&n)
	return n, err
}

// Close flushes any buffered entries and closes the database.
func (s *Store) Close() error {
	if err := s.Flush(); err != nil {
		s.db.Close()
		return err
	}
	return s.db.Close()
}
