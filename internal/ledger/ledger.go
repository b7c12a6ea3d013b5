package ledger

import (
	"context"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"github.com/prguard/prguard/internal/errors"
	"github.com/prguard/prguard/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS decisions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	pr_number INTEGER NOT NULL,
	title TEXT NOT NULL,
	merged_at TIMESTAMP NOT NULL,
	author TEXT NOT NULL,
	decision_type TEXT NOT NULL,
	entity TEXT NOT NULL,
	file_path TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_decisions_merged_at ON decisions(merged_at DESC);
`

// Ledger is the SQLite-backed store of decisions extracted from merged
// PRs. It persists across CI runs so regression checking has history
// to compare against.
type Ledger struct {
	db     *sqlx.DB
	depth  int
	logger *logrus.Logger
}

// Open opens (or creates) the decisions database. depth bounds how
// many recent decisions regression checks look back over.
func Open(path string, depth int, logger *logrus.Logger) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.LedgerError(err, "failed to create ledger directory")
	}
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, errors.LedgerError(err, "failed to open decisions database")
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.LedgerError(err, "failed to create decisions schema")
	}
	return &Ledger{db: db, depth: depth, logger: logger}, nil
}

// RecordMerge stores the decisions from a newly merged PR.
func (l *Ledger) RecordMerge(ctx context.Context, entry models.DecisionsEntry) error {
	tx, err := l.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.LedgerError(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	for _, d := range entry.Decisions {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO decisions
			 (pr_number, title, merged_at, author, decision_type, entity, file_path, description)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			entry.PRNumber, entry.Title, entry.MergedAt, entry.Author,
			d.Type, d.Entity, d.FilePath, d.Description)
		if err != nil {
			return errors.LedgerErrorf(err, "failed to record decision for PR #%d", entry.PRNumber)
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.LedgerError(err, "failed to commit decisions")
	}

	l.logger.WithFields(logrus.Fields{
		"pr":        entry.PRNumber,
		"decisions": len(entry.Decisions),
	}).Debug("recorded merge decisions")
	return nil
}

// RecentDecisions returns the most recent decisions, newest first.
func (l *Ledger) RecentDecisions(ctx context.Context, limit int) ([]models.Decision, error) {
	if limit <= 0 {
		limit = l.depth
	}
	var decisions []models.Decision
	err := l.db.SelectContext(ctx, &decisions,
		`SELECT pr_number, merged_at, author, decision_type, entity, file_path, description
		 FROM decisions
		 ORDER BY merged_at DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, errors.LedgerError(err, "failed to load recent decisions")
	}
	return decisions, nil
}

// FindRegressions returns recent removal decisions whose entity
// reappears in entityNames, and migration decisions whose file path
// reappears in filePaths.
func (l *Ledger) FindRegressions(ctx context.Context, entityNames, filePaths []string) ([]models.Decision, error) {
	recent, err := l.RecentDecisions(ctx, l.depth)
	if err != nil {
		return nil, err
	}

	names := make(map[string]bool, len(entityNames))
	for _, n := range entityNames {
		names[n] = true
	}
	paths := make(map[string]bool, len(filePaths))
	for _, p := range filePaths {
		paths[p] = true
	}

	var regressions []models.Decision
	for _, d := range recent {
		switch d.Type {
		case models.DecisionRemoval:
			if names[d.Entity] {
				regressions = append(regressions, d)
			}
		case models.DecisionMigration:
			if d.FilePath != "" && paths[d.FilePath] {
				regressions = append(regressions, d)
			}
		}
	}
	return regressions, nil
}

// Close closes the database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}
