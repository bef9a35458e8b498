package data

import (
	"database/sql"
	"fmt"

	"github.com/go-kratos/kratos/v2/log"
	_ "github.com/lib/pq"

	"github.com/iWorld-y/content_pilot/internal/conf"
)

type Data struct {
	db *sql.DB
}

func NewData(c conf.DBConfig, logger log.Logger) (*Data, func(), error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.Host, c.Port, c.User, c.Password, c.Name)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, nil, err
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to init schema: %w", err)
	}

	cleanup := func() {
		log.NewHelper(logger).Info("closing the data resources")
		db.Close()
	}
	return &Data{db: db}, cleanup, nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS keywords (
			id TEXT PRIMARY KEY,
			keyword TEXT NOT NULL,
			difficulty INT,
			difficulty_level TEXT,
			search_volume INT,
			kcv DOUBLE PRECISION,
			metadata JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_keywords_keyword ON keywords (keyword)`,
		`CREATE TABLE IF NOT EXISTS drafts (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			content TEXT,
			status TEXT NOT NULL,
			primary_keyword_id TEXT REFERENCES keywords (id),
			strategy JSONB,
			outline JSONB,
			seo_score JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS sections (
			id TEXT PRIMARY KEY,
			draft_id TEXT NOT NULL REFERENCES drafts (id) ON DELETE CASCADE,
			heading TEXT NOT NULL,
			content TEXT NOT NULL,
			section_order INT NOT NULL,
			section_type TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_sections_draft_order ON sections (draft_id, section_order)`,
		`CREATE TABLE IF NOT EXISTS jobs (
			id TEXT PRIMARY KEY,
			queue TEXT NOT NULL,
			name TEXT NOT NULL,
			payload JSONB NOT NULL,
			status TEXT NOT NULL DEFAULT 'queued',
			attempts INT NOT NULL DEFAULT 0,
			max_attempts INT NOT NULL DEFAULT 3,
			progress INT NOT NULL DEFAULT 0,
			last_error TEXT,
			run_after TIMESTAMPTZ NOT NULL DEFAULT now(),
			locked_until TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_queue_status ON jobs (queue, status, run_after)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
