package export

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/X-Olivia/bilibili-content-analyzer/analysis"
)

// PostgresWriter persists scored videos to PostgreSQL for downstream querying.
// It is optional; the exporter is only constructed when a DSN is configured.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection, runs schema migrations, and returns a
// ready-to-use writer.
func NewPostgresWriter(dsn string) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(`
		CREATE TABLE IF NOT EXISTS scored_videos (
			run_id           TEXT        NOT NULL,
			bvid             TEXT        NOT NULL,
			title            TEXT        NOT NULL DEFAULT '',
			author           TEXT        NOT NULL DEFAULT '',
			mid              BIGINT      NOT NULL DEFAULT 0,
			pubdate          TIMESTAMPTZ,
			duration_seconds INTEGER     NOT NULL DEFAULT 0,
			view_count       BIGINT      NOT NULL DEFAULT 0,
			like_count       BIGINT      NOT NULL DEFAULT 0,
			coin_count       BIGINT      NOT NULL DEFAULT 0,
			favorite_count   BIGINT      NOT NULL DEFAULT 0,
			share_count      BIGINT      NOT NULL DEFAULT 0,
			reply_count      BIGINT      NOT NULL DEFAULT 0,
			keywords         TEXT        NOT NULL DEFAULT '',
			sentiment        VARCHAR(10) NOT NULL,
			sentiment_score  DOUBLE PRECISION NOT NULL DEFAULT 0,
			engagement_rate  DOUBLE PRECISION NOT NULL DEFAULT 0,
			low_signal       BOOLEAN     NOT NULL DEFAULT FALSE,
			created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (run_id, bvid)
		);

		CREATE INDEX IF NOT EXISTS idx_scored_videos_mid       ON scored_videos(mid);
		CREATE INDEX IF NOT EXISTS idx_scored_videos_sentiment ON scored_videos(sentiment);
		CREATE INDEX IF NOT EXISTS idx_scored_videos_pubdate   ON scored_videos(pubdate);
	`)
	return err
}

// Write inserts every scored video under the report's run id. Existing rows
// for the same (run_id, bvid) are replaced.
func (pw *PostgresWriter) Write(report *analysis.Report) error {
	tx, err := pw.db.Begin()
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO scored_videos (
			run_id, bvid, title, author, mid, pubdate, duration_seconds,
			view_count, like_count, coin_count, favorite_count, share_count,
			reply_count, keywords, sentiment, sentiment_score, engagement_rate, low_signal
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (run_id, bvid) DO UPDATE SET
			title = EXCLUDED.title,
			view_count = EXCLUDED.view_count,
			sentiment = EXCLUDED.sentiment,
			sentiment_score = EXCLUDED.sentiment_score,
			engagement_rate = EXCLUDED.engagement_rate`)
	if err != nil {
		return fmt.Errorf("postgres: prepare: %w", err)
	}
	defer stmt.Close()

	for _, v := range report.Videos {
		var pubdate *time.Time
		if !v.Pubdate.IsZero() && v.Pubdate.Unix() > 0 {
			t := v.Pubdate.UTC()
			pubdate = &t
		}
		_, err := stmt.Exec(
			report.RunID, v.BVID, v.Title, v.Author, v.MID, pubdate, v.DurationSeconds,
			v.Stats.View, v.Stats.Like, v.Stats.Coin, v.Stats.Favorite, v.Stats.Share,
			v.Stats.Reply, strings.Join(v.Keywords, ";"), string(v.Sentiment),
			v.SentimentScore, v.EngagementRate, v.LowSignal,
		)
		if err != nil {
			return fmt.Errorf("postgres: insert %s: %w", v.BVID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}
