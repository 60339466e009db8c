package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/iWorld-y/startup_radar/pkg/config"
	dm "github.com/iWorld-y/startup_radar/pkg/model"
)

// Storage 合并数据集的 Postgres 落库层，配置为空时整体跳过
type Storage struct {
	db *sql.DB
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS startups (
	name              TEXT PRIMARY KEY,
	description       TEXT NOT NULL DEFAULT '',
	source            TEXT NOT NULL DEFAULT '',
	github_url        TEXT NOT NULL DEFAULT '',
	website           TEXT NOT NULL DEFAULT '',
	github_stars      BIGINT NOT NULL DEFAULT 0,
	github_forks      BIGINT NOT NULL DEFAULT 0,
	star_velocity     DOUBLE PRECISION NOT NULL DEFAULT 0,
	momentum_score    DOUBLE PRECISION NOT NULL DEFAULT 0,
	language          TEXT NOT NULL DEFAULT '',
	topics            TEXT NOT NULL DEFAULT '',
	founded_year      INT NOT NULL DEFAULT 0,
	funding_total     DOUBLE PRECISION NOT NULL DEFAULT 0,
	location          TEXT NOT NULL DEFAULT '',
	ph_upvotes        BIGINT NOT NULL DEFAULT 0,
	ph_comments       BIGINT NOT NULL DEFAULT 0,
	launch_date       TEXT NOT NULL DEFAULT '',
	combined_momentum DOUBLE PRECISION NOT NULL DEFAULT 0,
	category          TEXT NOT NULL DEFAULT '',
	subcategory       TEXT NOT NULL DEFAULT '',
	themes            TEXT NOT NULL DEFAULT '',
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// NewStorage 建立数据库连接并确保表结构存在
func NewStorage(cfg config.DBConfig) (*Storage, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.Exec(schemaDDL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Storage{db: db}, nil
}

// Close 关闭数据库连接
func (s *Storage) Close() error {
	return s.db.Close()
}

const upsertSQL = `
INSERT INTO startups (
	name, description, source, github_url, website,
	github_stars, github_forks, star_velocity, momentum_score,
	language, topics, founded_year, funding_total, location,
	ph_upvotes, ph_comments, launch_date, combined_momentum,
	category, subcategory, themes, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,now())
ON CONFLICT (name) DO UPDATE SET
	description = EXCLUDED.description,
	source = EXCLUDED.source,
	github_url = EXCLUDED.github_url,
	website = EXCLUDED.website,
	github_stars = EXCLUDED.github_stars,
	github_forks = EXCLUDED.github_forks,
	star_velocity = EXCLUDED.star_velocity,
	momentum_score = EXCLUDED.momentum_score,
	language = EXCLUDED.language,
	topics = EXCLUDED.topics,
	founded_year = EXCLUDED.founded_year,
	funding_total = EXCLUDED.funding_total,
	location = EXCLUDED.location,
	ph_upvotes = EXCLUDED.ph_upvotes,
	ph_comments = EXCLUDED.ph_comments,
	launch_date = EXCLUDED.launch_date,
	combined_momentum = EXCLUDED.combined_momentum,
	category = EXCLUDED.category,
	subcategory = EXCLUDED.subcategory,
	themes = EXCLUDED.themes,
	updated_at = now()`

// SaveStartups 把带标签的合并表按名称 upsert 到数据库
func (s *Storage) SaveStartups(ctx context.Context, records []dm.StartupRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, upsertSQL)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx,
			r.Name, r.Description, string(r.Source), r.GitHubURL, r.Website,
			r.GitHubStars, r.GitHubForks, r.StarVelocity, r.MomentumScore,
			r.Language, r.Topics, r.FoundedYear, r.FundingTotal, r.Location,
			r.PHUpvotes, r.PHComments, r.LaunchDate, r.CombinedMomentum,
			r.Category, r.Subcategory, r.Themes,
		); err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				err = fmt.Errorf("%w: %v", err, rerr)
			}
			return fmt.Errorf("upsert %s: %w", r.Name, err)
		}
	}
	return tx.Commit()
}
