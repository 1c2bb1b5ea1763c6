package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"mangazek/pkg/models"
)

const upsertLevelSQL = `
	INSERT INTO user_levels (user_id, level, chapter_count)
	VALUES (?, ?, ?)
	ON CONFLICT (user_id) DO UPDATE SET
		level = excluded.level,
		chapter_count = excluded.chapter_count
`

type Repo struct {
	DB *sqlx.DB
}

func NewRepo(db *sqlx.DB) *Repo {
	return &Repo{DB: db}
}

// RecordRead appends a history row and recomputes the user's level from the
// number of rows, all in one transaction. Rereading a chapter counts again.
func (r *Repo) RecordRead(ctx context.Context, userID, mangaID, chapterID string) (lvl models.UserLevel, err error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return lvl, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO reading_history (user_id, manga_id, chapter_id, read_at)
		VALUES (?, ?, ?, ?)
	`), userID, mangaID, chapterID, time.Now().UTC()); err != nil {
		return lvl, fmt.Errorf("insert history: %w", err)
	}

	lvl, err = refreshLevel(ctx, tx, userID)
	if err != nil {
		return lvl, err
	}

	if err = tx.Commit(); err != nil {
		return lvl, fmt.Errorf("commit: %w", err)
	}
	return lvl, nil
}

func refreshLevel(ctx context.Context, tx *sqlx.Tx, userID string) (models.UserLevel, error) {
	var count int
	if err := tx.GetContext(ctx, &count, tx.Rebind(`SELECT COUNT(*) FROM reading_history WHERE user_id = ?`), userID); err != nil {
		return models.UserLevel{}, fmt.Errorf("count history: %w", err)
	}

	lvl := models.UserLevel{UserID: userID, ChapterCount: count, Level: models.LevelFor(count)}
	if _, err := tx.ExecContext(ctx, tx.Rebind(upsertLevelSQL), lvl.UserID, lvl.Level, lvl.ChapterCount); err != nil {
		return models.UserLevel{}, fmt.Errorf("upsert level: %w", err)
	}
	return lvl, nil
}

// Recent returns the latest reads joined with their manga, newest first.
func (r *Repo) Recent(ctx context.Context, userID string, limit int) ([]models.HistoryEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	out := []models.HistoryEntry{}
	err := r.DB.SelectContext(ctx, &out, r.DB.Rebind(`
		SELECT rh.id, rh.user_id, rh.manga_id, rh.chapter_id, rh.read_at,
		       m.title AS manga_title, m.cover_url
		FROM reading_history rh
		JOIN manga m ON m.id = rh.manga_id
		WHERE rh.user_id = ?
		ORDER BY rh.read_at DESC, rh.id DESC
		LIMIT ?
	`), userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return out, nil
}

// Level returns the stored level. Users without a row get one computed from
// their history, which is stored for next time.
func (r *Repo) Level(ctx context.Context, userID string) (models.UserLevel, error) {
	var lvl models.UserLevel
	err := r.DB.GetContext(ctx, &lvl, r.DB.Rebind(`
		SELECT user_id, level, chapter_count FROM user_levels WHERE user_id = ?
	`), userID)
	if err == nil {
		return lvl, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return lvl, fmt.Errorf("get level: %w", err)
	}

	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return lvl, fmt.Errorf("begin tx: %w", err)
	}
	lvl, err = refreshLevel(ctx, tx, userID)
	if err != nil {
		_ = tx.Rollback()
		return lvl, err
	}
	if err := tx.Commit(); err != nil {
		return lvl, fmt.Errorf("commit: %w", err)
	}
	return lvl, nil
}
