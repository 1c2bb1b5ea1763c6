package favorites

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"mangazek/pkg/models"
)

var ErrMangaNotFound = errors.New("manga not found")

type Repo struct {
	DB *sqlx.DB
}

func NewRepo(db *sqlx.DB) *Repo {
	return &Repo{DB: db}
}

// Add favorites mangaID for userID. added is false when it was already a
// favorite.
func (r *Repo) Add(ctx context.Context, userID, mangaID string) (added bool, err error) {
	var n int
	if err := r.DB.GetContext(ctx, &n, r.DB.Rebind(`SELECT COUNT(*) FROM manga WHERE id = ?`), mangaID); err != nil {
		return false, fmt.Errorf("lookup manga: %w", err)
	}
	if n == 0 {
		return false, ErrMangaNotFound
	}

	res, err := r.DB.ExecContext(ctx, r.DB.Rebind(`
		INSERT INTO favorites (user_id, manga_id, added_at)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id, manga_id) DO NOTHING
	`), userID, mangaID, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("insert favorite: %w", err)
	}
	rows, _ := res.RowsAffected()
	return rows > 0, nil
}

func (r *Repo) Remove(ctx context.Context, userID, mangaID string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, r.DB.Rebind(`
		DELETE FROM favorites
		WHERE user_id = ? AND manga_id = ?
	`), userID, mangaID)
	if err != nil {
		return false, fmt.Errorf("delete favorite: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// List returns the user's favorites, newest first.
func (r *Repo) List(ctx context.Context, userID string) ([]models.FavoriteManga, error) {
	out := []models.FavoriteManga{}
	err := r.DB.SelectContext(ctx, &out, r.DB.Rebind(`
		SELECT f.manga_id, m.title, m.cover_url, f.added_at
		FROM favorites f
		JOIN manga m ON m.id = f.manga_id
		WHERE f.user_id = ?
		ORDER BY f.added_at DESC, f.manga_id ASC
	`), userID)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	return out, nil
}

func (r *Repo) IsFavorite(ctx context.Context, userID, mangaID string) (bool, error) {
	var n int
	err := r.DB.GetContext(ctx, &n, r.DB.Rebind(`
		SELECT COUNT(*) FROM favorites
		WHERE user_id = ? AND manga_id = ?
	`), userID, mangaID)
	if err != nil {
		return false, fmt.Errorf("check favorite: %w", err)
	}
	return n > 0, nil
}
