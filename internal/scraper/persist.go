package scraper

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"mangazek/pkg/models"
)

const (
	insertMangaSQL = `
		INSERT INTO manga (id, title, cover_url, authors, genres, status, created_at)
		VALUES (:id, :title, :cover_url, :authors, :genres, :status, :created_at)
		ON CONFLICT (id) DO NOTHING
	`
	insertChapterSQL = `
		INSERT INTO chapter (id, manga_id, title, images, number, position)
		VALUES (:id, :manga_id, :title, :images, :number, :position)
		ON CONFLICT (id) DO NOTHING
	`
)

type txBeginner interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// Store writes crawled manga. Existing rows are left untouched.
type Store struct {
	db txBeginner
}

func NewStore(db txBeginner) *Store {
	return &Store{db: db}
}

// SaveManga inserts m and its chapters in one transaction. Every failure is
// wrapped in ErrStoreFatal and leaves nothing behind.
func (s *Store) SaveManga(ctx context.Context, m models.Manga, chapters []models.Chapter) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin tx: %w", ErrStoreFatal, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = InsertManga(ctx, tx, m); err != nil {
		return fmt.Errorf("%w: %w", ErrStoreFatal, err)
	}
	for _, ch := range chapters {
		if err = InsertChapter(ctx, tx, ch); err != nil {
			return fmt.Errorf("%w: %w", ErrStoreFatal, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit tx: %w", ErrStoreFatal, err)
	}
	return nil
}

// InsertManga is insert-or-ignore on manga.id.
func InsertManga(ctx context.Context, ext sqlx.ExtContext, m models.Manga) error {
	if _, err := sqlx.NamedExecContext(ctx, ext, insertMangaSQL, m); err != nil {
		return fmt.Errorf("insert manga %s: %w", m.ID, err)
	}
	return nil
}

// InsertChapter is insert-or-ignore on chapter.id.
func InsertChapter(ctx context.Context, ext sqlx.ExtContext, ch models.Chapter) error {
	if _, err := sqlx.NamedExecContext(ctx, ext, insertChapterSQL, ch); err != nil {
		return fmt.Errorf("insert chapter %s: %w", ch.ID, err)
	}
	return nil
}
