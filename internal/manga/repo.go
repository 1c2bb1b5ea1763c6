package manga

import (
	"context"
	"fmt"
	"strings"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/georgysavva/scany/v2/sqlscan"
	"github.com/jmoiron/sqlx"

	"mangazek/pkg/database"
	"mangazek/pkg/models"
)

const DefaultPerPage = 12

// Repo is the read side of the catalog the crawler fills.
type Repo struct {
	db *sqlx.DB
	g  goqu.DialectWrapper
}

func NewRepo(db *sqlx.DB) *Repo {
	return &Repo{db: db, g: goqu.Dialect(database.GoquDialect(db.DriverName()))}
}

// ListQuery selects a page of manga. Search matches titles, Genre and Author
// match a substring of the stored comma-joined columns.
type ListQuery struct {
	Search  string
	Genre   string
	Author  string
	Page    int
	PerPage int
}

type Page struct {
	Items      []models.Manga `json:"items"`
	Page       int            `json:"page"`
	PerPage    int            `json:"per_page"`
	Total      int            `json:"total"`
	TotalPages int            `json:"total_pages"`
}

func (q ListQuery) normalized() ListQuery {
	if q.PerPage <= 0 {
		q.PerPage = DefaultPerPage
	}
	if q.Page < 1 {
		q.Page = 1
	}
	return q
}

func (q ListQuery) where() []exp.Expression {
	var where []exp.Expression
	if s := strings.TrimSpace(q.Search); s != "" {
		where = append(where, containsFold("title", s))
	}
	if s := strings.TrimSpace(q.Genre); s != "" {
		where = append(where, containsFold("genres", s))
	}
	if s := strings.TrimSpace(q.Author); s != "" {
		where = append(where, containsFold("authors", s))
	}
	return where
}

func containsFold(col, s string) exp.Expression {
	s = strings.ReplaceAll(strings.ReplaceAll(strings.ReplaceAll(strings.ToLower(s),
		"\\", "\\\\"),
		"_", "\\_"),
		"%", "\\%")
	return goqu.L("LOWER(?) LIKE ? ESCAPE '\\'", goqu.C(col), "%"+s+"%")
}

// List returns one page of manga ordered by title.
func (r *Repo) List(ctx context.Context, q ListQuery) (Page, error) {
	q = q.normalized()
	where := q.where()

	countSQL, countArgs, err := r.g.From("manga").
		Select(goqu.COUNT(goqu.Star())).
		Where(where...).
		Prepared(true).
		ToSQL()
	if err != nil {
		return Page{}, fmt.Errorf("build count: %w", err)
	}

	var total int
	if err := sqlscan.Get(ctx, r.db, &total, countSQL, countArgs...); err != nil {
		return Page{}, fmt.Errorf("count manga: %w", err)
	}

	out := Page{
		Items:      []models.Manga{},
		Page:       q.Page,
		PerPage:    q.PerPage,
		Total:      total,
		TotalPages: (total + q.PerPage - 1) / q.PerPage,
	}
	if total == 0 {
		return out, nil
	}

	listSQL, listArgs, err := r.g.From("manga").
		Select("id", "title", "cover_url", "authors", "genres", "status", "created_at").
		Where(where...).
		Order(goqu.C("title").Asc(), goqu.C("id").Asc()).
		Limit(uint(q.PerPage)).
		Offset(uint((q.Page - 1) * q.PerPage)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return Page{}, fmt.Errorf("build list: %w", err)
	}

	if err := sqlscan.Select(ctx, r.db, &out.Items, listSQL, listArgs...); err != nil {
		return Page{}, fmt.Errorf("list manga: %w", err)
	}
	return out, nil
}

// GetByID returns nil when the manga does not exist.
func (r *Repo) GetByID(ctx context.Context, id string) (*models.Manga, error) {
	query, args, err := r.g.From("manga").
		Select("id", "title", "cover_url", "authors", "genres", "status", "created_at").
		Where(goqu.C("id").Eq(id)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build get manga: %w", err)
	}

	var m models.Manga
	if err := sqlscan.Get(ctx, r.db, &m, query, args...); err != nil {
		if sqlscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get manga %s: %w", id, err)
	}
	return &m, nil
}

// Chapters returns the chapters of a manga in crawl order.
func (r *Repo) Chapters(ctx context.Context, mangaID string) ([]models.Chapter, error) {
	query, args, err := r.g.From("chapter").
		Select("id", "manga_id", "title", "number", "position", "images").
		Where(goqu.C("manga_id").Eq(mangaID)).
		Order(goqu.C("position").Asc(), goqu.C("id").Asc()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build chapters: %w", err)
	}

	out := []models.Chapter{}
	if err := sqlscan.Select(ctx, r.db, &out, query, args...); err != nil {
		return nil, fmt.Errorf("chapters of %s: %w", mangaID, err)
	}
	return out, nil
}

// Chapter returns nil when the chapter does not exist.
func (r *Repo) Chapter(ctx context.Context, id string) (*models.Chapter, error) {
	query, args, err := r.g.From("chapter").
		Select("id", "manga_id", "title", "number", "position", "images").
		Where(goqu.C("id").Eq(id)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build chapter: %w", err)
	}

	var ch models.Chapter
	if err := sqlscan.Get(ctx, r.db, &ch, query, args...); err != nil {
		if sqlscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get chapter %s: %w", id, err)
	}
	return &ch, nil
}
