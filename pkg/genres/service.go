package genres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/locallibrary/catalog/pkg/errcodes"
	"github.com/locallibrary/catalog/pkg/models"
	"github.com/locallibrary/catalog/pkg/namekey"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

// CreateGenre inserts genre unless its name key is already taken, in which
// case nothing is written and errcodes.Conflict is returned.
func (svc *Service) CreateGenre(ctx context.Context, genre *models.Genre) error {
	now := time.Now()
	genre.CreatedAt = now
	genre.UpdatedAt = now
	genre.NameKey = namekey.Key(genre.Name)

	_, err := svc.db.
		NewInsert().
		Model(genre).
		On("CONFLICT (name_key) DO NOTHING").
		Returning("*").
		Exec(ctx)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && genre.ID == 0) {
		return errcodes.Conflict("Genre")
	}
	return errors.WithStack(err)
}

func (svc *Service) RetrieveGenre(ctx context.Context, id int) (*models.Genre, error) {
	return svc.retrieve(ctx, "g.id = ?", id)
}

// RetrieveGenreByName matches on the collation key, so "fantasy" finds
// "Fantasy" but "Resume" does not find "Résumé".
func (svc *Service) RetrieveGenreByName(ctx context.Context, name string) (*models.Genre, error) {
	return svc.retrieve(ctx, "g.name_key = ?", namekey.Key(name))
}

func (svc *Service) retrieve(ctx context.Context, where string, arg interface{}) (*models.Genre, error) {
	genre := &models.Genre{}
	err := svc.db.
		NewSelect().
		Model(genre).
		Where(where, arg).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Genre")
		}
		return nil, errors.WithStack(err)
	}
	return genre, nil
}

func (svc *Service) ListGenres(ctx context.Context) ([]*models.Genre, error) {
	genres := []*models.Genre{}
	err := svc.db.
		NewSelect().
		Model(&genres).
		Order("g.name ASC").
		Scan(ctx)
	return genres, errors.WithStack(err)
}

func (svc *Service) CountGenres(ctx context.Context) (int, error) {
	count, err := svc.db.NewSelect().Model((*models.Genre)(nil)).Count(ctx)
	return count, errors.WithStack(err)
}

func (svc *Service) UpdateGenre(ctx context.Context, genre *models.Genre) error {
	genre.UpdatedAt = time.Now()
	genre.NameKey = namekey.Key(genre.Name)

	res, err := svc.db.
		NewUpdate().
		Model(genre).
		Column("name", "name_key", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return errcodes.Conflict("Genre")
		}
		return errors.WithStack(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errcodes.NotFound("Genre")
	}
	return nil
}

// DeleteGenre removes the genre only while no book is filed under it. It
// reports whether a row was removed.
func (svc *Service) DeleteGenre(ctx context.Context, id int) (bool, error) {
	res, err := svc.db.
		NewDelete().
		Model((*models.Genre)(nil)).
		Where("id = ?", id).
		Where("NOT EXISTS (SELECT 1 FROM book_genres WHERE genre_id = ?)", id).
		Exec(ctx)
	if err != nil {
		return false, errors.WithStack(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.WithStack(err)
	}
	return n > 0, nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
