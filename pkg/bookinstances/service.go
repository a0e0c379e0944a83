package bookinstances

import (
	"context"
	"database/sql"
	"time"

	"github.com/locallibrary/catalog/pkg/errcodes"
	"github.com/locallibrary/catalog/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

func (svc *Service) CreateBookInstance(ctx context.Context, instance *models.BookInstance) error {
	now := time.Now()
	instance.CreatedAt = now
	instance.UpdatedAt = now
	if instance.Status == "" {
		instance.Status = models.BookInstanceStatusMaintenance
	}

	_, err := svc.db.
		NewInsert().
		Model(instance).
		Returning("*").
		Exec(ctx)
	return errors.WithStack(err)
}

func (svc *Service) RetrieveBookInstance(ctx context.Context, id int) (*models.BookInstance, error) {
	instance := &models.BookInstance{}
	err := svc.db.
		NewSelect().
		Model(instance).
		Relation("Book").
		Where("bi.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Book copy")
		}
		return nil, errors.WithStack(err)
	}
	return instance, nil
}

func applyFilter(q *bun.SelectQuery, filter models.BookInstanceFilter) *bun.SelectQuery {
	if filter.BookID != nil {
		q = q.Where("bi.book_id = ?", *filter.BookID)
	}
	if filter.Status != nil {
		q = q.Where("bi.status = ?", *filter.Status)
	}
	return q
}

// ListBookInstances returns matching copies with their book loaded.
func (svc *Service) ListBookInstances(ctx context.Context, filter models.BookInstanceFilter) ([]*models.BookInstance, error) {
	instances := []*models.BookInstance{}
	q := svc.db.
		NewSelect().
		Model(&instances).
		Relation("Book").
		Order("bi.id ASC")
	err := applyFilter(q, filter).Scan(ctx)
	return instances, errors.WithStack(err)
}

func (svc *Service) CountBookInstances(ctx context.Context, filter models.BookInstanceFilter) (int, error) {
	q := svc.db.NewSelect().Model((*models.BookInstance)(nil))
	count, err := applyFilter(q, filter).Count(ctx)
	return count, errors.WithStack(err)
}

func (svc *Service) UpdateBookInstance(ctx context.Context, instance *models.BookInstance) error {
	instance.UpdatedAt = time.Now()

	res, err := svc.db.
		NewUpdate().
		Model(instance).
		Column("book_id", "imprint", "status", "due_back", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errcodes.NotFound("Book copy")
	}
	return nil
}

// DeleteBookInstance reports whether a copy was removed. Nothing references
// copies, so only a missing id stops it.
func (svc *Service) DeleteBookInstance(ctx context.Context, id int) (bool, error) {
	res, err := svc.db.
		NewDelete().
		Model((*models.BookInstance)(nil)).
		Where("id = ?", id).
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
