package books

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

// CreateBook inserts the book and its genre links in one transaction.
func (svc *Service) CreateBook(ctx context.Context, book *models.Book) error {
	now := time.Now()
	book.CreatedAt = now
	book.UpdatedAt = now

	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.
			NewInsert().
			Model(book).
			Returning("*").
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		return insertBookGenres(ctx, tx, book)
	})
	return errors.WithStack(err)
}

func insertBookGenres(ctx context.Context, tx bun.Tx, book *models.Book) error {
	if len(book.GenreIDs) == 0 {
		return nil
	}
	links := make([]*models.BookGenre, 0, len(book.GenreIDs))
	for _, genreID := range book.GenreIDs {
		links = append(links, &models.BookGenre{BookID: book.ID, GenreID: genreID})
	}
	_, err := tx.
		NewInsert().
		Model(&links).
		On("CONFLICT DO NOTHING").
		Exec(ctx)
	return errors.WithStack(err)
}

func (svc *Service) selectBooks(model interface{}) *bun.SelectQuery {
	return svc.db.
		NewSelect().
		Model(model).
		Relation("Author").
		Relation("BookGenres", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("genre_id ASC")
		}).
		Relation("BookGenres.Genre")
}

func (svc *Service) RetrieveBook(ctx context.Context, id int) (*models.Book, error) {
	book := &models.Book{}
	err := svc.selectBooks(book).
		Where("b.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Book")
		}
		return nil, errors.WithStack(err)
	}
	book.SyncGenres()
	return book, nil
}

func applyBookFilter(q *bun.SelectQuery, filter models.BookFilter) *bun.SelectQuery {
	if filter.AuthorID != nil {
		q = q.Where("b.author_id = ?", *filter.AuthorID)
	}
	if filter.GenreID != nil {
		q = q.Where("b.id IN (SELECT book_id FROM book_genres WHERE genre_id = ?)", *filter.GenreID)
	}
	return q
}

// ListBooks returns matching books ordered by title, with author and genres
// loaded.
func (svc *Service) ListBooks(ctx context.Context, filter models.BookFilter) ([]*models.Book, error) {
	books := []*models.Book{}
	err := applyBookFilter(svc.selectBooks(&books), filter).
		Order("b.title ASC", "b.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	for _, b := range books {
		b.SyncGenres()
	}
	return books, nil
}

func (svc *Service) CountBooks(ctx context.Context, filter models.BookFilter) (int, error) {
	q := svc.db.NewSelect().Model((*models.Book)(nil))
	count, err := applyBookFilter(q, filter).Count(ctx)
	return count, errors.WithStack(err)
}

// UpdateBook overwrites the book's fields and replaces its genre links.
func (svc *Service) UpdateBook(ctx context.Context, book *models.Book) error {
	book.UpdatedAt = time.Now()

	return svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.
			NewUpdate().
			Model(book).
			Column("title", "author_id", "summary", "isbn", "updated_at").
			WherePK().
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return errcodes.NotFound("Book")
		}

		_, err = tx.
			NewDelete().
			Model((*models.BookGenre)(nil)).
			Where("book_id = ?", book.ID).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		return insertBookGenres(ctx, tx, book)
	})
}

// DeleteBook removes the book and its genre links only while no copy of it
// exists. It reports whether the book was removed.
func (svc *Service) DeleteBook(ctx context.Context, id int) (bool, error) {
	removed := false
	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.
			NewDelete().
			Model((*models.Book)(nil)).
			Where("id = ?", id).
			Where("NOT EXISTS (SELECT 1 FROM book_instances WHERE book_id = ?)", id).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return errors.WithStack(err)
		}
		if n == 0 {
			return nil
		}
		removed = true

		_, err = tx.
			NewDelete().
			Model((*models.BookGenre)(nil)).
			Where("book_id = ?", id).
			Exec(ctx)
		return errors.WithStack(err)
	})
	if err != nil {
		return false, err
	}
	return removed, nil
}
