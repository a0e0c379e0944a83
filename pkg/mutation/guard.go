package mutation

import (
	"context"

	"github.com/locallibrary/catalog/pkg/errcodes"
	"github.com/locallibrary/catalog/pkg/models"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"golang.org/x/sync/errgroup"
)

// Dependent is a stored record that references the entity being deleted.
type Dependent struct {
	Kind      Kind   `json:"kind"`
	ID        int    `json:"id"`
	Label     string `json:"label"`
	Reference string `json:"reference"`
}

type Deletability struct {
	Kind      Kind        `json:"kind"`
	ID        int         `json:"id"`
	Entity    any         `json:"entity"`
	Deletable bool        `json:"deletable"`
	Blocking  []Dependent `json:"blocking"`
}

// Guard refuses deletes of authors and genres still referenced by books, and
// of books still referenced by copies.
type Guard struct {
	stores   Stores
	recorder Recorder
}

func NewGuard(stores Stores, recorder Recorder) *Guard {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &Guard{stores: stores, recorder: recorder}
}

// CheckDeletable loads the entity and its dependents. The two reads run
// concurrently and are not a consistent snapshot.
func (g *Guard) CheckDeletable(ctx context.Context, kind Kind, id int) (*Deletability, error) {
	d := &Deletability{Kind: kind, ID: id, Blocking: []Dependent{}}

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		entity, err := g.retrieve(ctx, kind, id)
		if err != nil {
			return err
		}
		d.Entity = entity
		return nil
	})
	eg.Go(func() error {
		deps, err := g.dependents(ctx, kind, id)
		if err != nil {
			return err
		}
		d.Blocking = deps
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	d.Deletable = len(d.Blocking) == 0
	return d, nil
}

// Delete removes the entity if nothing references it. The store deletes
// conditionally, so a dependent created after CheckDeletable still blocks the
// delete. A refused delete returns errcodes.IntegrityViolation listing the
// blockers.
func (g *Guard) Delete(ctx context.Context, kind Kind, id int) error {
	err := g.delete(ctx, kind, id)

	var e *errcodes.Error
	switch {
	case err == nil:
		g.recorder.ObserveDelete(kind, DeleteOutcomeDeleted)
	case errors.As(err, &e) && e.Code == "not_found":
		g.recorder.ObserveDelete(kind, DeleteOutcomeNotFound)
	case errors.As(err, &e) && e.Code == "integrity_violation":
		g.recorder.ObserveDelete(kind, DeleteOutcomeBlocked)
	default:
		logger.FromContext(ctx).Err(err).Error("delete failed", logger.Data{"kind": kind, "id": id})
		g.recorder.ObserveDelete(kind, DeleteOutcomeError)
	}
	return err
}

const maxDeleteAttempts = 2

func (g *Guard) delete(ctx context.Context, kind Kind, id int) error {
	for attempt := 0; attempt < maxDeleteAttempts; attempt++ {
		removed, err := g.remove(ctx, kind, id)
		if err != nil {
			return err
		}
		if removed {
			return nil
		}

		d, err := g.CheckDeletable(ctx, kind, id)
		if err != nil {
			return err
		}
		if !d.Deletable {
			return errcodes.IntegrityViolation(kind.Resource(), d.Blocking)
		}
		// The blockers went away between the delete and the check.
	}
	return errors.Errorf("%s %d could not be deleted", kind, id)
}

func (g *Guard) remove(ctx context.Context, kind Kind, id int) (bool, error) {
	switch kind {
	case KindAuthor:
		return g.stores.Authors.DeleteAuthor(ctx, id)
	case KindGenre:
		return g.stores.Genres.DeleteGenre(ctx, id)
	case KindBook:
		return g.stores.Books.DeleteBook(ctx, id)
	case KindBookInstance:
		return g.stores.BookInstances.DeleteBookInstance(ctx, id)
	}
	return false, ErrUnknownKind
}

func (g *Guard) retrieve(ctx context.Context, kind Kind, id int) (any, error) {
	switch kind {
	case KindAuthor:
		return g.stores.Authors.RetrieveAuthor(ctx, id)
	case KindGenre:
		return g.stores.Genres.RetrieveGenre(ctx, id)
	case KindBook:
		return g.stores.Books.RetrieveBook(ctx, id)
	case KindBookInstance:
		return g.stores.BookInstances.RetrieveBookInstance(ctx, id)
	}
	return nil, ErrUnknownKind
}

func (g *Guard) dependents(ctx context.Context, kind Kind, id int) ([]Dependent, error) {
	switch kind {
	case KindAuthor:
		books, err := g.stores.Books.ListBooks(ctx, models.BookFilter{AuthorID: &id})
		return bookDependents(books), err
	case KindGenre:
		books, err := g.stores.Books.ListBooks(ctx, models.BookFilter{GenreID: &id})
		return bookDependents(books), err
	case KindBook:
		instances, err := g.stores.BookInstances.ListBookInstances(ctx, models.BookInstanceFilter{BookID: &id})
		if err != nil {
			return nil, err
		}
		deps := make([]Dependent, 0, len(instances))
		for _, bi := range instances {
			deps = append(deps, Dependent{Kind: KindBookInstance, ID: bi.ID, Label: bi.Imprint, Reference: bi.URL()})
		}
		return deps, nil
	case KindBookInstance:
		return []Dependent{}, nil
	}
	return nil, ErrUnknownKind
}

func bookDependents(books []*models.Book) []Dependent {
	deps := make([]Dependent, 0, len(books))
	for _, b := range books {
		deps = append(deps, Dependent{Kind: KindBook, ID: b.ID, Label: b.Title, Reference: b.URL()})
	}
	return deps
}
