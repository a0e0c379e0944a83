package mutation

import (
	"context"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/locallibrary/catalog/pkg/errcodes"
	"github.com/locallibrary/catalog/pkg/models"
	"github.com/locallibrary/catalog/pkg/namekey"
	"github.com/locallibrary/catalog/pkg/validation"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"golang.org/x/sync/errgroup"
)

// Pipeline validates raw input, resolves references, deduplicates genres on
// create and persists the result. Nothing is written unless every field rule
// passed and every reference resolved.
type Pipeline struct {
	stores    Stores
	validator *validation.Validator
	matcher   *Matcher
	recorder  Recorder
	now       func() time.Time
}

type Option func(*Pipeline)

func WithRecorder(r Recorder) Option {
	return func(p *Pipeline) {
		if r != nil {
			p.recorder = r
		}
	}
}

// WithClock replaces the clock used for defaulted dates.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

func NewPipeline(stores Stores, opts ...Option) *Pipeline {
	p := &Pipeline{
		stores:    stores,
		validator: validation.New(),
		matcher:   NewMatcher(stores.Genres),
		recorder:  noopRecorder{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Create runs raw through the pipeline and inserts a new entity of kind.
func (p *Pipeline) Create(ctx context.Context, kind Kind, raw url.Values) *Result {
	res := p.run(ctx, kind, 0, raw)
	p.recorder.ObserveMutation(kind, ActionCreate, res.Status)
	return res
}

// Update runs raw through the pipeline and overwrites the entity with the
// given id. The id is preserved; an id with no stored entity fails with
// errcodes.NotFound.
func (p *Pipeline) Update(ctx context.Context, kind Kind, id int, raw url.Values) *Result {
	res := p.run(ctx, kind, id, raw)
	p.recorder.ObserveMutation(kind, ActionUpdate, res.Status)
	return res
}

func (p *Pipeline) run(ctx context.Context, kind Kind, id int, raw url.Values) *Result {
	log := logger.FromContext(ctx)
	res := &Result{Kind: kind}

	rules, err := Rules(kind)
	if err != nil {
		return res.fail(err)
	}

	values, failures, err := p.validator.Validate(ctx, rules, raw)
	if err != nil {
		return res.fail(err)
	}
	res.Input = values

	candidate := p.build(kind, id, values)
	res.Candidate = candidate

	if len(failures) > 0 {
		return res.reject(failures)
	}

	failures, err = p.resolve(ctx, candidate)
	if err != nil {
		return res.fail(err)
	}
	if len(failures) > 0 {
		return res.reject(failures)
	}

	if id == 0 {
		err = p.insert(ctx, res, candidate)
	} else {
		err = p.update(ctx, candidate)
	}
	if err != nil {
		var e *errcodes.Error
		if !errors.As(err, &e) {
			log.Err(err).Error("mutation failed", logger.Data{"kind": kind, "id": id})
		}
		return res.fail(err)
	}

	res.Status = StatusCommitted
	res.ID, res.Reference = identify(res.Candidate)
	return res
}

func (r *Result) reject(failures []validation.Failure) *Result {
	r.Status = StatusRejected
	r.Errors = failures
	return r
}

func (r *Result) fail(err error) *Result {
	r.Status = StatusFailed
	r.Err = err
	r.Reason = err.Error()
	return r
}

func (p *Pipeline) build(kind Kind, id int, v validation.Values) any {
	switch kind {
	case KindAuthor:
		return &models.Author{
			ID:          id,
			FirstName:   v.Get("first_name"),
			FamilyName:  v.Get("family_name"),
			DateOfBirth: parseDate(v.Get("date_of_birth")),
			DateOfDeath: parseDate(v.Get("date_of_death")),
		}
	case KindGenre:
		name := v.Get("name")
		return &models.Genre{ID: id, Name: name, NameKey: namekey.Key(name)}
	case KindBook:
		return &models.Book{
			ID:       id,
			Title:    v.Get("title"),
			AuthorID: atoi(v.Get("author")),
			Summary:  v.Get("summary"),
			ISBN:     v.Get("isbn"),
			GenreIDs: genreIDs(v.List("genre")),
		}
	case KindBookInstance:
		instance := &models.BookInstance{
			ID:      id,
			BookID:  atoi(v.Get("book")),
			Imprint: v.Get("imprint"),
			Status:  v.Get("status"),
			DueBack: parseDate(v.Get("due_back")),
		}
		if instance.Status == "" {
			instance.Status = models.BookInstanceStatusMaintenance
		}
		if instance.DueBack == nil {
			now := p.now()
			instance.DueBack = &now
		}
		return instance
	}
	return nil
}

// resolve checks that every referenced entity exists. Missing references are
// reported as failures on the referencing field.
func (p *Pipeline) resolve(ctx context.Context, candidate any) ([]validation.Failure, error) {
	var (
		mu      sync.Mutex
		missing = map[string]bool{}
	)
	g, gctx := errgroup.WithContext(ctx)
	lookup := func(field string, fn func(context.Context) error) {
		g.Go(func() error {
			err := fn(gctx)
			var e *errcodes.Error
			if errors.As(err, &e) && e.Code == "not_found" {
				mu.Lock()
				missing[field] = true
				mu.Unlock()
				return nil
			}
			return err
		})
	}

	var order []validation.Failure
	switch c := candidate.(type) {
	case *models.Book:
		order = []validation.Failure{
			{Field: "author", Message: "Author must reference an existing author."},
			{Field: "genre", Message: "Genre must reference an existing genre."},
		}
		lookup("author", func(ctx context.Context) error {
			_, err := p.stores.Authors.RetrieveAuthor(ctx, c.AuthorID)
			return err
		})
		for _, genreID := range c.GenreIDs {
			genreID := genreID
			lookup("genre", func(ctx context.Context) error {
				_, err := p.stores.Genres.RetrieveGenre(ctx, genreID)
				return err
			})
		}
	case *models.BookInstance:
		order = []validation.Failure{
			{Field: "book", Message: "Book must reference an existing book."},
		}
		lookup("book", func(ctx context.Context) error {
			_, err := p.stores.Books.RetrieveBook(ctx, c.BookID)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	failures := []validation.Failure{}
	for _, f := range order {
		if missing[f.Field] {
			failures = append(failures, f)
		}
	}
	return failures, nil
}

func (p *Pipeline) insert(ctx context.Context, res *Result, candidate any) error {
	switch c := candidate.(type) {
	case *models.Author:
		return p.stores.Authors.CreateAuthor(ctx, c)
	case *models.Genre:
		genre, existing, err := p.matcher.CreateOrGet(ctx, c)
		if err != nil {
			return err
		}
		if existing {
			res.Existing = true
			res.Candidate = genre
		}
		return nil
	case *models.Book:
		return p.stores.Books.CreateBook(ctx, c)
	case *models.BookInstance:
		return p.stores.BookInstances.CreateBookInstance(ctx, c)
	}
	return ErrUnknownKind
}

func (p *Pipeline) update(ctx context.Context, candidate any) error {
	switch c := candidate.(type) {
	case *models.Author:
		return p.stores.Authors.UpdateAuthor(ctx, c)
	case *models.Genre:
		return p.stores.Genres.UpdateGenre(ctx, c)
	case *models.Book:
		return p.stores.Books.UpdateBook(ctx, c)
	case *models.BookInstance:
		return p.stores.BookInstances.UpdateBookInstance(ctx, c)
	}
	return ErrUnknownKind
}

func identify(entity any) (int, string) {
	switch e := entity.(type) {
	case *models.Author:
		return e.ID, e.URL()
	case *models.Genre:
		return e.ID, e.URL()
	case *models.Book:
		return e.ID, e.URL()
	case *models.BookInstance:
		return e.ID, e.URL()
	}
	return 0, ""
}

func parseDate(s string) *time.Time {
	t, ok := validation.ParseDate(s)
	if !ok {
		return nil
	}
	return &t
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// genreIDs converts the genre list to ids, dropping repeats but keeping the
// submitted order.
func genreIDs(values []string) []int {
	ids := make([]int, 0, len(values))
	seen := map[int]bool{}
	for _, v := range values {
		id := atoi(v)
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}
