package mutation_test

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/locallibrary/catalog/pkg/errcodes"
	"github.com/locallibrary/catalog/pkg/memstore"
	"github.com/locallibrary/catalog/pkg/models"
	"github.com/locallibrary/catalog/pkg/mutation"
	"github.com/locallibrary/catalog/pkg/validation"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStores() (*memstore.Store, mutation.Stores) {
	s := memstore.New()
	return s, mutation.Stores{Authors: s, Genres: s, Books: s, BookInstances: s}
}

func fieldsOf(failures []validation.Failure) []string {
	fields := make([]string, 0, len(failures))
	for _, f := range failures {
		fields = append(fields, f.Field)
	}
	return fields
}

func TestCreate_ValidAuthorCommits(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, stores := newStores()
	p := mutation.NewPipeline(stores)

	tests := []url.Values{
		{"first_name": {"Mary"}, "family_name": {"Shelley"}},
		{"first_name": {"Mary-Anne"}, "family_name": {"Evans"}},
		{"first_name": {"Ursula"}, "family_name": {"Le Guin"}, "date_of_birth": {"1929-10-21"}, "date_of_death": {"2018-01-22"}},
		{"first_name": {"  Isaac "}, "family_name": {"Asimov"}, "date_of_birth": {""}},
	}
	for _, raw := range tests {
		res := p.Create(ctx, mutation.KindAuthor, raw)
		require.Equal(t, mutation.StatusCommitted, res.Status, "%v: %v", raw, res.Errors)
		assert.NotZero(t, res.ID)
		assert.Equal(t, (&models.Author{ID: res.ID}).URL(), res.Reference)

		stored, err := store.RetrieveAuthor(ctx, res.ID)
		require.NoError(t, err)
		assert.NotEmpty(t, stored.Name())
	}

	stored, err := store.RetrieveAuthor(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, "Isaac", stored.FirstName)
	assert.Nil(t, stored.DateOfBirth)

	leGuin, err := store.RetrieveAuthor(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "Oct 21, 1929 - Jan 22, 2018", leGuin.Lifespan())
}

func TestCreate_CollectsEveryFailure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, stores := newStores()
	p := mutation.NewPipeline(stores)

	res := p.Create(ctx, mutation.KindAuthor, url.Values{
		"first_name":    {"mary"},
		"family_name":   {"shelley"},
		"date_of_birth": {"not a date"},
	})
	require.Equal(t, mutation.StatusRejected, res.Status)
	assert.Equal(t, []string{"first_name", "family_name", "date_of_birth"}, fieldsOf(res.Errors))
	assert.Equal(t, "Mary", res.Errors[0].Suggestion)
	assert.Equal(t, "Shelley", res.Errors[1].Suggestion)

	candidate, ok := res.Candidate.(*models.Author)
	require.True(t, ok)
	assert.Equal(t, "mary", candidate.FirstName)

	count, err := store.CountAuthors(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestCreate_ShortGenreRejected(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	_, stores := newStores()
	p := mutation.NewPipeline(stores)

	for _, name := range []string{"", "A", "Ab"} {
		res := p.Create(ctx, mutation.KindGenre, url.Values{"name": {name}})
		require.Equal(t, mutation.StatusRejected, res.Status, name)
		assert.Equal(t, "Genre name must be at least 3 characters", res.Errors[0].Message)
	}

	res := p.Create(ctx, mutation.KindGenre, url.Values{"name": {"ab"}})
	require.Equal(t, mutation.StatusRejected, res.Status)
	assert.Equal(t, []string{"name", "name"}, fieldsOf(res.Errors))
}

func TestCreate_Capitalization(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	_, stores := newStores()
	p := mutation.NewPipeline(stores)

	tests := []struct {
		name   string
		status mutation.Status
	}{
		{"mary shelley", mutation.StatusRejected},
		{"Mary Shelley", mutation.StatusCommitted},
		{"Mary-Anne", mutation.StatusCommitted},
		// Apostrophes are not word separators, so the letter after one
		// must stay lowercase and the whole name fails.
		{"O'brien", mutation.StatusRejected},
		{"HORROR", mutation.StatusRejected},
	}
	for _, tt := range tests {
		res := p.Create(ctx, mutation.KindGenre, url.Values{"name": {tt.name}})
		assert.Equal(t, tt.status, res.Status, tt.name)
	}
}

func TestCreate_GenreDedup(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, stores := newStores()
	p := mutation.NewPipeline(stores)

	first := p.Create(ctx, mutation.KindGenre, url.Values{"name": {"Fantasy"}})
	require.Equal(t, mutation.StatusCommitted, first.Status)
	assert.False(t, first.Existing)

	second := p.Create(ctx, mutation.KindGenre, url.Values{"name": {" Fantasy "}})
	require.Equal(t, mutation.StatusCommitted, second.Status)
	assert.True(t, second.Existing)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Reference, second.Reference)

	// Lowercase input never passes the capitalization rule, so a genre stored
	// with different casing is seeded directly.
	require.NoError(t, store.CreateGenre(ctx, &models.Genre{Name: "HORROR"}))
	third := p.Create(ctx, mutation.KindGenre, url.Values{"name": {"Horror"}})
	require.Equal(t, mutation.StatusCommitted, third.Status)
	assert.True(t, third.Existing)
	assert.Equal(t, "HORROR", third.Candidate.(*models.Genre).Name)

	lower := p.Create(ctx, mutation.KindGenre, url.Values{"name": {"fantasy"}})
	assert.Equal(t, mutation.StatusRejected, lower.Status)

	count, err := store.CountGenres(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestMatcher_CaseInsensitive(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, _ := newStores()
	m := mutation.NewMatcher(store)

	genre, existing, err := m.CreateOrGet(ctx, &models.Genre{Name: "Fantasy"})
	require.NoError(t, err)
	assert.False(t, existing)

	again, existing, err := m.CreateOrGet(ctx, &models.Genre{Name: "fantasy"})
	require.NoError(t, err)
	assert.True(t, existing)
	assert.Equal(t, genre.ID, again.ID)

	none, err := m.Match(ctx, "Fantasia")
	require.NoError(t, err)
	assert.Nil(t, none)

	count, err := store.CountGenres(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func seedAuthorAndGenres(t *testing.T, p *mutation.Pipeline) (int, []int) {
	t.Helper()
	ctx := context.Background()

	author := p.Create(ctx, mutation.KindAuthor, url.Values{"first_name": {"Frank"}, "family_name": {"Herbert"}})
	require.Equal(t, mutation.StatusCommitted, author.Status)

	ids := []int{}
	for _, name := range []string{"Science Fiction", "Adventure"} {
		g := p.Create(ctx, mutation.KindGenre, url.Values{"name": {name}})
		require.Equal(t, mutation.StatusCommitted, g.Status)
		ids = append(ids, g.ID)
	}
	return author.ID, ids
}

func TestCreate_BookGenreNormalization(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, stores := newStores()
	p := mutation.NewPipeline(stores)
	authorID, genreIDs := seedAuthorAndGenres(t, p)

	base := func() url.Values {
		return url.Values{
			"title":   {"Dune"},
			"author":  {itoa(authorID)},
			"summary": {"Spice."},
			"isbn":    {"9780441013593"},
		}
	}

	raw := base()
	res := p.Create(ctx, mutation.KindBook, raw)
	require.Equal(t, mutation.StatusCommitted, res.Status, res.Errors)
	assert.Equal(t, []string{}, res.Input.List("genre"))

	raw = base()
	raw.Set("genre", itoa(genreIDs[0]))
	res = p.Create(ctx, mutation.KindBook, raw)
	require.Equal(t, mutation.StatusCommitted, res.Status, res.Errors)
	assert.Equal(t, []string{itoa(genreIDs[0])}, res.Input.List("genre"))

	raw = base()
	raw["genre"] = []string{itoa(genreIDs[1]), itoa(genreIDs[0])}
	res = p.Create(ctx, mutation.KindBook, raw)
	require.Equal(t, mutation.StatusCommitted, res.Status, res.Errors)
	assert.Equal(t, []string{itoa(genreIDs[1]), itoa(genreIDs[0])}, res.Input.List("genre"))

	book, err := store.RetrieveBook(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{genreIDs[1], genreIDs[0]}, book.GenreIDs)
}

func TestCreate_BookRequiresFieldsAndReferences(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, stores := newStores()
	p := mutation.NewPipeline(stores)
	authorID, _ := seedAuthorAndGenres(t, p)

	res := p.Create(ctx, mutation.KindBook, url.Values{"isbn": {"1"}})
	require.Equal(t, mutation.StatusRejected, res.Status)
	assert.Equal(t, []validation.Failure{
		{Field: "title", Message: "Title must not be empty."},
		{Field: "author", Message: "Author must not be empty."},
		{Field: "summary", Message: "Summary must not be empty."},
		{Field: "isbn", Message: "ISBN must not be empty"},
	}, res.Errors)

	res = p.Create(ctx, mutation.KindBook, url.Values{
		"title":   {"Dune"},
		"author":  {"999"},
		"summary": {"Spice."},
		"isbn":    {"9780441013593"},
		"genre":   {"998"},
	})
	require.Equal(t, mutation.StatusRejected, res.Status)
	assert.Equal(t, []string{"author", "genre"}, fieldsOf(res.Errors))

	res = p.Create(ctx, mutation.KindBook, url.Values{
		"title":   {"<b>Dune</b>"},
		"author":  {itoa(authorID)},
		"summary": {"Spice & sand."},
		"isbn":    {"9780441013593"},
	})
	require.Equal(t, mutation.StatusCommitted, res.Status)
	book, err := store.RetrieveBook(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, "&lt;b&gt;Dune&lt;&#x2F;b&gt;", book.Title)
	assert.Equal(t, "Spice &amp; sand.", book.Summary)

	count, err := store.CountBooks(ctx, models.BookFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCreate_BookInstanceDefaults(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, stores := newStores()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	p := mutation.NewPipeline(stores, mutation.WithClock(func() time.Time { return now }))
	authorID, _ := seedAuthorAndGenres(t, p)

	book := p.Create(ctx, mutation.KindBook, url.Values{
		"title": {"Dune"}, "author": {itoa(authorID)}, "summary": {"Spice."}, "isbn": {"9780441013593"},
	})
	require.Equal(t, mutation.StatusCommitted, book.Status)

	res := p.Create(ctx, mutation.KindBookInstance, url.Values{"book": {itoa(book.ID)}, "imprint": {"Chilton Books, 1965"}})
	require.Equal(t, mutation.StatusCommitted, res.Status, res.Errors)

	instance, err := store.RetrieveBookInstance(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookInstanceStatusMaintenance, instance.Status)
	require.NotNil(t, instance.DueBack)
	assert.True(t, now.Equal(*instance.DueBack))

	res = p.Create(ctx, mutation.KindBookInstance, url.Values{
		"book":     {itoa(book.ID)},
		"imprint":  {"Chilton Books"},
		"status":   {"Lost"},
		"due_back": {"soon"},
	})
	require.Equal(t, mutation.StatusRejected, res.Status)
	assert.Equal(t, []validation.Failure{
		{Field: "imprint", Message: "Imprint must contain the publisher name and date"},
		{Field: "status", Message: "Status must be one of Available, Maintenance, Loaned, Reserved"},
		{Field: "due_back", Message: "Invalid date"},
	}, res.Errors)
}

func TestUpdate_PreservesIdentity(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, stores := newStores()
	p := mutation.NewPipeline(stores)

	created := p.Create(ctx, mutation.KindAuthor, url.Values{"first_name": {"Mary"}, "family_name": {"Godwin"}})
	require.Equal(t, mutation.StatusCommitted, created.Status)

	updated := p.Update(ctx, mutation.KindAuthor, created.ID, url.Values{"first_name": {"Mary"}, "family_name": {"Shelley"}})
	require.Equal(t, mutation.StatusCommitted, updated.Status)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, created.Reference, updated.Reference)

	author, err := store.RetrieveAuthor(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Shelley", author.FamilyName)

	count, err := store.CountAuthors(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestUpdate_Missing(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	_, stores := newStores()
	p := mutation.NewPipeline(stores)

	res := p.Update(ctx, mutation.KindGenre, 77, url.Values{"name": {"Poetry"}})
	require.Equal(t, mutation.StatusFailed, res.Status)
	assert.True(t, errors.Is(res.Err, errcodes.NotFound("Genre")))
	assert.Equal(t, "Genre not found.", res.Reason)
}

func TestUpdate_GenreRenameCollision(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	_, stores := newStores()
	p := mutation.NewPipeline(stores)

	poetry := p.Create(ctx, mutation.KindGenre, url.Values{"name": {"Poetry"}})
	require.Equal(t, mutation.StatusCommitted, poetry.Status)
	drama := p.Create(ctx, mutation.KindGenre, url.Values{"name": {"Drama"}})
	require.Equal(t, mutation.StatusCommitted, drama.Status)

	res := p.Update(ctx, mutation.KindGenre, drama.ID, url.Values{"name": {"Poetry"}})
	require.Equal(t, mutation.StatusFailed, res.Status)
	assert.True(t, errors.Is(res.Err, errcodes.Conflict("Genre")))
}

type countingRecorder struct {
	mutations map[string]int
	deletes   map[string]int
}

func (r *countingRecorder) ObserveMutation(kind mutation.Kind, action mutation.Action, status mutation.Status) {
	r.mutations[string(kind)+"/"+string(action)+"/"+string(status)]++
}

func (r *countingRecorder) ObserveDelete(kind mutation.Kind, outcome string) {
	r.deletes[string(kind)+"/"+outcome]++
}

func TestRecorder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	_, stores := newStores()
	rec := &countingRecorder{mutations: map[string]int{}, deletes: map[string]int{}}
	p := mutation.NewPipeline(stores, mutation.WithRecorder(rec))

	p.Create(ctx, mutation.KindGenre, url.Values{"name": {"Poetry"}})
	p.Create(ctx, mutation.KindGenre, url.Values{"name": {"po"}})
	p.Update(ctx, mutation.KindGenre, 99, url.Values{"name": {"Drama"}})

	assert.Equal(t, map[string]int{
		"genre/create/committed": 1,
		"genre/create/rejected":  1,
		"genre/update/failed":    1,
	}, rec.mutations)
}
