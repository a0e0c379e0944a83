package mutation

import (
	"context"

	"github.com/locallibrary/catalog/pkg/errcodes"
	"github.com/locallibrary/catalog/pkg/models"
	"github.com/pkg/errors"
)

// Matcher resolves genre names to stored genres under case-insensitive,
// accent-sensitive collation.
type Matcher struct {
	genres GenreStore
}

func NewMatcher(genres GenreStore) *Matcher {
	return &Matcher{genres: genres}
}

// Match returns the stored genre whose name collates equal to name, or nil.
func (m *Matcher) Match(ctx context.Context, name string) (*models.Genre, error) {
	genre, err := m.genres.RetrieveGenreByName(ctx, name)
	if errors.Is(err, errcodes.NotFound("Genre")) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return genre, nil
}

// CreateOrGet inserts genre unless a collation-equal genre already exists, in
// which case the stored one is returned with existing set. A concurrent insert
// of the same name loses on the unique name key and is answered with the
// winner.
func (m *Matcher) CreateOrGet(ctx context.Context, genre *models.Genre) (*models.Genre, bool, error) {
	found, err := m.Match(ctx, genre.Name)
	if err != nil {
		return nil, false, err
	}
	if found != nil {
		return found, true, nil
	}

	err = m.genres.CreateGenre(ctx, genre)
	if err == nil {
		return genre, false, nil
	}
	if !errors.Is(err, errcodes.Conflict("Genre")) {
		return nil, false, err
	}

	found, err = m.Match(ctx, genre.Name)
	if err != nil {
		return nil, false, err
	}
	if found == nil {
		return nil, false, errors.New("genre insert conflicted but no matching genre was found")
	}
	return found, true, nil
}
