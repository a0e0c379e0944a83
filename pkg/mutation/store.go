package mutation

import (
	"context"

	"github.com/locallibrary/catalog/pkg/models"
)

// Stores missing a record return errcodes.NotFound for the matching resource
// ("Author", "Book", "Book copy", "Genre"). Delete methods report whether a
// row was removed.

type AuthorStore interface {
	RetrieveAuthor(ctx context.Context, id int) (*models.Author, error)
	ListAuthors(ctx context.Context) ([]*models.Author, error)
	CountAuthors(ctx context.Context) (int, error)
	CreateAuthor(ctx context.Context, author *models.Author) error
	UpdateAuthor(ctx context.Context, author *models.Author) error
	// DeleteAuthor removes the author only while no book references it.
	DeleteAuthor(ctx context.Context, id int) (bool, error)
}

type GenreStore interface {
	RetrieveGenre(ctx context.Context, id int) (*models.Genre, error)
	// RetrieveGenreByName matches under case-insensitive collation.
	RetrieveGenreByName(ctx context.Context, name string) (*models.Genre, error)
	ListGenres(ctx context.Context) ([]*models.Genre, error)
	CountGenres(ctx context.Context) (int, error)
	// CreateGenre returns errcodes.Conflict("Genre") when a collation-equal
	// genre already exists.
	CreateGenre(ctx context.Context, genre *models.Genre) error
	UpdateGenre(ctx context.Context, genre *models.Genre) error
	// DeleteGenre removes the genre only while no book references it.
	DeleteGenre(ctx context.Context, id int) (bool, error)
}

type BookStore interface {
	RetrieveBook(ctx context.Context, id int) (*models.Book, error)
	ListBooks(ctx context.Context, filter models.BookFilter) ([]*models.Book, error)
	CountBooks(ctx context.Context, filter models.BookFilter) (int, error)
	CreateBook(ctx context.Context, book *models.Book) error
	UpdateBook(ctx context.Context, book *models.Book) error
	// DeleteBook removes the book only while no copy references it.
	DeleteBook(ctx context.Context, id int) (bool, error)
}

type BookInstanceStore interface {
	RetrieveBookInstance(ctx context.Context, id int) (*models.BookInstance, error)
	ListBookInstances(ctx context.Context, filter models.BookInstanceFilter) ([]*models.BookInstance, error)
	CountBookInstances(ctx context.Context, filter models.BookInstanceFilter) (int, error)
	CreateBookInstance(ctx context.Context, instance *models.BookInstance) error
	UpdateBookInstance(ctx context.Context, instance *models.BookInstance) error
	DeleteBookInstance(ctx context.Context, id int) (bool, error)
}

// Stores bundles the per-kind storage the pipeline and guard work against.
type Stores struct {
	Authors       AuthorStore
	Genres        GenreStore
	Books         BookStore
	BookInstances BookInstanceStore
}
