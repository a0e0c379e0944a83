// Package memstore keeps the whole catalog in memory. It satisfies the same
// store interfaces as the SQLite services and is used wherever a database is
// not wanted, mostly tests.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/locallibrary/catalog/pkg/errcodes"
	"github.com/locallibrary/catalog/pkg/models"
	"github.com/locallibrary/catalog/pkg/namekey"
)

type Store struct {
	mu sync.RWMutex

	nextID        int
	authors       map[int]models.Author
	genres        map[int]models.Genre
	books         map[int]models.Book
	bookInstances map[int]models.BookInstance

	now func() time.Time
}

func New() *Store {
	return &Store{
		authors:       map[int]models.Author{},
		genres:        map[int]models.Genre{},
		books:         map[int]models.Book{},
		bookInstances: map[int]models.BookInstance{},
		now:           time.Now,
	}
}

func (s *Store) id() int {
	s.nextID++
	return s.nextID
}

// Authors

func (s *Store) RetrieveAuthor(_ context.Context, id int) (*models.Author, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.authors[id]
	if !ok {
		return nil, errcodes.NotFound("Author")
	}
	return &a, nil
}

func (s *Store) ListAuthors(_ context.Context) ([]*models.Author, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	authors := make([]*models.Author, 0, len(s.authors))
	for _, a := range s.authors {
		a := a
		authors = append(authors, &a)
	}
	sort.Slice(authors, func(i, j int) bool {
		if authors[i].FamilyName != authors[j].FamilyName {
			return authors[i].FamilyName < authors[j].FamilyName
		}
		return authors[i].ID < authors[j].ID
	})
	return authors, nil
}

func (s *Store) CountAuthors(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.authors), nil
}

func (s *Store) CreateAuthor(_ context.Context, author *models.Author) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	author.ID = s.id()
	author.CreatedAt = now
	author.UpdatedAt = now
	s.authors[author.ID] = *author
	return nil
}

func (s *Store) UpdateAuthor(_ context.Context, author *models.Author) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.authors[author.ID]
	if !ok {
		return errcodes.NotFound("Author")
	}
	author.CreatedAt = existing.CreatedAt
	author.UpdatedAt = s.now()
	s.authors[author.ID] = *author
	return nil
}

func (s *Store) DeleteAuthor(_ context.Context, id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.authors[id]; !ok {
		return false, nil
	}
	for _, b := range s.books {
		if b.AuthorID == id {
			return false, nil
		}
	}
	delete(s.authors, id)
	return true, nil
}

// Genres

func (s *Store) RetrieveGenre(_ context.Context, id int) (*models.Genre, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.genres[id]
	if !ok {
		return nil, errcodes.NotFound("Genre")
	}
	return &g, nil
}

func (s *Store) RetrieveGenreByName(_ context.Context, name string) (*models.Genre, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key := namekey.Key(name)
	for _, g := range s.genres {
		if g.NameKey == key {
			return &g, nil
		}
	}
	return nil, errcodes.NotFound("Genre")
}

func (s *Store) ListGenres(_ context.Context) ([]*models.Genre, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	genres := make([]*models.Genre, 0, len(s.genres))
	for _, g := range s.genres {
		g := g
		genres = append(genres, &g)
	}
	sort.Slice(genres, func(i, j int) bool {
		return genres[i].Name < genres[j].Name
	})
	return genres, nil
}

func (s *Store) CountGenres(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.genres), nil
}

func (s *Store) genreKeyTaken(key string, except int) bool {
	for id, g := range s.genres {
		if id != except && g.NameKey == key {
			return true
		}
	}
	return false
}

func (s *Store) CreateGenre(_ context.Context, genre *models.Genre) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	genre.NameKey = namekey.Key(genre.Name)
	if s.genreKeyTaken(genre.NameKey, 0) {
		return errcodes.Conflict("Genre")
	}
	now := s.now()
	genre.ID = s.id()
	genre.CreatedAt = now
	genre.UpdatedAt = now
	s.genres[genre.ID] = *genre
	return nil
}

func (s *Store) UpdateGenre(_ context.Context, genre *models.Genre) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.genres[genre.ID]
	if !ok {
		return errcodes.NotFound("Genre")
	}
	genre.NameKey = namekey.Key(genre.Name)
	if s.genreKeyTaken(genre.NameKey, genre.ID) {
		return errcodes.Conflict("Genre")
	}
	genre.CreatedAt = existing.CreatedAt
	genre.UpdatedAt = s.now()
	s.genres[genre.ID] = *genre
	return nil
}

func (s *Store) DeleteGenre(_ context.Context, id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.genres[id]; !ok {
		return false, nil
	}
	for _, b := range s.books {
		if b.HasGenre(id) {
			return false, nil
		}
	}
	delete(s.genres, id)
	return true, nil
}

// Books

// hydrateBook returns a copy of b with its author and genres attached.
// Callers must hold the lock.
func (s *Store) hydrateBook(b models.Book) *models.Book {
	if a, ok := s.authors[b.AuthorID]; ok {
		b.Author = &a
	}
	b.GenreIDs = append([]int{}, b.GenreIDs...)
	b.Genres = make([]*models.Genre, 0, len(b.GenreIDs))
	for _, id := range b.GenreIDs {
		if g, ok := s.genres[id]; ok {
			g := g
			b.Genres = append(b.Genres, &g)
		}
	}
	return &b
}

func (s *Store) RetrieveBook(_ context.Context, id int) (*models.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.books[id]
	if !ok {
		return nil, errcodes.NotFound("Book")
	}
	return s.hydrateBook(b), nil
}

func (s *Store) matchBook(b models.Book, filter models.BookFilter) bool {
	if filter.AuthorID != nil && b.AuthorID != *filter.AuthorID {
		return false
	}
	if filter.GenreID != nil && !b.HasGenre(*filter.GenreID) {
		return false
	}
	return true
}

func (s *Store) ListBooks(_ context.Context, filter models.BookFilter) ([]*models.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	books := []*models.Book{}
	for _, b := range s.books {
		if s.matchBook(b, filter) {
			books = append(books, s.hydrateBook(b))
		}
	}
	sort.Slice(books, func(i, j int) bool {
		if books[i].Title != books[j].Title {
			return books[i].Title < books[j].Title
		}
		return books[i].ID < books[j].ID
	})
	return books, nil
}

func (s *Store) CountBooks(_ context.Context, filter models.BookFilter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, b := range s.books {
		if s.matchBook(b, filter) {
			n++
		}
	}
	return n, nil
}

func (s *Store) CreateBook(_ context.Context, book *models.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	book.ID = s.id()
	book.CreatedAt = now
	book.UpdatedAt = now
	s.books[book.ID] = plainBook(book)
	return nil
}

func (s *Store) UpdateBook(_ context.Context, book *models.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.books[book.ID]
	if !ok {
		return errcodes.NotFound("Book")
	}
	book.CreatedAt = existing.CreatedAt
	book.UpdatedAt = s.now()
	s.books[book.ID] = plainBook(book)
	return nil
}

// plainBook strips loaded relations so stored rows never alias caller data.
func plainBook(book *models.Book) models.Book {
	b := *book
	b.Author = nil
	b.Genres = nil
	b.BookGenres = nil
	b.GenreIDs = append([]int{}, book.GenreIDs...)
	return b
}

func (s *Store) DeleteBook(_ context.Context, id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.books[id]; !ok {
		return false, nil
	}
	for _, bi := range s.bookInstances {
		if bi.BookID == id {
			return false, nil
		}
	}
	delete(s.books, id)
	return true, nil
}

// Book instances

func (s *Store) hydrateBookInstance(bi models.BookInstance) *models.BookInstance {
	if b, ok := s.books[bi.BookID]; ok {
		bi.Book = s.hydrateBook(b)
	}
	return &bi
}

func (s *Store) RetrieveBookInstance(_ context.Context, id int) (*models.BookInstance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bi, ok := s.bookInstances[id]
	if !ok {
		return nil, errcodes.NotFound("Book copy")
	}
	return s.hydrateBookInstance(bi), nil
}

func matchBookInstance(bi models.BookInstance, filter models.BookInstanceFilter) bool {
	if filter.BookID != nil && bi.BookID != *filter.BookID {
		return false
	}
	if filter.Status != nil && !strings.EqualFold(bi.Status, *filter.Status) {
		return false
	}
	return true
}

func (s *Store) ListBookInstances(_ context.Context, filter models.BookInstanceFilter) ([]*models.BookInstance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	instances := []*models.BookInstance{}
	for _, bi := range s.bookInstances {
		if matchBookInstance(bi, filter) {
			instances = append(instances, s.hydrateBookInstance(bi))
		}
	}
	sort.Slice(instances, func(i, j int) bool {
		return instances[i].ID < instances[j].ID
	})
	return instances, nil
}

func (s *Store) CountBookInstances(_ context.Context, filter models.BookInstanceFilter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, bi := range s.bookInstances {
		if matchBookInstance(bi, filter) {
			n++
		}
	}
	return n, nil
}

func (s *Store) CreateBookInstance(_ context.Context, instance *models.BookInstance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	instance.ID = s.id()
	instance.CreatedAt = now
	instance.UpdatedAt = now
	stored := *instance
	stored.Book = nil
	s.bookInstances[instance.ID] = stored
	return nil
}

func (s *Store) UpdateBookInstance(_ context.Context, instance *models.BookInstance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.bookInstances[instance.ID]
	if !ok {
		return errcodes.NotFound("Book copy")
	}
	instance.CreatedAt = existing.CreatedAt
	instance.UpdatedAt = s.now()
	stored := *instance
	stored.Book = nil
	s.bookInstances[instance.ID] = stored
	return nil
}

func (s *Store) DeleteBookInstance(_ context.Context, id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bookInstances[id]; !ok {
		return false, nil
	}
	delete(s.bookInstances, id)
	return true, nil
}
