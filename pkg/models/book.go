package models

import (
	"fmt"
	"time"

	"github.com/segmentio/encoding/json"
	"github.com/uptrace/bun"
)

type Book struct {
	bun.BaseModel `bun:"table:books,alias:b"`

	ID         int          `bun:",pk,autoincrement" json:"id"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
	Title      string       `bun:",notnull" json:"title"`
	AuthorID   int          `bun:",notnull" json:"author_id"`
	Author     *Author      `bun:"rel:belongs-to,join:author_id=id" json:"author,omitempty"`
	Summary    string       `bun:",notnull" json:"summary"`
	ISBN       string       `bun:"isbn,notnull" json:"isbn"`
	BookGenres []*BookGenre `bun:"rel:has-many,join:id=book_id" json:"-"`

	// GenreIDs is what gets written to book_genres. Genres is filled in when
	// the genre rows are loaded alongside the book.
	GenreIDs []int    `bun:"-" json:"genre_ids"`
	Genres   []*Genre `bun:"-" json:"genres,omitempty"`
}

func (b *Book) URL() string {
	return fmt.Sprintf("/catalog/book/%d", b.ID)
}

// HasGenre reports whether the book is filed under the given genre.
func (b *Book) HasGenre(genreID int) bool {
	for _, id := range b.GenreIDs {
		if id == genreID {
			return true
		}
	}
	return false
}

// SyncGenres copies loaded book_genres rows into GenreIDs and Genres.
func (b *Book) SyncGenres() {
	if b.BookGenres == nil {
		return
	}
	b.GenreIDs = make([]int, 0, len(b.BookGenres))
	b.Genres = make([]*Genre, 0, len(b.BookGenres))
	for _, bg := range b.BookGenres {
		b.GenreIDs = append(b.GenreIDs, bg.GenreID)
		if bg.Genre != nil {
			b.Genres = append(b.Genres, bg.Genre)
		}
	}
}

func (b *Book) MarshalJSON() ([]byte, error) {
	type book Book
	return json.Marshal(struct {
		*book
		URL string `json:"url"`
	}{(*book)(b), b.URL()})
}
