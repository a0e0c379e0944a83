package models

import (
	"fmt"
	"time"

	"github.com/segmentio/encoding/json"
	"github.com/uptrace/bun"
)

type Genre struct {
	bun.BaseModel `bun:"table:genres,alias:g"`

	ID        int       `bun:",pk,autoincrement" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Name      string    `bun:",notnull" json:"name"`
	// NameKey is the case-insensitive collation key of Name. It carries a
	// unique index, so two genres can never collate equal.
	NameKey string `bun:",notnull" json:"-"`
}

func (g *Genre) URL() string {
	return fmt.Sprintf("/catalog/genre/%d", g.ID)
}

func (g *Genre) MarshalJSON() ([]byte, error) {
	type genre Genre
	return json.Marshal(struct {
		*genre
		URL string `json:"url"`
	}{(*genre)(g), g.URL()})
}

type BookGenre struct {
	bun.BaseModel `bun:"table:book_genres,alias:bg"`

	BookID  int    `bun:",pk" json:"book_id"`
	GenreID int    `bun:",pk" json:"genre_id"`
	Genre   *Genre `bun:"rel:belongs-to,join:genre_id=id" json:"genre,omitempty"`
}
