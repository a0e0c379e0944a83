package models

import (
	"fmt"
	"time"

	"github.com/segmentio/encoding/json"
	"github.com/uptrace/bun"
)

// DisplayDateLayout is the medium date format used for human-facing dates.
const DisplayDateLayout = "Jan 2, 2006"

// ISODateLayout is the format used to pre-fill date inputs.
const ISODateLayout = "2006-01-02"

type Author struct {
	bun.BaseModel `bun:"table:authors,alias:a"`

	ID          int        `bun:",pk,autoincrement" json:"id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	FirstName   string     `bun:",notnull" json:"first_name"`
	FamilyName  string     `bun:",notnull" json:"family_name"`
	DateOfBirth *time.Time `json:"date_of_birth"`
	DateOfDeath *time.Time `json:"date_of_death"`
}

// Name returns "Family, First". It is empty unless both parts are present.
func (a *Author) Name() string {
	if a.FirstName == "" || a.FamilyName == "" {
		return ""
	}
	return a.FamilyName + ", " + a.FirstName
}

func (a *Author) URL() string {
	return fmt.Sprintf("/catalog/author/%d", a.ID)
}

func (a *Author) BirthDateFormatted() string {
	return formatDate(a.DateOfBirth)
}

func (a *Author) DeathDateFormatted() string {
	return formatDate(a.DateOfDeath)
}

// Lifespan renders "birth - death", leaving either side blank when unknown.
func (a *Author) Lifespan() string {
	return a.BirthDateFormatted() + " - " + a.DeathDateFormatted()
}

func (a *Author) DateOfBirthISO() string {
	return isoDate(a.DateOfBirth)
}

func (a *Author) DateOfDeathISO() string {
	return isoDate(a.DateOfDeath)
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(DisplayDateLayout)
}

func isoDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(ISODateLayout)
}

// MarshalJSON adds the derived display values.
func (a *Author) MarshalJSON() ([]byte, error) {
	type author Author
	return json.Marshal(struct {
		*author
		Name           string `json:"name"`
		Lifespan       string `json:"lifespan"`
		URL            string `json:"url"`
		DateOfBirthISO string `json:"date_of_birth_iso"`
		DateOfDeathISO string `json:"date_of_death_iso"`
	}{(*author)(a), a.Name(), a.Lifespan(), a.URL(), a.DateOfBirthISO(), a.DateOfDeathISO()})
}
