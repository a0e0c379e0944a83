package models

import (
	"fmt"
	"time"

	"github.com/segmentio/encoding/json"
	"github.com/uptrace/bun"
)

const (
	BookInstanceStatusAvailable   = "Available"
	BookInstanceStatusMaintenance = "Maintenance"
	BookInstanceStatusLoaned      = "Loaned"
	BookInstanceStatusReserved    = "Reserved"
)

// BookInstanceStatuses lists every status a copy can be in.
var BookInstanceStatuses = []string{
	BookInstanceStatusAvailable,
	BookInstanceStatusMaintenance,
	BookInstanceStatusLoaned,
	BookInstanceStatusReserved,
}

// BookInstance is a single physical copy of a book.
type BookInstance struct {
	bun.BaseModel `bun:"table:book_instances,alias:bi"`

	ID        int        `bun:",pk,autoincrement" json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	BookID    int        `bun:",notnull" json:"book_id"`
	Book      *Book      `bun:"rel:belongs-to,join:book_id=id" json:"book,omitempty"`
	Imprint   string     `bun:",notnull" json:"imprint"`
	Status    string     `bun:",notnull" json:"status"`
	DueBack   *time.Time `json:"due_back"`
}

func (bi *BookInstance) URL() string {
	return fmt.Sprintf("/catalog/bookinstance/%d", bi.ID)
}

func (bi *BookInstance) DueBackFormatted() string {
	if bi.DueBack == nil || bi.DueBack.IsZero() {
		return "N/A"
	}
	return bi.DueBack.Format(DisplayDateLayout)
}

func (bi *BookInstance) DueBackISO() string {
	return isoDate(bi.DueBack)
}

func (bi *BookInstance) MarshalJSON() ([]byte, error) {
	type bookInstance BookInstance
	return json.Marshal(struct {
		*bookInstance
		URL              string `json:"url"`
		DueBackFormatted string `json:"due_back_formatted"`
		DueBackISO       string `json:"due_back_iso"`
	}{(*bookInstance)(bi), bi.URL(), bi.DueBackFormatted(), bi.DueBackISO()})
}
