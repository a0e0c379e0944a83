package catalog

type ListBooksQuery struct {
	AuthorID *int `query:"author" json:"author,omitempty" validate:"omitempty,min=1"`
	GenreID  *int `query:"genre" json:"genre,omitempty" validate:"omitempty,min=1"`
}

type ListBookInstancesQuery struct {
	BookID *int    `query:"book" json:"book,omitempty" validate:"omitempty,min=1"`
	Status *string `query:"status" json:"status,omitempty" mod:"trim" validate:"omitempty,oneof=Available Maintenance Loaned Reserved"`
}

// emptyQuery rejects any query parameter on listings that take none.
type emptyQuery struct{}
