package models

// BookFilter narrows a book listing. Nil fields are ignored.
type BookFilter struct {
	AuthorID *int
	GenreID  *int
}

// BookInstanceFilter narrows a copy listing. Nil fields are ignored.
type BookInstanceFilter struct {
	BookID *int
	Status *string
}
