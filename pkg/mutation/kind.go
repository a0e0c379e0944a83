package mutation

import (
	"github.com/pkg/errors"
)

// Kind names one of the catalog entity types.
type Kind string

const (
	KindAuthor       Kind = "author"
	KindBook         Kind = "book"
	KindBookInstance Kind = "bookinstance"
	KindGenre        Kind = "genre"
)

// Kinds lists every entity kind in routing order.
var Kinds = []Kind{KindAuthor, KindBook, KindBookInstance, KindGenre}

// ErrUnknownKind is returned for a kind outside Kinds.
var ErrUnknownKind = errors.New("unknown entity kind")

func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", errors.Wrapf(ErrUnknownKind, "%q", s)
}

// Resource is the human readable name used in error messages.
func (k Kind) Resource() string {
	switch k {
	case KindAuthor:
		return "Author"
	case KindBook:
		return "Book"
	case KindBookInstance:
		return "Book copy"
	case KindGenre:
		return "Genre"
	}
	return string(k)
}
