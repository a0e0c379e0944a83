// Package namekey derives collation keys for name-identity lookups. Two names
// share a key exactly when an English collator ignoring case considers them
// equal. Accents and other secondary differences are still significant, so
// "Resume" and "Résumé" stay distinct while "FANTASY" and "fantasy" collide.
package namekey

import (
	"encoding/hex"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Collators keep internal buffers and can't be shared between goroutines.
var collators = sync.Pool{
	New: func() any {
		return collate.New(language.English, collate.IgnoreCase)
	},
}

// Key returns the hex-encoded collation key for name.
func Key(name string) string {
	c := collators.Get().(*collate.Collator)
	defer collators.Put(c)

	buf := &collate.Buffer{}
	return hex.EncodeToString(c.KeyFromString(buf, name))
}

// Equal reports whether a and b collate equal ignoring case.
func Equal(a, b string) bool {
	c := collators.Get().(*collate.Collator)
	defer collators.Put(c)

	return c.CompareString(a, b) == 0
}
