package binder

import (
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type listParams struct {
	Status *string `query:"status" mod:"trim" validate:"omitempty,oneof=Available Loaned"`
	Book   *int    `query:"book" validate:"omitempty,gte=1"`
}

func TestBind(t *testing.T) {
	t.Parallel()
	b, err := New()
	require.NoError(t, err)

	t.Run("decodes and trims query params", func(tt *testing.T) {
		p := listParams{}
		err := b.Bind(&p, newContext(echo.GET, "/?status=+Loaned+&book=3", "", ""))
		require.NoError(tt, err)
		require.NotNil(tt, p.Status)
		assert.Equal(tt, "Loaned", *p.Status)
		assert.Equal(tt, 3, *p.Book)
	})

	t.Run("rejects unknown params", func(tt *testing.T) {
		p := listParams{}
		err := b.Bind(&p, newContext(echo.GET, "/?shelf=2", "", ""))
		assert.Contains(tt, err.Error(), `Unknown Parameter "shelf"`)
	})

	t.Run("returns a good message for type errors", func(tt *testing.T) {
		p := listParams{}
		err := b.Bind(&p, newContext(echo.GET, "/?book=dune", "", ""))
		assert.Contains(tt, err.Error(), `"book" should be of type`)
	})

	t.Run("validates params", func(tt *testing.T) {
		p := listParams{}
		err := b.Bind(&p, newContext(echo.GET, "/?status=Lost", "", ""))
		assert.Contains(tt, err.Error(), `"status" must be one of the following: "Available", "Loaned"`)
	})
}

func TestRawFields(t *testing.T) {
	t.Parallel()
	b, err := New()
	require.NoError(t, err)

	t.Run("form bodies keep repeated values", func(tt *testing.T) {
		c := newContext(echo.POST, "/?isbn=1", "title=Dune&genre=1&genre=2", echo.MIMEApplicationForm)
		raw, err := b.RawFields(c)
		require.NoError(tt, err)
		assert.Equal(tt, url.Values{"title": {"Dune"}, "genre": {"1", "2"}}, raw)
	})

	t.Run("json scalars and lists", func(tt *testing.T) {
		c := newContext(echo.POST, "/", `{"title":"Dune","author":3,"genre":["1",2],"summary":null}`, echo.MIMEApplicationJSON)
		raw, err := b.RawFields(c)
		require.NoError(tt, err)
		assert.Equal(tt, url.Values{"title": {"Dune"}, "author": {"3"}, "genre": {"1", "2"}}, raw)
	})

	t.Run("json numbers keep plain notation", func(tt *testing.T) {
		c := newContext(echo.POST, "/", `{"author":1234567,"genre":[20000000,2.5],"due_back":true}`, echo.MIMEApplicationJSON)
		raw, err := b.RawFields(c)
		require.NoError(tt, err)
		assert.Equal(tt, url.Values{"author": {"1234567"}, "genre": {"20000000", "2.5"}, "due_back": {"true"}}, raw)
	})

	t.Run("empty json list is kept", func(tt *testing.T) {
		c := newContext(echo.POST, "/", `{"genre":[]}`, echo.MIMEApplicationJSON)
		raw, err := b.RawFields(c)
		require.NoError(tt, err)
		assert.Equal(tt, []string{}, raw["genre"])
	})

	t.Run("nested objects are rejected", func(tt *testing.T) {
		c := newContext(echo.POST, "/", `{"author":{"id":3}}`, echo.MIMEApplicationJSON)
		_, err := b.RawFields(c)
		assert.Contains(tt, err.Error(), `"author" should be a string or a list of strings`)
	})

	t.Run("malformed json", func(tt *testing.T) {
		c := newContext(echo.POST, "/", `{"title":`, echo.MIMEApplicationJSON)
		_, err := b.RawFields(c)
		assert.Contains(tt, err.Error(), "Malformed Payload")
	})

	t.Run("only allows json and forms", func(tt *testing.T) {
		c := newContext(echo.POST, "/", `<genre/>`, echo.MIMEApplicationXML)
		_, err := b.RawFields(c)
		assert.Contains(tt, err.Error(), "Unsupported Media Type")
	})
}

func newContext(method, target, payload, mime string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(payload))
	if mime != "" {
		req.Header.Set(echo.HeaderContentType, mime)
	}
	return e.NewContext(req, httptest.NewRecorder())
}
