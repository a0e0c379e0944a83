package catalog

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/locallibrary/catalog/pkg/binder"
	"github.com/locallibrary/catalog/pkg/errcodes"
	"github.com/locallibrary/catalog/pkg/models"
	"github.com/locallibrary/catalog/pkg/mutation"
	"github.com/locallibrary/catalog/pkg/validation"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

type handler struct {
	binder   *binder.Binder
	stores   mutation.Stores
	pipeline *mutation.Pipeline
	guard    *mutation.Guard
}

type genreOption struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	URL     string `json:"url"`
	Checked bool   `json:"checked"`
}

// rejection is the detail payload of a 422: the normalized input, every
// failure and whatever the form needs to be shown again.
type rejection struct {
	Candidate any                  `json:"candidate"`
	Errors    []validation.Failure `json:"errors"`
	Form      map[string]any       `json:"form,omitempty"`
}

func (h *handler) index(c echo.Context) error {
	eg, ctx := errgroup.WithContext(c.Request().Context())
	available := models.BookInstanceStatusAvailable

	var books, copies, availableCopies, authors, genres int
	eg.Go(func() (err error) {
		books, err = h.stores.Books.CountBooks(ctx, models.BookFilter{})
		return err
	})
	eg.Go(func() (err error) {
		copies, err = h.stores.BookInstances.CountBookInstances(ctx, models.BookInstanceFilter{})
		return err
	})
	eg.Go(func() (err error) {
		availableCopies, err = h.stores.BookInstances.CountBookInstances(ctx, models.BookInstanceFilter{Status: &available})
		return err
	})
	eg.Go(func() (err error) {
		authors, err = h.stores.Authors.CountAuthors(ctx)
		return err
	})
	eg.Go(func() (err error) {
		genres, err = h.stores.Genres.CountGenres(ctx)
		return err
	})
	if err := eg.Wait(); err != nil {
		return errors.WithStack(err)
	}

	response := map[string]any{
		"book_count":                    books,
		"book_instance_count":           copies,
		"book_instance_available_count": availableCopies,
		"author_count":                  authors,
		"genre_count":                   genres,
	}
	return errors.WithStack(c.JSON(http.StatusOK, response))
}

func (h *handler) list(kind mutation.Kind) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		var (
			items any
			err   error
		)
		switch kind {
		case mutation.KindBook:
			params := ListBooksQuery{}
			if err := c.Bind(&params); err != nil {
				return errors.WithStack(err)
			}
			items, err = h.stores.Books.ListBooks(ctx, models.BookFilter{AuthorID: params.AuthorID, GenreID: params.GenreID})
		case mutation.KindBookInstance:
			params := ListBookInstancesQuery{}
			if err := c.Bind(&params); err != nil {
				return errors.WithStack(err)
			}
			items, err = h.stores.BookInstances.ListBookInstances(ctx, models.BookInstanceFilter{BookID: params.BookID, Status: params.Status})
		case mutation.KindAuthor:
			if err := c.Bind(&emptyQuery{}); err != nil {
				return errors.WithStack(err)
			}
			items, err = h.stores.Authors.ListAuthors(ctx)
		case mutation.KindGenre:
			if err := c.Bind(&emptyQuery{}); err != nil {
				return errors.WithStack(err)
			}
			items, err = h.stores.Genres.ListGenres(ctx)
		}
		if err != nil {
			return errors.WithStack(err)
		}

		return errors.WithStack(c.JSON(http.StatusOK, map[string]any{string(kind) + "s": items}))
	}
}

// retrieve returns the entity with the records that reference it.
func (h *handler) retrieve(kind mutation.Kind) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			return errcodes.NotFound(kind.Resource())
		}

		var (
			entity     any
			dependents any
			depKey     string
		)
		eg, ctx := errgroup.WithContext(c.Request().Context())
		switch kind {
		case mutation.KindAuthor:
			depKey = "books"
			eg.Go(func() (err error) {
				entity, err = h.stores.Authors.RetrieveAuthor(ctx, id)
				return err
			})
			eg.Go(func() (err error) {
				dependents, err = h.stores.Books.ListBooks(ctx, models.BookFilter{AuthorID: &id})
				return err
			})
		case mutation.KindGenre:
			depKey = "books"
			eg.Go(func() (err error) {
				entity, err = h.stores.Genres.RetrieveGenre(ctx, id)
				return err
			})
			eg.Go(func() (err error) {
				dependents, err = h.stores.Books.ListBooks(ctx, models.BookFilter{GenreID: &id})
				return err
			})
		case mutation.KindBook:
			depKey = "bookinstances"
			eg.Go(func() (err error) {
				entity, err = h.stores.Books.RetrieveBook(ctx, id)
				return err
			})
			eg.Go(func() (err error) {
				dependents, err = h.stores.BookInstances.ListBookInstances(ctx, models.BookInstanceFilter{BookID: &id})
				return err
			})
		case mutation.KindBookInstance:
			eg.Go(func() (err error) {
				entity, err = h.stores.BookInstances.RetrieveBookInstance(ctx, id)
				return err
			})
		}
		if err := eg.Wait(); err != nil {
			return errors.WithStack(err)
		}

		response := map[string]any{string(kind): entity}
		if depKey != "" {
			response[depKey] = dependents
		}
		return errors.WithStack(c.JSON(http.StatusOK, response))
	}
}

func (h *handler) createForm(kind mutation.Kind) echo.HandlerFunc {
	return func(c echo.Context) error {
		form, err := h.formData(c.Request().Context(), kind, nil)
		if err != nil {
			return errors.WithStack(err)
		}
		return errors.WithStack(c.JSON(http.StatusOK, map[string]any{"form": form}))
	}
}

func (h *handler) updateForm(kind mutation.Kind) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			return errcodes.NotFound(kind.Resource())
		}

		var (
			entity   any
			selected []int
		)
		switch kind {
		case mutation.KindAuthor:
			entity, err = h.stores.Authors.RetrieveAuthor(ctx, id)
		case mutation.KindGenre:
			entity, err = h.stores.Genres.RetrieveGenre(ctx, id)
		case mutation.KindBook:
			var book *models.Book
			book, err = h.stores.Books.RetrieveBook(ctx, id)
			if book != nil {
				selected = book.GenreIDs
			}
			entity = book
		case mutation.KindBookInstance:
			entity, err = h.stores.BookInstances.RetrieveBookInstance(ctx, id)
		}
		if err != nil {
			return errors.WithStack(err)
		}

		form, err := h.formData(ctx, kind, selected)
		if err != nil {
			return errors.WithStack(err)
		}
		return errors.WithStack(c.JSON(http.StatusOK, map[string]any{
			string(kind): entity,
			"form":       form,
		}))
	}
}

func (h *handler) create(kind mutation.Kind) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw, err := h.binder.RawFields(c)
		if err != nil {
			return errors.WithStack(err)
		}
		return h.respond(c, h.pipeline.Create(c.Request().Context(), kind, raw))
	}
}

func (h *handler) update(kind mutation.Kind) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			return errcodes.NotFound(kind.Resource())
		}
		raw, err := h.binder.RawFields(c)
		if err != nil {
			return errors.WithStack(err)
		}
		return h.respond(c, h.pipeline.Update(c.Request().Context(), kind, id, raw))
	}
}

// respond maps a pipeline result onto the response: a redirect to the
// record when committed, a 422 carrying the candidate when rejected, and the
// underlying error otherwise.
func (h *handler) respond(c echo.Context, res *mutation.Result) error {
	switch res.Status {
	case mutation.StatusCommitted:
		c.Response().Header().Set(echo.HeaderLocation, res.Reference)
		return errors.WithStack(c.JSON(http.StatusSeeOther, map[string]any{
			"reference": res.Reference,
			"id":        res.ID,
			"existing":  res.Existing,
		}))
	case mutation.StatusRejected:
		var selected []int
		if book, ok := res.Candidate.(*models.Book); ok {
			selected = book.GenreIDs
		}
		form, err := h.formData(c.Request().Context(), res.Kind, selected)
		if err != nil {
			return errors.WithStack(err)
		}
		return errcodes.ValidationFailed(res.Kind.Resource(), rejection{
			Candidate: res.Candidate,
			Errors:    res.Errors,
			Form:      form,
		})
	}
	if res.Err == nil {
		return errors.Errorf("%s mutation failed: %s", res.Kind, res.Reason)
	}
	return errors.WithStack(res.Err)
}

func (h *handler) deleteForm(kind mutation.Kind) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			return errcodes.NotFound(kind.Resource())
		}
		d, err := h.guard.CheckDeletable(c.Request().Context(), kind, id)
		if err != nil {
			return errors.WithStack(err)
		}
		return errors.WithStack(c.JSON(http.StatusOK, d))
	}
}

func (h *handler) delete(kind mutation.Kind) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			return errcodes.NotFound(kind.Resource())
		}
		if err := h.guard.Delete(c.Request().Context(), kind, id); err != nil {
			return errors.WithStack(err)
		}

		reference := "/catalog/" + string(kind) + "s"
		c.Response().Header().Set(echo.HeaderLocation, reference)
		return errors.WithStack(c.JSON(http.StatusSeeOther, map[string]any{"reference": reference}))
	}
}

// formData loads the choices a create or update form offers. Books choose an
// author and genres, with the selected genres checked. Copies choose a book.
func (h *handler) formData(ctx context.Context, kind mutation.Kind, selected []int) (map[string]any, error) {
	form := map[string]any{}
	switch kind {
	case mutation.KindBook:
		var (
			authors []*models.Author
			genres  []*models.Genre
		)
		eg, ctx := errgroup.WithContext(ctx)
		eg.Go(func() (err error) {
			authors, err = h.stores.Authors.ListAuthors(ctx)
			return err
		})
		eg.Go(func() (err error) {
			genres, err = h.stores.Genres.ListGenres(ctx)
			return err
		})
		if err := eg.Wait(); err != nil {
			return nil, errors.WithStack(err)
		}

		checked := &models.Book{GenreIDs: selected}
		options := make([]genreOption, 0, len(genres))
		for _, g := range genres {
			options = append(options, genreOption{ID: g.ID, Name: g.Name, URL: g.URL(), Checked: checked.HasGenre(g.ID)})
		}
		form["authors"] = authors
		form["genres"] = options
	case mutation.KindBookInstance:
		books, err := h.stores.Books.ListBooks(ctx, models.BookFilter{})
		if err != nil {
			return nil, errors.WithStack(err)
		}
		form["books"] = books
		form["statuses"] = models.BookInstanceStatuses
	}
	return form, nil
}
