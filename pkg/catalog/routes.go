package catalog

import (
	"github.com/labstack/echo/v4"
	"github.com/locallibrary/catalog/pkg/binder"
	"github.com/locallibrary/catalog/pkg/mutation"
)

// RegisterRoutes mounts the catalog under /catalog. Every kind gets the same
// list, detail, create, update and delete routes.
func RegisterRoutes(e *echo.Echo, b *binder.Binder, stores mutation.Stores, recorder mutation.Recorder, m ...echo.MiddlewareFunc) {
	h := &handler{
		binder:   b,
		stores:   stores,
		pipeline: mutation.NewPipeline(stores, mutation.WithRecorder(recorder)),
		guard:    mutation.NewGuard(stores, recorder),
	}

	g := e.Group("/catalog", m...)
	g.GET("", h.index)

	for _, kind := range mutation.Kinds {
		prefix := "/" + string(kind)
		g.GET(prefix+"s", h.list(kind))
		g.GET(prefix+"/create", h.createForm(kind))
		g.POST(prefix+"/create", h.create(kind))
		g.GET(prefix+"/:id", h.retrieve(kind))
		g.GET(prefix+"/:id/update", h.updateForm(kind))
		g.POST(prefix+"/:id/update", h.update(kind))
		g.GET(prefix+"/:id/delete", h.deleteForm(kind))
		g.POST(prefix+"/:id/delete", h.delete(kind))
	}
}
