package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/nuaibria/travelsync/internal/adapter/otel"
	"github.com/nuaibria/travelsync/internal/middleware"
	"github.com/nuaibria/travelsync/internal/wire"
)

// RouterConfig configures NewRouter.
type RouterConfig struct {
	ServiceName string
	// Token is the shared bearer token. Empty disables authentication.
	Token string
	// Push serves the WebSocket push channel. Nil leaves /ws unmounted.
	Push http.HandlerFunc
}

// NewRouter builds the simulator router.
func NewRouter(h *Handlers, cfg RouterConfig) chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(AccessLog)
	r.Use(middleware.BearerToken(cfg.Token))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respond(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.Push != nil {
		r.Get("/ws", cfg.Push)
	}

	r.Group(func(r chi.Router) {
		r.Use(otel.HTTPMiddleware(cfg.ServiceName))
		r.Post(wire.PathStart, h.StartJourney)
		r.Post(wire.PathChoose, h.SubmitChoice)
		r.Post(wire.PathCancel, h.CancelJourney)
		r.Get(wire.PathStatus, h.GetStatus)
		r.Get(wire.PathSessionStatus, h.GetSessionStatus)
	})
	return r
}
