package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/AnshRaj112/cleersplit-backend/internal/handlers"
	"github.com/AnshRaj112/cleersplit-backend/internal/middleware"
)

// Options controls how the router is assembled.
type Options struct {
	Logger         *zap.Logger
	AllowedOrigins []string
	// Production enables security headers, the host check and the global limiter.
	Production  bool
	AllowedHost string
	Global      *middleware.IPRateLimiter
	// SignInLimit guards POST /api/session/sign-in. Nil disables it.
	SignInLimit func(http.Handler) http.Handler
}

// NewRouter builds the chi router with middleware and every route mounted.
func NewRouter(h *handlers.Handler, opts Options) *chi.Mux {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.RequestLogger(opts.Logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(opts.AllowedOrigins))

	if opts.Production {
		global := opts.Global
		if global == nil {
			global = middleware.Global()
		}
		for _, mw := range middleware.ProductionSecurity(opts.AllowedHost, global) {
			r.Use(mw)
		}
	}

	SetupRoutes(r, h, opts.SignInLimit)
	return r
}

func SetupRoutes(r chi.Router, h *handlers.Handler, signInLimit func(http.Handler) http.Handler) {
	r.Get("/health", h.Health)

	// Session
	r.Get("/api/session", h.GetSession)
	if signInLimit != nil {
		r.With(signInLimit).Post("/api/session/sign-in", h.SignIn)
	} else {
		r.Post("/api/session/sign-in", h.SignIn)
	}
	r.Post("/api/session/callback", h.Callback)
	r.Post("/api/session/sign-out", h.SignOut)

	// Profile
	r.Get("/api/profile", h.GetProfile)
	r.Post("/api/profile/avatar", h.UploadAvatar)
	r.Delete("/api/profile/avatar", h.DeleteAvatar)

	// Group creation
	r.Post("/api/groups/draft", h.CreateGroupDraft)

	// Theme
	r.Get("/api/theme/color", h.GetColor)
	r.Get("/api/theme/palette", h.GetPalette)

	// Realtime
	r.Get("/ws/events", h.EventsWebSocket)
}
