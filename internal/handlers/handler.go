package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/AnshRaj112/cleersplit-backend/internal/avatar"
	"github.com/AnshRaj112/cleersplit-backend/internal/events"
	"github.com/AnshRaj112/cleersplit-backend/internal/groups"
	"github.com/AnshRaj112/cleersplit-backend/internal/profile"
	"github.com/AnshRaj112/cleersplit-backend/internal/session"
)

// Handler serves the HTTP API for one client's state.
type Handler struct {
	session       *session.Controller
	store         *profile.Store
	loader        *avatar.Loader
	bus           *events.Bus
	inviteBaseURL string
	maxUpload     int64
	logger        *zap.Logger
}

// Deps are the collaborators a Handler needs. Logger and InviteBaseURL are optional.
type Deps struct {
	Session       *session.Controller
	Store         *profile.Store
	Loader        *avatar.Loader
	Bus           *events.Bus
	InviteBaseURL string
	MaxUpload     int64
	Logger        *zap.Logger
}

func New(d Deps) *Handler {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.InviteBaseURL == "" {
		d.InviteBaseURL = groups.DefaultInviteBaseURL
	}
	if d.MaxUpload <= 0 {
		d.MaxUpload = avatar.DefaultMaxBytes
	}
	return &Handler{
		session:       d.Session,
		store:         d.Store,
		loader:        d.Loader,
		bus:           d.Bus,
		inviteBaseURL: d.InviteBaseURL,
		maxUpload:     d.MaxUpload,
		logger:        d.Logger,
	}
}

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Errors  any    `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Success: false, Message: message})
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"phase":       h.session.Phase(),
		"subscribers": h.bus.Len(),
	})
}
