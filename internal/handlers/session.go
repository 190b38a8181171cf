package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/AnshRaj112/cleersplit-backend/internal/profile"
	"github.com/AnshRaj112/cleersplit-backend/internal/session"
)

type SessionResponse struct {
	Success    bool                  `json:"success"`
	Message    string                `json:"message,omitempty"`
	Phase      session.Phase         `json:"phase"`
	Screen     session.Screen        `json:"screen"`
	Policy     session.SignOutPolicy `json:"sign_out_policy"`
	Profile    profile.Profile       `json:"profile"`
	Transition *session.Transition   `json:"transition,omitempty"`
}

// CallbackRequest is what the authentication provider reports back.
type CallbackRequest struct {
	Status      string  `json:"status"` // "success", "failure" or "cancelled"
	DisplayName *string `json:"display_name"`
	Email       *string `json:"email"`
	Reason      string  `json:"reason,omitempty"`
}

func (h *Handler) sessionResponse(tr *session.Transition) SessionResponse {
	phase := h.session.Phase()
	return SessionResponse{
		Success:    true,
		Phase:      phase,
		Screen:     phase.Screen(),
		Policy:     h.session.Policy(),
		Profile:    h.store.Snapshot(),
		Transition: tr,
	}
}

// writeTransition answers 200 for an applied transition and 409 for a
// trigger the current phase does not accept.
func (h *Handler) writeTransition(w http.ResponseWriter, tr session.Transition) {
	resp := h.sessionResponse(&tr)
	if !tr.Applied {
		resp.Success = false
		resp.Message = "cannot " + strings.ReplaceAll(tr.Trigger.String(), "_", " ") + " while " + strings.ReplaceAll(tr.From.String(), "_", " ")
		writeJSON(w, http.StatusConflict, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetSession returns the current phase, screen and profile.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.sessionResponse(nil))
}

// SignIn starts an authentication attempt.
func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	h.writeTransition(w, h.session.Begin())
}

// Callback completes, fails or cancels the pending authentication attempt.
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	var req CallbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var tr session.Transition
	switch strings.ToLower(strings.TrimSpace(req.Status)) {
	case "success":
		tr = h.session.Succeed(profile.Identity{DisplayName: req.DisplayName, Email: req.Email})
	case "failure":
		reason := strings.TrimSpace(req.Reason)
		if reason == "" {
			reason = "authentication failed"
		}
		tr = h.session.Fail(errors.New(reason))
	case "cancelled":
		tr = h.session.Cancel()
	default:
		writeError(w, http.StatusBadRequest, "status must be success, failure or cancelled")
		return
	}
	h.writeTransition(w, tr)
}

// SignOut ends the session.
func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	h.writeTransition(w, h.session.SignOut())
}
