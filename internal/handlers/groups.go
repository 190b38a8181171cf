package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/AnshRaj112/cleersplit-backend/internal/groups"
	"github.com/AnshRaj112/cleersplit-backend/pkg/utils"
)

type GroupDraftResponse struct {
	Success bool          `json:"success"`
	Group   GroupPreview  `json:"group"`
	Invite  groups.Invite `json:"invite"`
}

type GroupPreview struct {
	groups.Draft
	Label string `json:"label"`
	Slug  string `json:"slug"`
}

// CreateGroupDraft validates a group draft and returns its slug and a
// shareable invite.
func (h *Handler) CreateGroupDraft(w http.ResponseWriter, r *http.Request) {
	var draft groups.Draft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := draft.Validate(); err != nil {
		var verrs utils.ValidationErrors
		if errors.As(err, &verrs) {
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
				Success: false,
				Message: "Invalid group details",
				Errors:  verrs,
			})
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	draft = draft.Normalize()

	invite, err := groups.NewInvite(h.inviteBaseURL)
	if err != nil {
		h.logger.Error("failed to create invite", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to create invite")
		return
	}
	invite.Message = groups.InviteMessage(draft.Name, invite.URL)

	writeJSON(w, http.StatusOK, GroupDraftResponse{
		Success: true,
		Group: GroupPreview{
			Draft: draft,
			Label: draft.Label(),
			Slug:  groups.Slug(draft.Name),
		},
		Invite: invite,
	})
}
