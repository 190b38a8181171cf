package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/AnshRaj112/cleersplit-backend/internal/avatar"
	"github.com/AnshRaj112/cleersplit-backend/internal/profile"
)

type ProfileResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Profile profile.Profile `json:"profile"`
	Token   uint64          `json:"token,omitempty"`
}

// multipartOverhead covers form boundaries and headers around the file part.
const multipartOverhead = 1 << 20

// GetProfile returns the current profile.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ProfileResponse{Success: true, Profile: h.store.Snapshot()})
}

// UploadAvatar takes a multipart upload (field "file") as the user's photo
// selection and runs it through the avatar loader.
func (h *Handler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+multipartOverhead)
	if err := r.ParseMultipartForm(h.maxUpload + multipartOverhead); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, "Image is too large")
			return
		}
		writeError(w, http.StatusBadRequest, "Failed to parse form: "+err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	src := avatar.SourceFunc(func(ctx context.Context) ([]byte, error) {
		// one extra byte lets the loader detect oversize files
		return io.ReadAll(io.LimitReader(file, h.maxUpload+1))
	})

	res := h.loader.Load(r.Context(), src)
	switch res.Status {
	case avatar.StatusSuccess:
		writeJSON(w, http.StatusOK, ProfileResponse{
			Success: true,
			Message: "Avatar updated",
			Profile: h.store.Snapshot(),
			Token:   res.Token,
		})
	case avatar.StatusCancelled:
		writeJSON(w, http.StatusConflict, ProfileResponse{
			Success: false,
			Message: "Avatar selection was superseded or cancelled",
			Profile: h.store.Snapshot(),
			Token:   res.Token,
		})
	default:
		status := http.StatusBadGateway
		switch {
		case errors.Is(res.Err, avatar.ErrTooLarge):
			status = http.StatusRequestEntityTooLarge
		case errors.Is(res.Err, avatar.ErrDecode):
			status = http.StatusUnsupportedMediaType
		}
		h.logger.Warn("avatar upload rejected", zap.Int("status", status), zap.Error(res.Err))
		writeError(w, status, fmt.Sprintf("Failed to update avatar: %v", res.Err))
	}
}

// DeleteAvatar clears the avatar and supersedes any load still in flight.
func (h *Handler) DeleteAvatar(w http.ResponseWriter, r *http.Request) {
	h.loader.Invalidate()
	writeJSON(w, http.StatusOK, ProfileResponse{
		Success: true,
		Message: "Avatar removed",
		Profile: h.store.SetAvatar(nil),
	})
}
