package handlers

import (
	"net/http"

	"github.com/AnshRaj112/cleersplit-backend/internal/theme"
)

type ColorResponse struct {
	Success bool        `json:"success"`
	Input   string      `json:"input"`
	Hex     string      `json:"hex"`
	Color   theme.Color `json:"color"`
}

// GetColor parses the hex query parameter the way the client does.
func (h *Handler) GetColor(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if !q.Has("hex") {
		writeError(w, http.StatusBadRequest, "hex query parameter is required")
		return
	}
	in := q.Get("hex")
	c := theme.ParseHex(in)
	writeJSON(w, http.StatusOK, ColorResponse{
		Success: true,
		Input:   in,
		Hex:     c.Hex(),
		Color:   c,
	})
}

// GetPalette returns the brand colors.
func (h *Handler) GetPalette(w http.ResponseWriter, r *http.Request) {
	palette := make(map[string]string)
	for name, c := range theme.Palette() {
		palette[name] = c.Hex()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"palette": palette,
	})
}
