package http

import (
	"net/http"

	"github.com/Strob0t/technews/internal/domain/profile"
)

// GetProfile handles GET /api/profile with the fixed demo account.
func (h *Handlers) GetProfile(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, profile.Demo(h.now()))
}

type profileUpdateResponse struct {
	Message string          `json:"message"`
	Profile profile.Profile `json:"profile"`
}

// UpdateProfile handles PUT /api/profile. The update is validated and echoed
// back; nothing is stored.
func (h *Handlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[profile.UpdateRequest](w, r, maxRequestBodySize)
	if !ok {
		return
	}
	p, err := profile.Apply(req, h.now())
	if err != nil {
		writeDomainError(w, r, err, errorText{failed: "failed to update profile"})
		return
	}
	writeJSON(w, http.StatusOK, profileUpdateResponse{Message: "profile updated successfully", Profile: p})
}
