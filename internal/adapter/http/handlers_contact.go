package http

import (
	"errors"
	"net/http"

	"github.com/Strob0t/technews/internal/domain/contact"
	"github.com/Strob0t/technews/internal/service"
)

// SubmitContact handles POST /api/contact.
func (h *Handlers) SubmitContact(w http.ResponseWriter, r *http.Request) {
	msg, ok := readJSON[contact.Message](w, r, maxRequestBodySize)
	if !ok {
		return
	}

	if err := h.Contact.Submit(r.Context(), msg); err != nil {
		if errors.Is(err, service.ErrSendFailed) {
			writeError(w, http.StatusInternalServerError, contactErrors.failed)
			return
		}
		writeDomainError(w, r, err, contactErrors)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "message sent successfully"})
}
