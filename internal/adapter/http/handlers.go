package http

import (
	"net/http"
	"time"

	"github.com/Strob0t/technews/internal/service"
)

const maxRequestBodySize = 64 << 10 // 64 KB

// Handlers holds the services behind the HTTP API.
type Handlers struct {
	News    *service.NewsService
	Images  *service.ImageService
	Contact *service.ContactService
	Now     func() time.Time // nil = time.Now
}

func (h *Handlers) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// Health reports liveness. It never touches the upstream API.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Timestamp: h.now().UTC().Format(time.RFC3339),
	})
}
