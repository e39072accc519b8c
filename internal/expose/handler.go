package expose

import (
	"net/http"

	"github.com/prometheus/common/expfmt"

	"github.com/gaugefetch/gaugefetch/internal/metric"
)

// Handler serves the exposition document. Every GET renders the store's
// current state synchronously and always answers 200 — scrape failures never
// surface here, the endpoint returns the best available (possibly stale) data.
type Handler struct {
	store *metric.Store
}

// NewHandler creates a Handler reading from st.
func NewHandler(st *metric.Store) *Handler {
	return &Handler{store: st}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", string(expfmt.NewFormat(expfmt.TypeTextPlain)))
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write(Render(h.store))
}
