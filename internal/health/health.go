package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// Pinger is anything readiness depends on: the store, redis.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RegisterRoutes mounts /healthz (liveness) and /readyz, which pings every
// dependency under a short timeout.
func RegisterRoutes(r *mux.Router, deps map[string]Pinger) {
	r.HandleFunc("/healthz", liveness).Methods(http.MethodGet)
	r.HandleFunc("/readyz", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()
		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				http.Error(w, name+" unreachable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	}).Methods(http.MethodGet)
}

func liveness(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}
