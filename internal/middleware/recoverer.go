package middleware

import (
	"net/http"
	"runtime/debug"

	"vault/internal/logs"
	"vault/internal/models"
)

// Recoverer turns a handler panic into a logged, reported 500 problem.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				reqid := GetRequestID(r)
				logs.Logger.Errorf("panic: %v reqid=%s uri=%s method=%s\nstack:\n%s",
					rec, reqid, r.URL.Path, r.Method, string(debug.Stack()))
				logs.CapturePanic(rec, map[string]string{"reqid": reqid, "route": r.URL.Path})
				models.WriteProblem(w, http.StatusInternalServerError,
					"Internal Server Error",
					"unexpected server error (see logs by reqid)", map[string]any{
						"reqid": reqid,
					})
			}
		}()
		next.ServeHTTP(w, r)
	})
}
