package middleware

import (
	"log"
	"net/http"
	"time"

	"github.com/didip/tollbooth/v7"
)

// statusRecorder captures the response status for the request log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Logging logs every request with its status and duration.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Printf("%s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}

// RateLimit limits requests per second per client.
func RateLimit(rps float64) func(http.Handler) http.Handler {
	limiter := tollbooth.NewLimiter(rps, nil)
	return func(next http.Handler) http.Handler {
		return tollbooth.LimitHandler(limiter, next)
	}
}
