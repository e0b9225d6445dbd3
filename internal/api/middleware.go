package api

import (
	"context"
	"net/http"
	"time"

	"github.com/azure/mentions-dashboard/internal/metrics"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type contextKey string

const requestIDKey contextKey = "requestID"

// RequestIDHeader carries the request id in both directions
const RequestIDHeader = "X-Request-ID"

// statusRecorder captures the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.wroteHeader {
		return
	}
	r.status = code
	r.wroteHeader = true
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if !r.wroteHeader {
		r.WriteHeader(http.StatusOK)
	}
	return r.ResponseWriter.Write(b)
}

func recorderFor(w http.ResponseWriter) *statusRecorder {
	if rec, ok := w.(*statusRecorder); ok {
		return rec
	}
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK}
}

// requestID reuses the caller's X-Request-ID or assigns a new one
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := recorderFor(w)
		next.ServeHTTP(rec, r)

		logrus.WithFields(logrus.Fields{
			"requestId": requestIDFrom(r.Context()),
			"method":    r.Method,
			"path":      r.URL.Path,
			"status":    rec.status,
			"duration":  time.Since(start).String(),
		}).Info("Handled request")
	})
}

// observeRequest counts requests by route template so ids do not explode cardinality
func observeRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorderFor(w)
		next.ServeHTTP(rec, r)

		route := "unknown"
		if current := mux.CurrentRoute(r); current != nil {
			if tpl, err := current.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		metrics.ObserveRequest(route, r.Method, rec.status)
	})
}

// recoverPanic answers 500 unless the handler already started its response
func recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorderFor(w)
		defer func() {
			if p := recover(); p != nil {
				logrus.Errorf("Panic while handling %s %s: %v", r.Method, r.URL.Path, p)
				if !rec.wroteHeader {
					writeMessage(rec, http.StatusInternalServerError, "internal server error")
				}
			}
		}()
		next.ServeHTTP(rec, r)
	})
}
