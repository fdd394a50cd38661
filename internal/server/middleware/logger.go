// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch

// Package middleware holds HTTP middleware shared by the CleanDoc server.
package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/cleandoc/internal/logger"
)

// RequestIDHeader carries the per-request correlation ID in responses.
const RequestIDHeader = "X-Request-ID"

// TrafficLogger creates a middleware that logs HTTP request entry and
// exit, tagging each request with a correlation ID.
func TrafficLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set(RequestIDHeader, requestID)

		logger.Printf("[HTTP] -> %s %s %s (id=%s)", r.Method, r.URL.Path, r.RemoteAddr, requestID)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start)

		logger.Printf("[HTTP] <- %d (%s) %s %s (id=%s)", rw.statusCode, duration, r.Method, r.URL.Path, requestID)
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
