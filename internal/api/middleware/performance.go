package middleware

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strings"
	"sync"
)

// Compression gzips JSON and text bodies. Place photos are already compressed
// and go out untouched, as do event streams.
func Compression(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") || isEventStream(r) {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Add("Vary", "Accept-Encoding")
		gzw := &gzipResponseWriter{ResponseWriter: w}
		defer gzw.finish()
		next.ServeHTTP(gzw, r)
	})
}

var gzipWriterPool = sync.Pool{
	New: func() interface{} {
		gz, _ := gzip.NewWriterLevel(io.Discard, gzip.DefaultCompression)
		return gz
	},
}

// gzipResponseWriter decides on compression when the header is written, once
// the handler has set a Content-Type.
type gzipResponseWriter struct {
	http.ResponseWriter
	gz          *gzip.Writer
	wroteHeader bool
}

func (w *gzipResponseWriter) WriteHeader(statusCode int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true

	if statusCode != http.StatusNoContent && statusCode != http.StatusNotModified && compressible(w.Header().Get("Content-Type")) {
		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Del("Content-Length")
		w.gz = gzipWriterPool.Get().(*gzip.Writer)
		w.gz.Reset(w.ResponseWriter)
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *gzipResponseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", http.DetectContentType(b))
		}
		w.WriteHeader(http.StatusOK)
	}
	if w.gz != nil {
		return w.gz.Write(b)
	}
	return w.ResponseWriter.Write(b)
}

func (w *gzipResponseWriter) finish() {
	if w.gz == nil {
		return
	}
	_ = w.gz.Close()
	gzipWriterPool.Put(w.gz)
	w.gz = nil
}

func compressible(contentType string) bool {
	return strings.HasPrefix(contentType, "application/json") || strings.HasPrefix(contentType, "text/")
}

// ETag answers conditional GETs with 304 when the body hash matches
// If-None-Match. Only 200 responses carry an ETag.
func ETag(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if (r.Method != http.MethodGet && r.Method != http.MethodHead) || isEventStream(r) {
			next.ServeHTTP(w, r)
			return
		}

		rec := &etagResponseRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rec, r)

		if rec.statusCode != http.StatusOK {
			w.WriteHeader(rec.statusCode)
			_, _ = w.Write(rec.buffer.Bytes())
			return
		}

		hash := sha256.Sum256(rec.buffer.Bytes())
		etag := `"` + hex.EncodeToString(hash[:16]) + `"`
		w.Header().Set("ETag", etag)
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(rec.buffer.Bytes())
	})
}

type etagResponseRecorder struct {
	http.ResponseWriter
	buffer     bytes.Buffer
	statusCode int
}

func (r *etagResponseRecorder) Write(b []byte) (int, error) {
	return r.buffer.Write(b)
}

func (r *etagResponseRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
}

type cachePolicy struct {
	prefix    string
	directive string
}

// cachePolicies is matched in order; the first prefix wins.
var cachePolicies = []cachePolicy{
	{prefix: "/api/places/photo", directive: "public, max-age=86400"},
	{prefix: "/api/geocode", directive: "public, max-age=3600, must-revalidate"},
	{prefix: "/api/medication-sessions", directive: "no-store"},
	{prefix: "/api/analyses", directive: "private, no-cache, must-revalidate"},
}

const defaultCacheDirective = "private, no-cache, must-revalidate"

// CacheControl sets Cache-Control from cachePolicies. Session state changes
// between requests and is never stored.
func CacheControl(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		directive := defaultCacheDirective
		for _, policy := range cachePolicies {
			if strings.HasPrefix(r.URL.Path, policy.prefix) {
				directive = policy.directive
				break
			}
		}
		w.Header().Set("Cache-Control", directive)
		next.ServeHTTP(w, r)
	})
}

// isEventStream reports whether the client asked for server-sent events,
// which must be flushed as written.
func isEventStream(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/event-stream") || strings.HasSuffix(r.URL.Path, "/events")
}

// ResponseOptimization chains CacheControl, ETag and Compression.
func ResponseOptimization(next http.Handler) http.Handler {
	return CacheControl(ETag(Compression(next)))
}
