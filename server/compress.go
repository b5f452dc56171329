package server

import (
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
)

// brotliMiddleware compresses responses for clients that accept br.
func (s *Server) brotliMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "br") || r.Header.Get("Range") != "" {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("Content-Encoding", "br")
		w.Header().Del("Content-Length")
		w.Header().Add("Vary", "Accept-Encoding")

		bw := &brotliResponseWriter{
			ResponseWriter: w,
			writer:         brotli.NewWriterLevel(w, s.config.brotliLevel),
		}
		defer bw.Close()

		next.ServeHTTP(bw, r)
	})
}

type brotliResponseWriter struct {
	http.ResponseWriter
	writer *brotli.Writer
}

func (w *brotliResponseWriter) WriteHeader(code int) {
	w.ResponseWriter.Header().Del("Content-Length")
	w.ResponseWriter.WriteHeader(code)
}

func (w *brotliResponseWriter) Write(p []byte) (int, error) {
	return w.writer.Write(p)
}

func (w *brotliResponseWriter) Close() error {
	return w.writer.Close()
}

func (w *brotliResponseWriter) Flush() {
	_ = w.writer.Flush()
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
