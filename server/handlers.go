package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/novbytes/sputil/debug"
	"github.com/novbytes/sputil/safemap"
	"github.com/novbytes/sputil/timeutil"
)

const (
	contentTypeJSON    = "application/json"
	contentTypeMsgpack = "application/msgpack"
)

// Health is the body of GET /health.
type Health struct {
	Status     string         `json:"status" msgpack:"status"`
	Timestamp  time.Time      `json:"timestamp" msgpack:"timestamp"`
	Uptime     string         `json:"uptime" msgpack:"uptime"`
	Goroutines int            `json:"goroutines" msgpack:"goroutines"`
	Memory     Memory         `json:"memory" msgpack:"memory"`
	Components map[string]any `json:"components" msgpack:"components"`
}

type Memory struct {
	Alloc      string `json:"alloc" msgpack:"alloc"`
	TotalAlloc string `json:"totalAlloc" msgpack:"totalAlloc"`
	Sys        string `json:"sys" msgpack:"sys"`
	NumGC      uint32 `json:"numGC" msgpack:"numGC"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	s.write(w, r, http.StatusOK, Health{
		Status:     "OK",
		Timestamp:  time.Now().UTC(),
		Uptime:     s.uptime().Round(time.Second).String(),
		Goroutines: runtime.NumGoroutine(),
		Memory: Memory{
			Alloc:      debug.FormatSize(m.Alloc),
			TotalAlloc: debug.FormatSize(m.TotalAlloc),
			Sys:        debug.FormatSize(m.Sys),
			NumGC:      m.NumGC,
		},
		Components: s.collectStats(),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.write(w, r, http.StatusOK, s.collectStats())
}

func (s *Server) handleComponentStats(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "component")

	stats, ok := s.components.Get(name)
	if !ok {
		http.Error(w, "unknown component "+name, http.StatusNotFound)
		return
	}

	s.write(w, r, http.StatusOK, stats())
}

// handleGoroutines serves a filtered goroutine dump. Query parameters map
// to debug.FilterConfig: include, exclude and state may repeat,
// min_wait takes a duration such as 5m.
func (s *Server) handleGoroutines(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	cfg := debug.FilterConfig{
		IncludePatterns: q["include"],
		ExcludePatterns: q["exclude"],
		States:          q["state"],
	}

	if v := q.Get("min_wait"); v != "" {
		d, err := timeutil.ParseDuration(v)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		cfg.MinDuration = d
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(debug.GoroutineDump(cfg)))
}

func (s *Server) collectStats() map[string]any {
	out := make(map[string]any, s.components.Len())
	for _, name := range safemap.SortedKeys(s.components) {
		if stats, ok := s.components.Get(name); ok {
			out[name] = stats()
		}
	}

	return out
}

// write encodes v as msgpack when the client accepts it, JSON otherwise.
func (s *Server) write(w http.ResponseWriter, r *http.Request, status int, v any) {
	if strings.Contains(r.Header.Get("Accept"), "msgpack") {
		body, err := msgpack.Marshal(v)
		if err != nil {
			s.logger.Error("encode msgpack response", slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", contentTypeMsgpack)
		w.WriteHeader(status)
		_, _ = w.Write(body)
		return
	}

	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("encode JSON response", slog.Any("error", err))
	}
}
