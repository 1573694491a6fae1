// Package apitest serves an in-memory playback server over HTTP for tests.
package apitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path"
	"slices"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
)

// IdleLabel is what /api/info reports when nothing plays.
const IdleLabel = "No song playing"

// Server mimics the playback server's JSON API. Tracks are stored as paths;
// labels on the wire are base names.
type Server struct {
	mu       sync.Mutex
	library  []string
	genres   map[string][]string
	playlist []string
	current  int
	elapsed  float64
	duration float64
	shuffle  bool
	repeat   bool
	requests []string
}

func New(genres map[string][]string) *Server {
	s := &Server{genres: genres, current: -1}
	for _, name := range sortedKeys(genres) {
		s.library = append(s.library, genres[name]...)
	}
	s.playlist = slices.Clone(s.library)
	return s
}

// Start serves s until the test ends and returns its base URL.
func (s *Server) Start(t testing.TB) string {
	t.Helper()
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv.URL
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record)
	r.Route("/api", func(r chi.Router) {
		r.Get("/genres", s.handleGenres)
		r.Get("/musics", s.handleMusics)
		r.Post("/select_genre", s.handleSelectGenre)
		r.Post("/reset_playlist", s.handleReset)
		r.Post("/play", s.handlePlay)
		r.Post("/next", s.handleStep(1))
		r.Post("/previous", s.handleStep(-1))
		r.Post("/stop", s.handleStop)
		r.Get("/info", s.handleInfo)
		r.Post("/set_position", s.handleSeek)
		r.Post("/shuffle", s.handleToggle(&s.shuffle, "shuffle_status"))
		r.Post("/repeat", s.handleToggle(&s.repeat, "repeat_status"))
		r.Get("/music/{name}", s.handleMusic)
	})
	return r
}

// SetProgress sets what /api/info reports for the current track.
func (s *Server) SetProgress(elapsed, duration float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.elapsed, s.duration = elapsed, duration
}

// Current is the playing playlist index, or -1.
func (s *Server) Current() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Requests lists "METHOD /path" for every request served so far.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.requests)
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, r.Method+" "+r.URL.Path)
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleGenres(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"genres": s.genres})
}

func (s *Server) handleMusics(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"playlist": s.playlist})
}

func (s *Server) handleSelectGenre(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Genre string `json:"genre"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body", err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	songs, ok := s.genres[body.Genre]
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid genre", body.Genre)
		return
	}
	s.playlist = slices.Clone(songs)
	s.current = -1
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "playlist": s.playlist})
}

func (s *Server) handleReset(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playlist = slices.Clone(s.library)
	s.current = -1
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "playlist": s.playlist})
}

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Index int `json:"index"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body", err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if body.Index < 0 || body.Index >= len(s.playlist) {
		writeError(w, http.StatusBadRequest, "Invalid index", "")
		return
	}
	s.startLocked(body.Index)
	writeJSON(w, http.StatusOK, s.nowPlayingLocked())
}

func (s *Server) handleStep(delta int) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		n := len(s.playlist)
		if n == 0 {
			writeError(w, http.StatusBadRequest, "Playlist is empty", "")
			return
		}
		next := 0
		if s.current >= 0 {
			next = ((s.current+delta)%n + n) % n
		}
		s.startLocked(next)
		writeJSON(w, http.StatusOK, s.nowPlayingLocked())
	}
}

func (s *Server) handleStop(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = -1
	s.elapsed, s.duration = 0, 0
	writeJSON(w, http.StatusOK, map[string]any{"status": "stopped"})
}

func (s *Server) handleInfo(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current < 0 {
		writeJSON(w, http.StatusOK, map[string]any{"current_song": IdleLabel, "time_played": 0, "duration": 0})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"current_song": path.Base(s.playlist[s.current]),
		"full_path":    s.playlist[s.current],
		"time_played":  s.elapsed,
		"duration":     s.duration,
	})
}

func (s *Server) handleSeek(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Time float64 `json:"time"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "No song playing"})
		return
	}
	s.elapsed = min(max(body.Time, 0), s.duration)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "current_time": s.elapsed, "duration": s.duration})
}

func (s *Server) handleToggle(flag *bool, field string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		*flag = !*flag
		status := "desativado"
		if *flag {
			status = "ativado"
		}
		writeJSON(w, http.StatusOK, map[string]any{field: status})
	}
}

func (s *Server) handleMusic(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.library {
		if path.Base(p) == name {
			w.Header().Set("Content-Type", "audio/mpeg")
			_, _ = w.Write([]byte("fake audio for " + name))
			return
		}
	}
	writeError(w, http.StatusNotFound, "Music not found", name)
}

func (s *Server) startLocked(i int) {
	s.current = i
	s.elapsed = 0
}

func (s *Server) nowPlayingLocked() map[string]any {
	return map[string]any{
		"current_song": path.Base(s.playlist[s.current]),
		"index":        s.current,
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg, details string) {
	body := map[string]any{"error": msg}
	if details != "" {
		body["details"] = details
	}
	writeJSON(w, status, body)
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
