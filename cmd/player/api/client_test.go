package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	Method    string
	Path      string
	Body      map[string]any
	SessionID string
	UserAgent string
}

type fakeServer struct {
	mu    sync.Mutex
	calls []recorded
}

func (f *fakeServer) record(r *http.Request) {
	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, recorded{
		Method:    r.Method,
		Path:      r.URL.EscapedPath(),
		Body:      body,
		SessionID: r.Header.Get(SessionHeader),
		UserAgent: r.Header.Get("User-Agent"),
	})
}

func (f *fakeServer) last() recorded {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func reply(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func newTestClient(t *testing.T, routes func(r chi.Router, f *fakeServer), opts ...Option) (*Client, *fakeServer) {
	t.Helper()
	f := &fakeServer{}
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			f.record(req)
			next.ServeHTTP(w, req)
		})
	})
	routes(r, f)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, append([]Option{WithSessionID("session-1"), WithUserAgent("groove/test")}, opts...)...)
	require.NoError(t, err)
	return c, f
}

func TestNew_RejectsEmptyAndAddsScheme(t *testing.T) {
	_, err := New("  ")
	assert.Error(t, err)

	c, err := New("localhost:5000/")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5000", c.BaseURL())
	assert.NotEmpty(t, c.SessionID())
}

func TestGenres_Envelopes(t *testing.T) {
	bodies := map[string]string{
		"named":   `{"genres": {"rock": ["songs/rock/a.mp3"], "jazz": []}}`,
		"data":    `{"data": {"rock": ["songs/rock/a.mp3"], "jazz": []}}`,
		"wrapped": `{"data": {"genres": {"rock": ["songs/rock/a.mp3"], "jazz": []}}}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			c, _ := newTestClient(t, func(r chi.Router, _ *fakeServer) {
				r.Get("/api/genres", func(w http.ResponseWriter, _ *http.Request) { reply(w, 200, body) })
			})
			genres, err := c.Genres(context.Background())
			require.NoError(t, err)
			assert.Equal(t, []string{"jazz", "rock"}, genres.Names())
			assert.Equal(t, []string{"songs/rock/a.mp3"}, genres["rock"])
		})
	}
}

func TestSelectGenre_SendsGenreAndDecodesPlaylist(t *testing.T) {
	c, f := newTestClient(t, func(r chi.Router, _ *fakeServer) {
		r.Post("/api/select_genre", func(w http.ResponseWriter, _ *http.Request) {
			reply(w, 200, `{"status": "ok", "playlist": ["songs/rock/a.mp3", "songs/rock/b.mp3"]}`)
		})
	})

	pl, err := c.SelectGenre(context.Background(), "rock")
	require.NoError(t, err)
	assert.Equal(t, Playlist{"songs/rock/a.mp3", "songs/rock/b.mp3"}, pl)

	call := f.last()
	assert.Equal(t, http.MethodPost, call.Method)
	assert.Equal(t, "rock", call.Body["genre"])
	assert.Equal(t, "session-1", call.SessionID)
	assert.Equal(t, "groove/test", call.UserAgent)
}

func TestSelectGenre_EmptyPlaylistIsNotNil(t *testing.T) {
	c, _ := newTestClient(t, func(r chi.Router, _ *fakeServer) {
		r.Post("/api/select_genre", func(w http.ResponseWriter, _ *http.Request) {
			reply(w, 200, `{"data": {"playlist": []}}`)
		})
	})

	pl, err := c.SelectGenre(context.Background(), "jazz")
	require.NoError(t, err)
	assert.NotNil(t, pl)
	assert.Empty(t, pl)
}

func TestPlay_DerivesPlayableURL(t *testing.T) {
	c, f := newTestClient(t, func(r chi.Router, _ *fakeServer) {
		r.Post("/api/play", func(w http.ResponseWriter, _ *http.Request) {
			reply(w, 200, `{"data": {"current_song": "my song/1.mp3"}}`)
		})
	})

	np, err := c.Play(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "my song/1.mp3", np.CurrentSong)
	assert.Equal(t, c.BaseURL()+"/api/music/my%20song%2F1.mp3", np.URL)
	assert.EqualValues(t, 2, f.last().Body["index"])
}

func TestPlay_ResolvesRelativeURL(t *testing.T) {
	c, _ := newTestClient(t, func(r chi.Router, _ *fakeServer) {
		r.Post("/api/next", func(w http.ResponseWriter, _ *http.Request) {
			reply(w, 200, `{"current_song": "b.mp3", "url": "/media/b.mp3", "index": 1}`)
		})
	})

	np, err := c.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, c.BaseURL()+"/media/b.mp3", np.URL)
	require.NotNil(t, np.Index)
	assert.Equal(t, 1, *np.Index)
}

func TestPlay_MissingSongIsMalformed(t *testing.T) {
	c, _ := newTestClient(t, func(r chi.Router, _ *fakeServer) {
		r.Post("/api/previous", func(w http.ResponseWriter, _ *http.Request) { reply(w, 200, `{"status": "playing"}`) })
	})

	_, err := c.Previous(context.Background())
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestStatusError(t *testing.T) {
	c, _ := newTestClient(t, func(r chi.Router, _ *fakeServer) {
		r.Post("/api/play", func(w http.ResponseWriter, _ *http.Request) {
			reply(w, 400, `{"error": "Índice inválido ou fora dos limites."}`)
		})
	})

	_, err := c.Play(context.Background(), 99)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 400, se.Status)
	assert.Equal(t, "/api/play", se.Path)
	assert.Contains(t, se.Error(), "Índice inválido")
}

func TestSuccessFalseIsAnError(t *testing.T) {
	c, _ := newTestClient(t, func(r chi.Router, _ *fakeServer) {
		r.Post("/api/set_position", func(w http.ResponseWriter, _ *http.Request) {
			reply(w, 200, `{"success": false, "error": "Tempo inválido."}`)
		})
	})

	_, err := c.Seek(context.Background(), 10)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "Tempo inválido.", se.Message)
}

func TestMalformedBody(t *testing.T) {
	c, _ := newTestClient(t, func(r chi.Router, _ *fakeServer) {
		r.Get("/api/info", func(w http.ResponseWriter, _ *http.Request) { reply(w, 200, `<html>oops</html>`) })
	})

	_, err := c.Info(context.Background())
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestInfo_Envelopes(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		active bool
		played int
		length int
	}{
		{"info envelope", `{"info": {"current_song": "a.mp3", "time_played": 65, "duration": 200}}`, true, 65, 200},
		{"data envelope", `{"data": {"current_song": "a.mp3", "time_played": 12.7, "duration": 30.2}}`, true, 12, 30},
		{"idle label", `{"info": {"current_song": "Nenhuma música tocando", "time_played": 0, "duration": 0}}`, false, 0, 0},
		{"error payload", `{"info": {"error": "Nenhuma música está tocando."}}`, false, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(r chi.Router, _ *fakeServer) {
				r.Get("/api/info", func(w http.ResponseWriter, _ *http.Request) { reply(w, 200, tt.body) })
			})
			snap, err := c.Info(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.active, snap.Active())
			assert.Equal(t, tt.played, snap.Elapsed())
			assert.Equal(t, tt.length, snap.Length())
		})
	}
}

func TestSeek_ConfirmedAndAckOnly(t *testing.T) {
	c, f := newTestClient(t, func(r chi.Router, _ *fakeServer) {
		r.Post("/api/set_position", func(w http.ResponseWriter, _ *http.Request) {
			reply(w, 200, `{"success": true, "current_time": 41, "duration": 180}`)
		})
		r.Post("/api/seek", func(w http.ResponseWriter, _ *http.Request) {
			reply(w, 200, `{"status": "success"}`)
		})
	})

	res, err := c.Seek(context.Background(), 40)
	require.NoError(t, err)
	assert.Equal(t, SeekResult{CurrentTime: 41, Duration: 180, Confirmed: true}, res)
	assert.EqualValues(t, 40, f.last().Body["time"])

	alt, err := New(c.BaseURL(), WithSeekPath("api/seek"))
	require.NoError(t, err)
	res, err = alt.Seek(context.Background(), 40)
	require.NoError(t, err)
	assert.Equal(t, SeekResult{CurrentTime: 40}, res)
	assert.Equal(t, "/api/seek", f.last().Path)
}

func TestToggles(t *testing.T) {
	c, _ := newTestClient(t, func(r chi.Router, _ *fakeServer) {
		r.Post("/api/shuffle", func(w http.ResponseWriter, _ *http.Request) {
			reply(w, 200, `{"data": {"shuffle_status": true}}`)
		})
		r.Post("/api/repeat", func(w http.ResponseWriter, _ *http.Request) {
			reply(w, 200, `{"status": "success", "repeat_status": "desativado"}`)
		})
	})

	on, err := c.ToggleShuffle(context.Background())
	require.NoError(t, err)
	assert.True(t, on)

	on, err = c.ToggleRepeat(context.Background())
	require.NoError(t, err)
	assert.False(t, on)
}

func TestToggle_UnknownWord(t *testing.T) {
	var tg Toggle
	assert.NoError(t, json.Unmarshal([]byte(`"ativado"`), &tg))
	assert.True(t, bool(tg))
	assert.ErrorIs(t, json.Unmarshal([]byte(`"maybe"`), &tg), ErrMalformedResponse)
}

func TestStop_EmptyBodyIsFine(t *testing.T) {
	c, f := newTestClient(t, func(r chi.Router, _ *fakeServer) {
		r.Post("/api/stop", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	})

	require.NoError(t, c.Stop(context.Background()))
	assert.Equal(t, "/api/stop", f.last().Path)
}

func TestDownload(t *testing.T) {
	c, _ := newTestClient(t, func(r chi.Router, _ *fakeServer) {
		r.Get("/api/music/{name}", func(w http.ResponseWriter, r *http.Request) {
			if chi.URLParam(r, "name") != "a.mp3" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			_, _ = w.Write([]byte("ID3-bytes"))
		})
	})

	data, err := c.Download(context.Background(), c.MusicURL("a.mp3"))
	require.NoError(t, err)
	assert.Equal(t, "ID3-bytes", string(data))

	_, err = c.Download(context.Background(), c.MusicURL("missing.mp3"))
	var se *StatusError
	assert.True(t, errors.As(err, &se))
}

func TestTransportFailureIsWrapped(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)
	_, err = c.Info(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GET /api/info")
}
