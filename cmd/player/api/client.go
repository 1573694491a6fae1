// Package api is a client for the music-playback server's JSON API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

const (
	SessionHeader   = "X-Session-Id"
	DefaultSeekPath = "/api/set_position"
	AltSeekPath     = "/api/seek"

	maxBodyBytes  = 4 << 20
	maxAudioBytes = 256 << 20
)

var ErrMalformedResponse = errors.New("malformed response")

// StatusError is returned when the server rejects a request, either with a
// non-2xx status or with an explicit failure flag in the body.
type StatusError struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Status)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, e.Message)
}

// Client talks to one playback server. It is safe for concurrent use.
type Client struct {
	base      *url.URL
	http      *http.Client
	sessionID string
	seekPath  string
	userAgent string
	logger    *slog.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client. Its Timeout, if any,
// is the only request deadline the client applies.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithSeekPath(p string) Option {
	return func(c *Client) {
		if p != "" {
			c.seekPath = "/" + strings.TrimPrefix(p, "/")
		}
	}
}

func WithSessionID(id string) Option {
	return func(c *Client) { c.sessionID = id }
}

func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a client for the server at baseURL. A missing scheme defaults to http.
func New(baseURL string, opts ...Option) (*Client, error) {
	raw := strings.TrimSpace(baseURL)
	if raw == "" {
		return nil, errors.New("server url is empty")
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing server url: %w", err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("server url %q has no host", baseURL)
	}
	u.Path = strings.TrimSuffix(u.Path, "/")

	c := &Client{
		base:      u,
		http:      &http.Client{},
		sessionID: uuid.NewString(),
		seekPath:  DefaultSeekPath,
		userAgent: "groove",
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the server root the client was created with.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// SessionID identifies this client session in server logs.
func (c *Client) SessionID() string {
	return c.sessionID
}

// MusicURL returns the playable URL for a song label as reported by the server.
func (c *Client) MusicURL(song string) string {
	return c.endpoint("/api/music/" + url.PathEscape(song))
}

func (c *Client) Genres(ctx context.Context) (Genres, error) {
	payload, err := c.do(ctx, http.MethodGet, "/api/genres", nil)
	if err != nil {
		return nil, err
	}

	fields, err := objectFields(payload)
	if err != nil {
		return nil, fmt.Errorf("decoding genres: %w", err)
	}
	if inner, ok := fields["genres"]; ok {
		if fields, err = objectFields(inner); err != nil {
			return nil, fmt.Errorf("decoding genres: %w", err)
		}
	}

	genres := make(Genres, len(fields))
	for name, raw := range fields {
		var songs []string
		// Metadata other than a list of paths is kept as an empty genre.
		_ = json.Unmarshal(raw, &songs)
		genres[name] = songs
	}
	return genres, nil
}

// Musics returns the server's current playlist, in order.
func (c *Client) Musics(ctx context.Context) (Playlist, error) {
	return c.playlist(ctx, http.MethodGet, "/api/musics", nil)
}

func (c *Client) SelectGenre(ctx context.Context, genre string) (Playlist, error) {
	return c.playlist(ctx, http.MethodPost, "/api/select_genre", map[string]any{"genre": genre})
}

// ResetPlaylist restores the full library on the server.
func (c *Client) ResetPlaylist(ctx context.Context) (Playlist, error) {
	return c.playlist(ctx, http.MethodPost, "/api/reset_playlist", nil)
}

func (c *Client) Play(ctx context.Context, index int) (NowPlaying, error) {
	return c.nowPlaying(ctx, "/api/play", map[string]any{"index": index})
}

func (c *Client) Next(ctx context.Context) (NowPlaying, error) {
	return c.nowPlaying(ctx, "/api/next", nil)
}

func (c *Client) Previous(ctx context.Context) (NowPlaying, error) {
	return c.nowPlaying(ctx, "/api/previous", nil)
}

func (c *Client) Stop(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, "/api/stop", nil)
	return err
}

func (c *Client) Info(ctx context.Context) (TransportSnapshot, error) {
	payload, err := c.do(ctx, http.MethodGet, "/api/info", nil)
	if err != nil {
		return TransportSnapshot{}, err
	}
	var snap TransportSnapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return TransportSnapshot{}, fmt.Errorf("decoding info: %w: %v", ErrMalformedResponse, err)
	}
	return snap, nil
}

// Seek moves playback of the current track to the given second.
func (c *Client) Seek(ctx context.Context, seconds int) (SeekResult, error) {
	payload, err := c.do(ctx, http.MethodPost, c.seekPath, map[string]any{"time": seconds})
	if err != nil {
		return SeekResult{}, err
	}
	var body struct {
		CurrentTime *float64 `json:"current_time"`
		Duration    *float64 `json:"duration"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return SeekResult{}, fmt.Errorf("decoding seek: %w: %v", ErrMalformedResponse, err)
	}

	res := SeekResult{CurrentTime: seconds}
	if body.CurrentTime != nil {
		res.CurrentTime = wholeSeconds(*body.CurrentTime)
		res.Confirmed = true
	}
	if body.Duration != nil {
		res.Duration = wholeSeconds(*body.Duration)
	}
	return res, nil
}

func (c *Client) ToggleShuffle(ctx context.Context) (bool, error) {
	return c.toggle(ctx, "/api/shuffle", "shuffle_status")
}

func (c *Client) ToggleRepeat(ctx context.Context) (bool, error) {
	return c.toggle(ctx, "/api/repeat", "repeat_status")
}

// Download fetches the raw bytes behind a playable URL.
func (c *Client) Download(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	c.decorate(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Method: http.MethodGet, Path: req.URL.Path, Status: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAudioBytes))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", rawURL, err)
	}
	return data, nil
}

func (c *Client) playlist(ctx context.Context, method, path string, in any) (Playlist, error) {
	payload, err := c.do(ctx, method, path, in)
	if err != nil {
		return nil, err
	}
	var body struct {
		Playlist Playlist `json:"playlist"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, fmt.Errorf("decoding playlist: %w: %v", ErrMalformedResponse, err)
	}
	if body.Playlist == nil {
		body.Playlist = Playlist{}
	}
	return body.Playlist, nil
}

func (c *Client) nowPlaying(ctx context.Context, path string, in any) (NowPlaying, error) {
	payload, err := c.do(ctx, http.MethodPost, path, in)
	if err != nil {
		return NowPlaying{}, err
	}
	var np NowPlaying
	if err := json.Unmarshal(payload, &np); err != nil {
		return NowPlaying{}, fmt.Errorf("decoding %s: %w: %v", path, ErrMalformedResponse, err)
	}
	if np.CurrentSong == "" {
		return NowPlaying{}, fmt.Errorf("%s: %w: missing current_song", path, ErrMalformedResponse)
	}
	if np.URL == "" {
		np.URL = c.MusicURL(np.CurrentSong)
	} else if u, err := c.base.Parse(np.URL); err == nil {
		np.URL = u.String()
	}
	return np, nil
}

func (c *Client) toggle(ctx context.Context, path, field string) (bool, error) {
	payload, err := c.do(ctx, http.MethodPost, path, nil)
	if err != nil {
		return false, err
	}
	fields, err := objectFields(payload)
	if err != nil {
		return false, fmt.Errorf("decoding %s: %w", path, err)
	}
	raw, ok := fields[field]
	if !ok {
		return false, fmt.Errorf("%s: %w: missing %s", path, ErrMalformedResponse, field)
	}
	var t Toggle
	if err := json.Unmarshal(raw, &t); err != nil {
		return false, fmt.Errorf("decoding %s: %w", path, err)
	}
	return bool(t), nil
}

// do performs one JSON request and returns the unwrapped response payload.
func (c *Client) do(ctx context.Context, method, path string, in any) (json.RawMessage, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encoding %s request: %w", path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	c.decorate(req)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%s %s: reading response body: %w", method, path, err)
	}

	c.logger.Debug("api call", "method", method, "path", path, "status", resp.StatusCode, "bytes", len(raw))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Method: method, Path: path, Status: resp.StatusCode, Message: errorMessage(raw)}
	}

	payload, failed, err := unwrap(raw)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	if failed {
		return nil, &StatusError{Method: method, Path: path, Status: resp.StatusCode, Message: errorMessage(raw)}
	}
	return payload, nil
}

func (c *Client) decorate(req *http.Request) {
	req.Header.Set("User-Agent", c.userAgent)
	if c.sessionID != "" {
		req.Header.Set(SessionHeader, c.sessionID)
	}
}

func (c *Client) endpoint(path string) string {
	u := *c.base
	u.RawPath = ""
	escaped := strings.TrimSuffix(c.base.EscapedPath(), "/") + path
	if p, err := url.PathUnescape(escaped); err == nil {
		u.Path = p
		u.RawPath = escaped
	}
	return u.String()
}

// unwrap strips the {"data": ...} or {"info": ...} envelope used by
// different server revisions. failed is set when the body carries
// "success": false.
func unwrap(raw []byte) (json.RawMessage, bool, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return json.RawMessage("{}"), false, nil
	}

	fields, err := objectFields(trimmed)
	if err != nil {
		return nil, false, err
	}

	if ok, present := fields["success"]; present && string(ok) == "false" {
		return nil, true, nil
	}

	for _, key := range []string{"data", "info"} {
		if inner, ok := fields[key]; ok && isObject(inner) {
			return inner, false, nil
		}
	}
	return trimmed, false, nil
}

func objectFields(raw []byte) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if fields == nil {
		return nil, fmt.Errorf("%w: expected a JSON object", ErrMalformedResponse)
	}
	return fields, nil
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

func errorMessage(raw []byte) string {
	var body struct {
		Error   string `json:"error"`
		Details string `json:"details"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return strings.TrimSpace(string(raw))
	}
	switch {
	case body.Error != "" && body.Details != "":
		return body.Error + ": " + body.Details
	case body.Error != "":
		return body.Error
	default:
		return body.Message
	}
}
