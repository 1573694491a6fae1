package audio

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOutput struct {
	mu     sync.Mutex
	played [][]byte
	seeks  []time.Duration
	stops  int
	err    error
}

func (o *fakeOutput) play(data []byte, _ Format) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err != nil {
		return o.err
	}
	o.played = append(o.played, data)
	return nil
}

func (o *fakeOutput) seek(d time.Duration) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.seeks = append(o.seeks, d)
	return nil
}

func (o *fakeOutput) stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stops++
}

// gatedFetcher blocks each download until its gate is released.
type gatedFetcher struct {
	mu    sync.Mutex
	gates map[string]chan struct{}
	err   error
}

func (f *gatedFetcher) gate(url string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gates == nil {
		f.gates = map[string]chan struct{}{}
	}
	if _, ok := f.gates[url]; !ok {
		f.gates[url] = make(chan struct{})
	}
	return f.gates[url]
}

func (f *gatedFetcher) Download(ctx context.Context, url string) ([]byte, error) {
	select {
	case <-f.gate(url):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	return []byte(url), nil
}

type instantFetcher struct{}

func (instantFetcher) Download(_ context.Context, url string) ([]byte, error) {
	return []byte(url), nil
}

func TestFormatOf(t *testing.T) {
	tests := []struct {
		url     string
		want    Format
		wantErr bool
	}{
		{url: "http://h/api/music/a.mp3", want: FormatMP3},
		{url: "http://h/api/music/B.MP3?x=1", want: FormatMP3},
		{url: "http://h/api/music/a%20b.wav", want: FormatWAV},
		{url: "http://h/api/music/a.ogg", wantErr: true},
		{url: "http://h/api/music/noext", wantErr: true},
	}
	for _, tt := range tests {
		got, err := FormatOf(tt.url)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrUnsupportedFormat, tt.url)
			continue
		}
		require.NoError(t, err, tt.url)
		assert.Equal(t, tt.want, got, tt.url)
	}
}

func TestPlayer_PlayAndSeek(t *testing.T) {
	out := &fakeOutput{}
	p := newPlayer(instantFetcher{}, out, nil)

	require.NoError(t, p.Play(context.Background(), "http://h/a.mp3"))
	require.NoError(t, p.Seek(42))

	assert.Equal(t, [][]byte{[]byte("http://h/a.mp3")}, out.played)
	assert.Equal(t, []time.Duration{42 * time.Second}, out.seeks)
}

func TestPlayer_SeekWithoutTrackIsIgnored(t *testing.T) {
	out := &fakeOutput{}
	p := newPlayer(instantFetcher{}, out, nil)

	require.NoError(t, p.Seek(10))
	assert.Empty(t, out.seeks)
}

func TestPlayer_StaleDownloadDiscarded(t *testing.T) {
	out := &fakeOutput{}
	f := &gatedFetcher{}
	p := newPlayer(f, out, nil)
	ctx := context.Background()

	first := make(chan error, 1)
	go func() { first <- p.Play(ctx, "http://h/old.mp3") }()

	// Wait until the first download is pending before superseding it.
	require.Eventually(t, func() bool {
		p.mu.Lock()
		defer p.mu.Unlock()
		return p.id == 1
	}, time.Second, time.Millisecond)

	second := make(chan error, 1)
	go func() { second <- p.Play(ctx, "http://h/new.mp3") }()
	require.Eventually(t, func() bool {
		p.mu.Lock()
		defer p.mu.Unlock()
		return p.id == 2
	}, time.Second, time.Millisecond)

	close(f.gate("http://h/new.mp3"))
	require.NoError(t, <-second)
	close(f.gate("http://h/old.mp3"))
	require.NoError(t, <-first)

	assert.Equal(t, [][]byte{[]byte("http://h/new.mp3")}, out.played)
}

func TestPlayer_StopInvalidatesPending(t *testing.T) {
	out := &fakeOutput{}
	f := &gatedFetcher{}
	p := newPlayer(f, out, nil)

	done := make(chan error, 1)
	go func() { done <- p.Play(context.Background(), "http://h/a.mp3") }()
	require.Eventually(t, func() bool {
		p.mu.Lock()
		defer p.mu.Unlock()
		return p.id == 1
	}, time.Second, time.Millisecond)

	p.Stop()
	close(f.gate("http://h/a.mp3"))
	require.NoError(t, <-done)

	assert.Empty(t, out.played)
	assert.Equal(t, 1, out.stops)
}

func TestPlayer_Errors(t *testing.T) {
	ctx := context.Background()

	p := newPlayer(instantFetcher{}, &fakeOutput{}, nil)
	assert.ErrorIs(t, p.Play(ctx, "http://h/a.flac"), ErrUnsupportedFormat)

	boom := errors.New("boom")
	f := &gatedFetcher{err: boom}
	close(f.gate("http://h/a.mp3"))
	p = newPlayer(f, &fakeOutput{}, nil)
	assert.ErrorIs(t, p.Play(ctx, "http://h/a.mp3"), boom)

	out := &fakeOutput{err: errors.New("no device")}
	p = newPlayer(instantFetcher{}, out, nil)
	err := p.Play(ctx, "http://h/a.mp3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no device")
}
