package playbacktest

import (
	"context"
	"slices"
	"sync"
)

// Audio records what a controller asked the local player to do.
type Audio struct {
	mu    sync.Mutex
	urls  []string
	seeks []int
	stops int
	Err   error
}

func (a *Audio) Play(_ context.Context, url string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.urls = append(a.urls, url)
	return a.Err
}

func (a *Audio) Seek(seconds int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.seeks = append(a.seeks, seconds)
	return nil
}

func (a *Audio) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stops++
}

func (a *Audio) URLs() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.urls)
}

func (a *Audio) Seeks() []int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.seeks)
}

func (a *Audio) Stops() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stops
}
