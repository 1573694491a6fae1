//go:build (linux && cgo) || windows || darwin

package audio

import (
	"bytes"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"
)

// Available indicates whether this build can drive a sound device.
const Available = true

type beepOutput struct {
	mu sync.Mutex

	initialized bool
	sampleRate  beep.SampleRate
	ctrl        *beep.Ctrl
	streamer    beep.StreamSeekCloser
	format      beep.Format
}

func newOutput() output {
	return &beepOutput{sampleRate: beep.SampleRate(44100)}
}

func (o *beepOutput) play(data []byte, format Format) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.stopLocked()

	streamer, f, err := decode(data, format)
	if err != nil {
		return err
	}

	if !o.initialized {
		if err := speaker.Init(o.sampleRate, o.sampleRate.N(time.Second/10)); err != nil {
			streamer.Close()
			return err
		}
		o.initialized = true
	}

	o.streamer = streamer
	o.format = f
	o.ctrl = &beep.Ctrl{Streamer: beep.Resample(4, f.SampleRate, o.sampleRate, streamer)}
	speaker.Play(o.ctrl)
	return nil
}

func (o *beepOutput) seek(d time.Duration) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.streamer == nil {
		return nil
	}
	speaker.Lock()
	defer speaker.Unlock()

	n := min(o.format.SampleRate.N(d), max(o.streamer.Len()-1, 0))
	return o.streamer.Seek(n)
}

func (o *beepOutput) stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stopLocked()
}

func (o *beepOutput) stopLocked() {
	if o.ctrl != nil {
		speaker.Lock()
		o.ctrl.Paused = true
		o.ctrl.Streamer = nil
		speaker.Unlock()
	}
	if o.streamer != nil {
		o.streamer.Close()
		o.streamer = nil
	}
	o.ctrl = nil
}

func decode(data []byte, format Format) (beep.StreamSeekCloser, beep.Format, error) {
	r := nopCloser{bytes.NewReader(data)}
	if format == FormatWAV {
		return wav.Decode(r)
	}
	return mp3.Decode(r)
}

type nopCloser struct {
	*bytes.Reader
}

func (nopCloser) Close() error { return nil }
