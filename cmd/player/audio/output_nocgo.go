//go:build !((linux && cgo) || windows || darwin)

package audio

import "time"

// Available indicates whether this build can drive a sound device.
// Sound output needs cgo on linux.
const Available = false

type nopOutput struct{}

func newOutput() output { return nopOutput{} }

func (nopOutput) play([]byte, Format) error { return nil }
func (nopOutput) seek(time.Duration) error { return nil }
func (nopOutput) stop() {}
