// Package audio defines the PCM value types and the Source contract through
// which the recognizer's audio capture collaborator is consumed.
package audio

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Format describes raw PCM audio.
type Format struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
}

// DefaultFormat is 16 kHz mono 16-bit PCM, the format the recognition
// service expects.
var DefaultFormat = Format{SampleRate: 16000, Channels: 1, BitsPerSample: 16}

// BytesPerSecond returns the PCM byte rate of the format.
func (f Format) BytesPerSecond() int {
	return f.SampleRate * f.Channels * f.BitsPerSample / 8
}

// Frame is one chunk of PCM audio.
type Frame struct {
	Data     []byte
	Format   Format
	Duration time.Duration
}

// NewFrame creates a frame and derives its duration from the data length.
func NewFrame(data []byte, format Format) Frame {
	return Frame{
		Data:     data,
		Format:   format,
		Duration: frameDuration(len(data), format),
	}
}

// SampleCount returns the number of samples per channel in the frame.
func (f Frame) SampleCount() int {
	bytesPerSample := f.Format.BitsPerSample / 8
	if bytesPerSample == 0 || f.Format.Channels == 0 {
		return 0
	}
	return len(f.Data) / (bytesPerSample * f.Format.Channels)
}

// IsEmpty returns true if the frame contains no audio data.
func (f Frame) IsEmpty() bool {
	return len(f.Data) == 0
}

func (f Frame) String() string {
	return fmt.Sprintf("Frame{samples=%d, rate=%d, duration=%v}",
		f.SampleCount(), f.Format.SampleRate, f.Duration)
}

func frameDuration(dataLen int, format Format) time.Duration {
	rate := format.BytesPerSecond()
	if rate == 0 {
		return 0
	}
	return time.Duration(dataLen) * time.Second / time.Duration(rate)
}

// Source is the audio capture collaborator. Read returns successive frames
// and io.EOF when the stream is exhausted. Stop signals capture to cease;
// it is idempotent and a stopped source returns io.EOF from Read.
type Source interface {
	Read() (Frame, error)
	Stop() error
	Format() Format
}

// BufferSource serves a fixed PCM buffer as a Source, chunked into frames of
// the given duration. Used by tests and the batch engine path. Safe for Stop
// to be called while another goroutine reads.
type BufferSource struct {
	mu        sync.Mutex
	format    Format
	frameSize int
	data      []byte
	pos       int
	stopped   bool
}

// NewBufferSource creates a source over data, emitting frames of frameDur
// each.
func NewBufferSource(data []byte, format Format, frameDur time.Duration) *BufferSource {
	size := int(frameDur * time.Duration(format.BytesPerSecond()) / time.Second)
	if size <= 0 {
		size = len(data)
	}
	return &BufferSource{format: format, frameSize: size, data: data}
}

func (s *BufferSource) Read() (Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped || s.pos >= len(s.data) {
		return Frame{}, io.EOF
	}
	end := s.pos + s.frameSize
	if end > len(s.data) {
		end = len(s.data)
	}
	frame := NewFrame(s.data[s.pos:end], s.format)
	s.pos = end
	return frame, nil
}

func (s *BufferSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	return nil
}

func (s *BufferSource) Format() Format {
	return s.format
}
