// Package wav reads and writes PCM WAV files for the audio collaborator
// boundary: file-backed sources for feeding a recognizer and an in-memory
// encoder for batch engines.
package wav

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/AlexandruBudaca/cognitive-services-speech-sdk/pkg/audio"
)

// frameDurationMs is the chunk size a FileSource emits.
const frameDurationMs = 10

// Header holds the format fields of a parsed WAV file.
type Header struct {
	SampleRate    uint32
	NumChannels   uint16
	BitsPerSample uint16
	DataSize      uint32
}

// Format converts the header to an audio.Format.
func (h Header) Format() audio.Format {
	return audio.Format{
		SampleRate:    int(h.SampleRate),
		Channels:      int(h.NumChannels),
		BitsPerSample: int(h.BitsPerSample),
	}
}

// FileSource serves a WAV file as an audio.Source, emitting fixed-duration
// PCM frames.
type FileSource struct {
	mu      sync.Mutex
	file    *os.File
	header  Header
	stopped bool
}

// NewFileSource opens filename and validates its header. Only PCM WAV files
// are supported.
func NewFileSource(filename string) (*FileSource, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open WAV file: %w", err)
	}
	header, err := readHeader(file)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to read WAV header: %w", err)
	}
	return &FileSource{file: file, header: header}, nil
}

// Header returns the parsed WAV header.
func (s *FileSource) Header() Header {
	return s.header
}

// Format implements audio.Source.
func (s *FileSource) Format() audio.Format {
	return s.header.Format()
}

// Read implements audio.Source. It returns io.EOF once the file is
// exhausted or the source was stopped.
func (s *FileSource) Read() (audio.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped || s.file == nil {
		return audio.Frame{}, io.EOF
	}

	format := s.header.Format()
	frameSize := format.BytesPerSecond() * frameDurationMs / 1000
	buf := make([]byte, frameSize)
	n, err := s.file.Read(buf)
	if n > 0 {
		return audio.NewFrame(buf[:n], format), nil
	}
	if err != nil && err != io.EOF {
		return audio.Frame{}, fmt.Errorf("failed to read audio data: %w", err)
	}
	return audio.Frame{}, io.EOF
}

// Stop implements audio.Source. It is idempotent; a stopped source reads
// io.EOF.
func (s *FileSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil
	}
	s.stopped = true
	if s.file != nil {
		err := s.file.Close()
		s.file = nil
		return err
	}
	return nil
}

// readHeader reads and validates a RIFF/WAVE header, leaving the reader
// positioned at the start of the data chunk payload.
func readHeader(r io.Reader) (Header, error) {
	var chunkID [4]byte
	if _, err := io.ReadFull(r, chunkID[:]); err != nil {
		return Header{}, err
	}
	if string(chunkID[:]) != "RIFF" {
		return Header{}, fmt.Errorf("not a RIFF file")
	}
	var chunkSize uint32
	if err := binary.Read(r, binary.LittleEndian, &chunkSize); err != nil {
		return Header{}, err
	}
	var waveID [4]byte
	if _, err := io.ReadFull(r, waveID[:]); err != nil {
		return Header{}, err
	}
	if string(waveID[:]) != "WAVE" {
		return Header{}, fmt.Errorf("not a WAVE file")
	}

	var header Header
	for {
		var subID [4]byte
		if _, err := io.ReadFull(r, subID[:]); err != nil {
			return Header{}, err
		}
		var subSize uint32
		if err := binary.Read(r, binary.LittleEndian, &subSize); err != nil {
			return Header{}, err
		}
		switch string(subID[:]) {
		case "fmt ":
			var fmtChunk struct {
				AudioFormat   uint16
				NumChannels   uint16
				SampleRate    uint32
				ByteRate      uint32
				BlockAlign    uint16
				BitsPerSample uint16
			}
			if err := binary.Read(r, binary.LittleEndian, &fmtChunk); err != nil {
				return Header{}, err
			}
			if fmtChunk.AudioFormat != 1 {
				return Header{}, fmt.Errorf("unsupported audio format %d (only PCM)", fmtChunk.AudioFormat)
			}
			header.SampleRate = fmtChunk.SampleRate
			header.NumChannels = fmtChunk.NumChannels
			header.BitsPerSample = fmtChunk.BitsPerSample
			// skip any fmt extension bytes
			if extra := int64(subSize) - 16; extra > 0 {
				if _, err := io.CopyN(io.Discard, r, extra); err != nil {
					return Header{}, err
				}
			}
		case "data":
			if header.SampleRate == 0 {
				return Header{}, fmt.Errorf("data chunk before fmt chunk")
			}
			header.DataSize = subSize
			return header, nil
		default:
			if _, err := io.CopyN(io.Discard, r, int64(subSize)); err != nil {
				return Header{}, err
			}
		}
	}
}
