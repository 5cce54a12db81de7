package wav

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"github.com/AlexandruBudaca/cognitive-services-speech-sdk/pkg/audio"
)

// Encode wraps raw PCM data in a canonical 44-byte WAV container.
func Encode(data []byte, format audio.Format) []byte {
	var buf bytes.Buffer
	writeHeader(&buf, format, uint32(len(data)))
	buf.Write(data)
	return buf.Bytes()
}

func writeHeader(buf *bytes.Buffer, format audio.Format, dataSize uint32) {
	byteRate := uint32(format.BytesPerSecond())
	blockAlign := uint16(format.Channels * format.BitsPerSample / 8)

	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, dataSize+36)
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))
	binary.Write(buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(buf, binary.LittleEndian, uint16(format.Channels))
	binary.Write(buf, binary.LittleEndian, uint32(format.SampleRate))
	binary.Write(buf, binary.LittleEndian, byteRate)
	binary.Write(buf, binary.LittleEndian, blockAlign)
	binary.Write(buf, binary.LittleEndian, uint16(format.BitsPerSample))

	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, dataSize)
}

// Writer writes a PCM WAV file, fixing up the header sizes on Close.
type Writer struct {
	file         *os.File
	format       audio.Format
	bytesWritten uint32
}

// NewWriter creates a WAV file writer for the given format.
func NewWriter(filename string, format audio.Format) (*Writer, error) {
	file, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create WAV file: %w", err)
	}
	w := &Writer{file: file, format: format}

	var header bytes.Buffer
	writeHeader(&header, format, 0)
	if _, err := file.Write(header.Bytes()); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to write WAV header: %w", err)
	}
	return w, nil
}

// WriteFrame appends one PCM frame.
func (w *Writer) WriteFrame(frame audio.Frame) error {
	n, err := w.file.Write(frame.Data)
	w.bytesWritten += uint32(n)
	if err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	return nil
}

// WriteSineWave appends a sine tone of the given frequency and duration.
// Useful for generating deterministic test input.
func (w *Writer) WriteSineWave(frequency float64, durationMs int) error {
	samplesPerChannel := w.format.SampleRate * durationMs / 1000

	for i := 0; i < samplesPerChannel; i++ {
		t := float64(i) / float64(w.format.SampleRate)
		sample := math.Sin(2 * math.Pi * frequency * t)
		intSample := int16(sample * 32767 * 0.5) // 50% amplitude

		for ch := 0; ch < w.format.Channels; ch++ {
			if err := binary.Write(w.file, binary.LittleEndian, intSample); err != nil {
				return fmt.Errorf("failed to write sample: %w", err)
			}
			w.bytesWritten += 2
		}
	}
	return nil
}

// Close finalizes the file by patching the header sizes.
func (w *Writer) Close() error {
	if w.file == nil {
		return nil
	}

	if _, err := w.file.Seek(4, 0); err != nil {
		return fmt.Errorf("failed to seek to chunk size: %w", err)
	}
	if err := binary.Write(w.file, binary.LittleEndian, w.bytesWritten+36); err != nil {
		return fmt.Errorf("failed to update chunk size: %w", err)
	}
	if _, err := w.file.Seek(40, 0); err != nil {
		return fmt.Errorf("failed to seek to data size: %w", err)
	}
	if err := binary.Write(w.file, binary.LittleEndian, w.bytesWritten); err != nil {
		return fmt.Errorf("failed to update data size: %w", err)
	}

	err := w.file.Close()
	w.file = nil
	return err
}
