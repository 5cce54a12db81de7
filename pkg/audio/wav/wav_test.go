package wav

import (
	"bytes"
	"encoding/binary"
	"io"
	"path/filepath"
	"testing"

	"github.com/matryer/is"

	"github.com/AlexandruBudaca/cognitive-services-speech-sdk/pkg/audio"
)

func TestEncodeHeader(t *testing.T) {
	is := is.New(t)

	data := make([]byte, 320)
	encoded := Encode(data, audio.DefaultFormat)
	is.Equal(len(encoded), 44+len(data))

	header, err := readHeader(bytes.NewReader(encoded))
	is.NoErr(err)
	is.Equal(header.SampleRate, uint32(16000))
	is.Equal(header.NumChannels, uint16(1))
	is.Equal(header.BitsPerSample, uint16(16))
	is.Equal(header.DataSize, uint32(len(data)))
	is.Equal(header.Format(), audio.DefaultFormat)
}

func TestReadHeaderRejectsNonWav(t *testing.T) {
	is := is.New(t)

	_, err := readHeader(bytes.NewReader([]byte("OggS\x00\x00\x00\x00")))
	is.True(err != nil)

	// RIFF but not WAVE
	bad := []byte("RIFF\x24\x00\x00\x00AVI ")
	_, err = readHeader(bytes.NewReader(bad))
	is.True(err != nil)
}

func TestReadHeaderRejectsNonPCM(t *testing.T) {
	is := is.New(t)

	encoded := Encode(nil, audio.DefaultFormat)
	// patch the audio format field to IEEE float
	binary.LittleEndian.PutUint16(encoded[20:], 3)
	_, err := readHeader(bytes.NewReader(encoded))
	is.True(err != nil)
}

func TestReadHeaderSkipsUnknownChunks(t *testing.T) {
	is := is.New(t)

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(0)) // size unused here
	buf.WriteString("WAVE")

	// LIST chunk ahead of fmt
	buf.WriteString("LIST")
	binary.Write(&buf, binary.LittleEndian, uint32(4))
	buf.WriteString("INFO")

	encoded := Encode([]byte{0, 0}, audio.DefaultFormat)
	buf.Write(encoded[12:]) // fmt + data chunks

	header, err := readHeader(&buf)
	is.NoErr(err)
	is.Equal(header.SampleRate, uint32(16000))
	is.Equal(header.DataSize, uint32(2))
}

func TestWriterFileSourceRoundTrip(t *testing.T) {
	is := is.New(t)

	path := filepath.Join(t.TempDir(), "tone.wav")
	w, err := NewWriter(path, audio.DefaultFormat)
	is.NoErr(err)
	is.NoErr(w.WriteSineWave(440, 30))
	is.NoErr(w.Close())
	is.NoErr(w.Close()) // second close is a no-op

	src, err := NewFileSource(path)
	is.NoErr(err)
	defer src.Stop()

	is.Equal(src.Format(), audio.DefaultFormat)
	is.Equal(src.Header().DataSize, uint32(30*32)) // 30ms at 32000 B/s

	var total int
	for {
		frame, err := src.Read()
		if err == io.EOF {
			break
		}
		is.NoErr(err)
		is.Equal(frame.Format, audio.DefaultFormat)
		total += len(frame.Data)
	}
	is.Equal(total, 960)
}

func TestWriterWriteFrame(t *testing.T) {
	is := is.New(t)

	path := filepath.Join(t.TempDir(), "frames.wav")
	w, err := NewWriter(path, audio.DefaultFormat)
	is.NoErr(err)

	frame := audio.NewFrame(make([]byte, 320), audio.DefaultFormat)
	is.NoErr(w.WriteFrame(frame))
	is.NoErr(w.WriteFrame(frame))
	is.NoErr(w.Close())

	src, err := NewFileSource(path)
	is.NoErr(err)
	defer src.Stop()
	is.Equal(src.Header().DataSize, uint32(640))
}

func TestFileSourceStopIsIdempotent(t *testing.T) {
	is := is.New(t)

	path := filepath.Join(t.TempDir(), "stop.wav")
	w, err := NewWriter(path, audio.DefaultFormat)
	is.NoErr(err)
	is.NoErr(w.WriteSineWave(440, 10))
	is.NoErr(w.Close())

	src, err := NewFileSource(path)
	is.NoErr(err)
	is.NoErr(src.Stop())
	is.NoErr(src.Stop())

	_, err = src.Read()
	is.Equal(err, io.EOF)
}

func TestNewFileSourceMissingFile(t *testing.T) {
	is := is.New(t)

	_, err := NewFileSource(filepath.Join(t.TempDir(), "missing.wav"))
	is.True(err != nil)
}
