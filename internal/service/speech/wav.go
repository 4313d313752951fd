package speech

import (
	"bytes"
	"encoding/binary"
	"errors"

	"github.com/lingocards/lingo-api/internal/platform/gemini"
)

const wavHeaderSize = 44

var (
	errShortWAV  = errors.New("wav data shorter than its header")
	errNotWAV    = errors.New("not a RIFF/WAVE file")
	errWAVFormat = errors.New("wav format differs from synthesizer output")
	errNoPCM     = errors.New("wav has no data chunk")
)

// encodeWAV wraps PCM in a canonical RIFF/WAVE header using the synthesizer's
// output format.
func encodeWAV(pcm []byte) []byte {
	const (
		blockAlign = gemini.Channels * gemini.BitsPerSample / 8
		byteRate   = gemini.SampleRate * blockAlign
	)

	buf := bytes.NewBuffer(make([]byte, 0, wavHeaderSize+len(pcm)))
	buf.WriteString("RIFF")
	_ = binary.Write(buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	_ = binary.Write(buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(buf, binary.LittleEndian, uint16(1)) // PCM
	_ = binary.Write(buf, binary.LittleEndian, uint16(gemini.Channels))
	_ = binary.Write(buf, binary.LittleEndian, uint32(gemini.SampleRate))
	_ = binary.Write(buf, binary.LittleEndian, uint32(byteRate))
	_ = binary.Write(buf, binary.LittleEndian, uint16(blockAlign))
	_ = binary.Write(buf, binary.LittleEndian, uint16(gemini.BitsPerSample))

	buf.WriteString("data")
	_ = binary.Write(buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)
	return buf.Bytes()
}

// pcmOf returns the samples of a WAV file. Chunks other than fmt and data are
// skipped; the fmt chunk must match the synthesizer's output so that sentence
// audio can be concatenated byte for byte.
func pcmOf(wav []byte) ([]byte, error) {
	if len(wav) < wavHeaderSize {
		return nil, errShortWAV
	}
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		return nil, errNotWAV
	}

	var sawFormat bool
	for rest := wav[12:]; len(rest) >= 8; {
		id := string(rest[0:4])
		size := int(binary.LittleEndian.Uint32(rest[4:8]))
		body := rest[8:]
		if size > len(body) {
			if id != "data" {
				return nil, errShortWAV
			}
			// Streaming writers leave the data size unset; take what is there.
			size = len(body)
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, errWAVFormat
			}
			format := binary.LittleEndian.Uint16(body[0:2])
			channels := binary.LittleEndian.Uint16(body[2:4])
			rate := binary.LittleEndian.Uint32(body[4:8])
			bits := binary.LittleEndian.Uint16(body[14:16])
			if format != 1 || channels != gemini.Channels ||
				rate != gemini.SampleRate || bits != gemini.BitsPerSample {
				return nil, errWAVFormat
			}
			sawFormat = true
		case "data":
			if !sawFormat {
				return nil, errWAVFormat
			}
			return body[:size], nil
		}

		// Chunks are word aligned.
		next := size + size%2
		if next > len(body) {
			break
		}
		rest = body[next:]
	}
	return nil, errNoPCM
}
