package speech

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want []string
	}{
		{"terminators", "你好。今天天气很好！你去哪儿？", []string{"你好。", "今天天气很好！", "你去哪儿？"}},
		{"ascii terminators", "Hi! Ready? Go; now", []string{"Hi!", "Ready?", "Go;", "now"}},
		{"line breaks", "第一行\n\n  第二行  \r\n第三行；", []string{"第一行", "第二行", "第三行；"}},
		{"no terminator", "没有标点的句子", []string{"没有标点的句子"}},
		{"only whitespace", " \n\t ", nil},
		{"repeated terminators", "真的吗？！", []string{"真的吗？", "！"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, SplitText(tt.text))
		})
	}
}

func TestFilterChinese(t *testing.T) {
	t.Parallel()

	raw := "Chapter 1: 你好，世界！\n  123 abc  \n《红楼梦》—— 曹雪芹 (1791)\n\n"
	assert.Equal(t, "你好，世界！\n《红楼梦》——曹雪芹", filterChinese(raw))
	assert.Empty(t, filterChinese("hello world\n12345"))
}

func TestEncodeWAV(t *testing.T) {
	t.Parallel()

	pcm := []byte{1, 2, 3, 4}
	wav := encodeWAV(pcm)

	require.Len(t, wav, wavHeaderSize+len(pcm))
	assert.Equal(t, "RIFF", string(wav[0:4]))
	assert.Equal(t, uint32(36+len(pcm)), binary.LittleEndian.Uint32(wav[4:8]))
	assert.Equal(t, "WAVE", string(wav[8:12]))
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(wav[22:24]), "channels")
	assert.Equal(t, uint32(24000), binary.LittleEndian.Uint32(wav[24:28]), "sample rate")
	assert.Equal(t, uint32(48000), binary.LittleEndian.Uint32(wav[28:32]), "byte rate")
	assert.Equal(t, "data", string(wav[36:40]))
	assert.Equal(t, uint32(len(pcm)), binary.LittleEndian.Uint32(wav[40:44]))

	back, err := pcmOf(wav)
	require.NoError(t, err)
	assert.Equal(t, pcm, back)

	_, err = pcmOf(wav[:10])
	assert.ErrorIs(t, err, errShortWAV)
}

// wavWithChunks builds a WAV whose chunks follow the RIFF/WAVE preamble in order.
func wavWithChunks(chunks ...[]byte) []byte {
	var body []byte
	for _, c := range chunks {
		body = append(body, c...)
	}
	out := []byte("RIFF")
	out = binary.LittleEndian.AppendUint32(out, uint32(4+len(body)))
	out = append(out, "WAVE"...)
	return append(out, body...)
}

func chunk(id string, payload []byte) []byte {
	out := []byte(id)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(payload)))
	out = append(out, payload...)
	if len(payload)%2 == 1 {
		out = append(out, 0)
	}
	return out
}

func fmtChunk(channels uint16, rate uint32, bits uint16) []byte {
	p := binary.LittleEndian.AppendUint16(nil, 1)
	p = binary.LittleEndian.AppendUint16(p, channels)
	p = binary.LittleEndian.AppendUint32(p, rate)
	p = binary.LittleEndian.AppendUint32(p, rate*uint32(channels)*uint32(bits)/8)
	p = binary.LittleEndian.AppendUint16(p, channels*bits/8)
	p = binary.LittleEndian.AppendUint16(p, bits)
	return chunk("fmt ", p)
}

func TestPCMOf(t *testing.T) {
	t.Parallel()
	samples := []byte{9, 8, 7, 6}

	t.Run("skips metadata chunks", func(t *testing.T) {
		t.Parallel()
		wav := wavWithChunks(
			chunk("LIST", []byte("INFOISFT\x03\x00\x00\x00abc")),
			fmtChunk(1, 24000, 16),
			chunk("data", samples),
		)
		got, err := pcmOf(wav)
		require.NoError(t, err)
		assert.Equal(t, samples, got)
	})

	tests := []struct {
		name string
		wav  []byte
		want error
	}{
		{"not riff", append([]byte("RIFX"), make([]byte, 60)...), errNotWAV},
		{"stereo", wavWithChunks(fmtChunk(2, 24000, 16), chunk("data", samples)), errWAVFormat},
		{"other rate", wavWithChunks(fmtChunk(1, 44100, 16), chunk("data", samples)), errWAVFormat},
		{"data before fmt", wavWithChunks(chunk("data", samples), fmtChunk(1, 24000, 16)), errWAVFormat},
		{"no data", wavWithChunks(fmtChunk(1, 24000, 16), chunk("LIST", make([]byte, 20))), errNoPCM},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := pcmOf(tt.wav)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestVoices(t *testing.T) {
	t.Parallel()

	assert.Len(t, Voices(), 6)
	assert.Equal(t, "zh-CN-YunxiNeural", ResolveVoice("Mandarin Male (Yunxi)", DefaultVoice).ID)
	assert.Equal(t, "zh-CN-XiaoyiNeural", ResolveVoice("Robot", DefaultVoice).ID)
	assert.Equal(t, "zh-CN-YunjianNeural", ResolveVoice("", DefaultHSKVoice).ID)

	assert.Equal(t, 0, ParseHSKSpeed("fast"))
	assert.Equal(t, 0, ParseHSKSpeed(""))
	assert.Equal(t, -20, ParseHSKSpeed(" -20 "))
	assert.Equal(t, 100, ParseHSKSpeed("250"))
	assert.Equal(t, -100, ParseHSKSpeed("-300"))
}
