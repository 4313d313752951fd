package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lingocards/lingo-api/internal/platform/logger"
	"google.golang.org/genai"
)

// PCM format produced by the Gemini TTS models.
const (
	SampleRate    = 24000
	BitsPerSample = 16
	Channels      = 1
)

const defaultPrebuiltVoice = "Kore"

// prebuiltVoices maps the locale voice ids used by the application onto
// Gemini prebuilt voices of matching gender and register.
var prebuiltVoices = map[string]string{
	"zh-CN-XiaoyiNeural":   "Kore",
	"zh-CN-XiaoxiaoNeural": "Aoede",
	"zh-CN-YunxiNeural":    "Puck",
	"zh-CN-YunjianNeural":  "Charon",
	"zh-CN-YunxiaNeural":   "Fenrir",
	"zh-CN-YunyangNeural":  "Orus",
}

// Synthesizer turns text into raw PCM speech.
type Synthesizer interface {
	// Synthesize speaks text with the given locale voice id. speed is a
	// percentage adjustment where 0 is the natural rate.
	Synthesize(ctx context.Context, text, voiceID string, speed int) ([]byte, error)
}

var _ Synthesizer = (*Client)(nil)

// PrebuiltVoice returns the Gemini voice used for a locale voice id.
func PrebuiltVoice(voiceID string) string {
	if v, ok := prebuiltVoices[voiceID]; ok {
		return v
	}
	return defaultPrebuiltVoice
}

// Synthesize implements Synthesizer using the configured TTS model.
func (c *Client) Synthesize(ctx context.Context, text, voiceID string, speed int) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}

	voice := PrebuiltVoice(voiceID)
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{genai.NewPartFromText(speechPrompt(text, speed))}, genai.RoleUser),
	}
	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: voice},
			},
		},
	}

	resp, err := c.generate(ctx, "synthesize", c.ttsModel, contents, cfg)
	if err != nil {
		return nil, err
	}

	var pcm []byte
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.InlineData != nil {
			pcm = append(pcm, part.InlineData.Data...)
		}
	}
	if len(pcm) == 0 {
		return nil, ErrNoAudio
	}

	logger.FromContextOrDefault(ctx, c.logger).DebugContext(ctx, "speech synthesized",
		slog.String("voice", voice),
		slog.Int("text_runes", len([]rune(text))),
		slog.Int("pcm_bytes", len(pcm)))
	return pcm, nil
}

// speechPrompt phrases the request so the model reads the text verbatim and
// approximates the requested rate, which the TTS API has no parameter for.
func speechPrompt(text string, speed int) string {
	var pace string
	switch {
	case speed <= -30:
		pace = " slowly and clearly"
	case speed < 0:
		pace = " a little slower than usual"
	case speed >= 50:
		pace = " quickly"
	case speed > 0:
		pace = " a little faster than usual"
	}
	return fmt.Sprintf("Read the following Mandarin Chinese text aloud%s, exactly as written:\n%s", pace, text)
}
