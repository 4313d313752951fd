package gemini

import (
	"context"
	"log/slog"
	"strings"

	"github.com/lingocards/lingo-api/internal/platform/logger"
	"google.golang.org/genai"
)

const ocrPrompt = "Transcribe all text visible in this image. " +
	"Keep the original line breaks and output only the transcription."

// Recognizer extracts text from images.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte, mimeType string) (string, error)
}

var _ Recognizer = (*Client)(nil)

// Recognize implements Recognizer using the configured multimodal model.
func (c *Client) Recognize(ctx context.Context, image []byte, mimeType string) (string, error) {
	if len(image) == 0 {
		return "", ErrEmptyImage
	}
	if mimeType == "" {
		mimeType = "image/png"
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(image, mimeType),
			genai.NewPartFromText(ocrPrompt),
		}, genai.RoleUser),
	}

	resp, err := c.generate(ctx, "recognize", c.ocrModel, contents, nil)
	if err != nil {
		return "", err
	}

	text := strings.TrimSpace(resp.Text())
	logger.FromContextOrDefault(ctx, c.logger).DebugContext(ctx, "image text recognized",
		slog.String("mime_type", mimeType),
		slog.Int("image_bytes", len(image)),
		slog.Int("text_runes", len([]rune(text))))
	return text, nil
}
