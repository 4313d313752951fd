package mocks

import (
	"context"
	"sync"

	"github.com/lingocards/lingo-api/internal/platform/gemini"
)

// SynthesizeCall records one call to MockSynthesizer.Synthesize.
type SynthesizeCall struct {
	Text    string
	VoiceID string
	Speed   int
}

// MockSynthesizer implements gemini.Synthesizer for testing. By default it
// returns the text's bytes as "PCM". Safe for concurrent use.
type MockSynthesizer struct {
	SynthesizeFn func(ctx context.Context, text, voiceID string, speed int) ([]byte, error)

	mu    sync.Mutex
	calls []SynthesizeCall
}

var _ gemini.Synthesizer = (*MockSynthesizer)(nil)

// Synthesize implements gemini.Synthesizer
func (m *MockSynthesizer) Synthesize(ctx context.Context, text, voiceID string, speed int) ([]byte, error) {
	m.mu.Lock()
	m.calls = append(m.calls, SynthesizeCall{Text: text, VoiceID: voiceID, Speed: speed})
	m.mu.Unlock()

	if m.SynthesizeFn != nil {
		return m.SynthesizeFn(ctx, text, voiceID, speed)
	}
	return []byte(text), nil
}

// Calls returns a copy of the recorded calls.
func (m *MockSynthesizer) Calls() []SynthesizeCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SynthesizeCall(nil), m.calls...)
}

// MockRecognizer implements gemini.Recognizer for testing
type MockRecognizer struct {
	RecognizeFn func(ctx context.Context, image []byte, mimeType string) (string, error)

	// Text is returned when RecognizeFn is nil.
	Text string
}

var _ gemini.Recognizer = (*MockRecognizer)(nil)

// Recognize implements gemini.Recognizer
func (m *MockRecognizer) Recognize(ctx context.Context, image []byte, mimeType string) (string, error) {
	if m.RecognizeFn != nil {
		return m.RecognizeFn(ctx, image, mimeType)
	}
	return m.Text, nil
}
