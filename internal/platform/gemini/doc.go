// Package gemini adapts Google's Gemini API to the speech interfaces used by
// the application.
//
// Two capabilities are exposed:
//
// 1. Synthesizer:
//   - Turns a Mandarin sentence into speech using a Gemini TTS model
//   - Maps the application's locale voice ids onto Gemini prebuilt voices
//   - Returns raw 24 kHz 16-bit mono PCM; framing it as WAV is left to callers
//
// 2. Recognizer:
//   - Sends an image to a multimodal Gemini model and returns the text it reads
//
// Both share one Client which owns the genai connection and retries transient
// failures (network errors, 429 and 5xx responses) with exponential backoff.
// Safety blocks and malformed responses are permanent and returned at once.
package gemini
