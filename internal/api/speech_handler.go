package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/lingocards/lingo-api/internal/api/shared"
	"github.com/lingocards/lingo-api/internal/service/speech"
)

// MaxImageBytes caps uploaded OCR images.
const MaxImageBytes = 10 << 20

// AudioRoute is where generated audio files are served from.
const AudioRoute = "/api/tts/audio/"

// SpeechService narrates text and recognizes text in images.
type SpeechService interface {
	SynthesizeSentence(ctx context.Context, sentence, voice string, speed int) (*speech.Audio, error)
	SynthesizeText(ctx context.Context, text, voice string, speed int) (*speech.Audio, []string, error)
	Speak(ctx context.Context, text, voice string, speed int) ([]byte, error)
	Recognize(ctx context.Context, image []byte, mimeType string) (string, error)
	AudioPath(filename string) (string, error)
}

// SpeechHandler serves the reading tool routes and HSK word audio.
type SpeechHandler struct {
	speech SpeechService
	logger *slog.Logger
}

// NewSpeechHandler creates a SpeechHandler.
func NewSpeechHandler(svc SpeechService, logger *slog.Logger) *SpeechHandler {
	if svc == nil {
		panic("speech service cannot be nil for SpeechHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SpeechHandler{speech: svc, logger: logger.With(slog.String("component", "speech_handler"))}
}

// SplitText handles POST /api/tts/split-text.
func (h *SpeechHandler) SplitText(w http.ResponseWriter, r *http.Request) {
	var req SplitTextRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		HandleAPIError(w, r, speech.ErrEmptyText, "")
		return
	}

	sentences := speech.SplitText(text)
	shared.RespondWithJSON(w, r, http.StatusOK, SplitTextResponse{
		Success:   true,
		Sentences: sentences,
		Count:     len(sentences),
	})
}

// GenerateSingleAudio handles POST /api/tts/generate-single-audio.
func (h *SpeechHandler) GenerateSingleAudio(w http.ResponseWriter, r *http.Request) {
	var req SingleAudioRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	audio, err := h.speech.SynthesizeSentence(r.Context(), req.Sentence, req.Voice, req.Speed)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to generate audio")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, AudioResponse{
		Success:   true,
		AudioPath: AudioRoute + audio.Filename,
		Filename:  audio.Filename,
	})
}

// GenerateFullAudio handles POST /api/tts/generate-full-audio.
func (h *SpeechHandler) GenerateFullAudio(w http.ResponseWriter, r *http.Request) {
	var req FullAudioRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	audio, sentences, err := h.speech.SynthesizeText(r.Context(), req.Text, req.Voice, req.Speed)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to generate audio")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, AudioResponse{
		Success:   true,
		AudioPath: AudioRoute + audio.Filename,
		Filename:  audio.Filename,
		Sentences: sentences,
	})
}

// RecognizeImage handles POST /api/tts/ocr-image with a multipart "image" field.
func (h *SpeechHandler) RecognizeImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxImageBytes+1<<20)
	file, header, err := r.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			shared.RespondWithError(w, r, http.StatusRequestEntityTooLarge, "Image is too large")
			return
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "No image uploaded", err)
		return
	}
	defer func() { _ = file.Close() }()

	image, err := io.ReadAll(io.LimitReader(file, MaxImageBytes+1))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to read image")
		return
	}
	if len(image) > MaxImageBytes {
		shared.RespondWithError(w, r, http.StatusRequestEntityTooLarge, "Image is too large")
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(image)
	}

	text, err := h.speech.Recognize(r.Context(), image, mimeType)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to recognize image")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, OCRResponse{Success: true, Text: text})
}

// Voices handles GET /api/tts/voices.
func (h *SpeechHandler) Voices(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, VoicesResponse{
		Success: true,
		Default: speech.DefaultVoice,
		Voices:  speech.Voices(),
	})
}

// ServeAudio handles GET /api/tts/audio/{filename}.
func (h *SpeechHandler) ServeAudio(w http.ResponseWriter, r *http.Request) {
	path, err := h.speech.AudioPath(chi.URLParam(r, "filename"))
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	w.Header().Set("Content-Type", "audio/wav")
	http.ServeFile(w, r, path)
}

// WordAudio handles GET /api/hsk/tts?text=&voice=&speed= and streams WAV audio.
func (h *SpeechHandler) WordAudio(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	voice := q.Get("voice")
	if voice == "" {
		voice = speech.DefaultHSKVoice
	}

	audio, err := h.speech.Speak(r.Context(), q.Get("text"), voice, speech.ParseHSKSpeed(q.Get("speed")))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to generate audio")
		return
	}

	w.Header().Set("Content-Type", "audio/wav")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(audio); err != nil {
		h.logger.Debug("client went away during audio write", slog.String("error", err.Error()))
	}
}
