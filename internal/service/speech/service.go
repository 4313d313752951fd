// Package speech turns Chinese text into narrated audio and extracts Chinese
// text from images. Generated audio is cached on disk by content hash.
package speech

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/lingocards/lingo-api/internal/platform/gemini"
	"github.com/lingocards/lingo-api/internal/platform/logger"
	"github.com/lingocards/lingo-api/internal/service"
	"golang.org/x/sync/errgroup"
)

// Errors returned by the speech service.
var (
	ErrEmptyText       = errors.New("text cannot be empty")
	ErrSpeedOutOfRange = fmt.Errorf("speed must be between %d and %d", MinSpeed, MaxSpeed)
	ErrEmptyImage      = errors.New("image cannot be empty")
	ErrNoText          = errors.New("no Chinese text recognized in the image")
	ErrInvalidFilename = errors.New("invalid audio filename")
	ErrAudioNotFound   = errors.New("audio file not found")
	ErrSpeechDisabled  = errors.New("speech services are not configured")
)

const audioExt = ".wav"

// Audio is a generated file in the audio directory.
type Audio struct {
	Filename string
	Path     string
}

// Config holds the speech service settings.
type Config struct {
	AudioDir       string
	MaxConcurrency int
}

// Service synthesizes and recognizes Chinese text.
type Service struct {
	synth          gemini.Synthesizer
	recognizer     gemini.Recognizer
	audioDir       string
	maxConcurrency int
	logger         *slog.Logger
}

// NewService creates the speech service and its audio directory. A nil
// synthesizer or recognizer makes the matching operations fail with
// ErrSpeechDisabled.
func NewService(
	synth gemini.Synthesizer,
	recognizer gemini.Recognizer,
	cfg Config,
	logger *slog.Logger,
) (*Service, error) {
	if cfg.AudioDir == "" {
		return nil, errors.New("audio directory cannot be empty")
	}
	if err := os.MkdirAll(cfg.AudioDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create audio directory: %w", err)
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		synth:          synth,
		recognizer:     recognizer,
		audioDir:       cfg.AudioDir,
		maxConcurrency: cfg.MaxConcurrency,
		logger:         logger.With(slog.String("component", "speech_service")),
	}, nil
}

// SynthesizeSentence narrates one sentence. Unknown voices fall back to
// DefaultVoice; speed must lie within [MinSpeed, MaxSpeed].
func (s *Service) SynthesizeSentence(ctx context.Context, sentence, voice string, speed int) (*Audio, error) {
	sentence = strings.TrimSpace(sentence)
	if err := checkRequest(sentence, speed); err != nil {
		return nil, err
	}
	return s.render(ctx, sentence, ResolveVoice(voice, DefaultVoice).ID, speed)
}

// SynthesizeText splits text into sentences, narrates them concurrently and
// joins the audio in order into one file. It returns the file and the
// sentences it was built from.
func (s *Service) SynthesizeText(ctx context.Context, text, voice string, speed int) (*Audio, []string, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	text = strings.TrimSpace(text)
	if err := checkRequest(text, speed); err != nil {
		return nil, nil, err
	}
	if s.synth == nil {
		return nil, nil, ErrSpeechDisabled
	}
	voiceID := ResolveVoice(voice, DefaultVoice).ID
	sentences := SplitText(text)

	full := s.cachePath("full", voiceID, speed, text)
	if cached(full) {
		log.Debug("full audio cache hit", slog.String("file", filepath.Base(full)))
		return s.audio(full), sentences, nil
	}

	parts := make([][]byte, len(sentences))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrency)
	for i, sentence := range sentences {
		g.Go(func() error {
			audio, err := s.render(gctx, sentence, voiceID, speed)
			if err != nil {
				return err
			}
			wav, err := os.ReadFile(audio.Path)
			if err != nil {
				return fmt.Errorf("failed to read sentence audio: %w", err)
			}
			pcm, err := pcmOf(wav)
			if err != nil {
				return fmt.Errorf("sentence %d: %w", i, err)
			}
			parts[i] = pcm
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var pcm []byte
	for _, part := range parts {
		pcm = append(pcm, part...)
	}
	if err := writeAtomic(full, encodeWAV(pcm)); err != nil {
		return nil, nil, service.NewServiceError("synthesize_text", "failed to store audio", err)
	}

	log.Info("full audio generated",
		slog.String("file", filepath.Base(full)),
		slog.Int("sentences", len(sentences)),
		slog.Int("bytes", len(pcm)))
	return s.audio(full), sentences, nil
}

// Speak returns WAV audio for a short text such as an HSK word. The voice
// falls back to DefaultHSKVoice and speed is clamped to the HSK range.
func (s *Service) Speak(ctx context.Context, text, voice string, speed int) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}
	speed = max(MinHSKSpeed, min(MaxHSKSpeed, speed))

	audio, err := s.render(ctx, text, ResolveVoice(voice, DefaultHSKVoice).ID, speed)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(audio.Path)
	if err != nil {
		return nil, service.NewServiceError("speak", "failed to read audio", err)
	}
	return data, nil
}

// Recognize extracts the Chinese text of an image. Everything other than
// CJK ideographs and Chinese punctuation is dropped.
// Returns ErrNoText when nothing remains.
func (s *Service) Recognize(ctx context.Context, image []byte, mimeType string) (string, error) {
	if len(image) == 0 {
		return "", ErrEmptyImage
	}
	if s.recognizer == nil {
		return "", ErrSpeechDisabled
	}

	raw, err := s.recognizer.Recognize(ctx, image, mimeType)
	if err != nil {
		return "", service.NewServiceError("recognize", "text recognition failed", err)
	}

	text := filterChinese(raw)
	if text == "" {
		return "", ErrNoText
	}

	logger.FromContextOrDefault(ctx, s.logger).Debug("image recognized",
		slog.Int("image_bytes", len(image)),
		slog.Int("raw_chars", len([]rune(raw))),
		slog.Int("kept_chars", len([]rune(text))))
	return text, nil
}

// AudioPath resolves a generated file name inside the audio directory.
// Names that would escape the directory fail with ErrInvalidFilename.
func (s *Service) AudioPath(filename string) (string, error) {
	if filename == "" || filename != filepath.Base(filename) ||
		filename == "." || filename == ".." || strings.ContainsAny(filename, `/\`) {
		return "", ErrInvalidFilename
	}
	path := filepath.Join(s.audioDir, filename)
	if !cached(path) {
		return "", fmt.Errorf("%w: %s", ErrAudioNotFound, filename)
	}
	return path, nil
}

// render narrates text once and reuses the cached file afterwards.
func (s *Service) render(ctx context.Context, text, voiceID string, speed int) (*Audio, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	if s.synth == nil {
		return nil, ErrSpeechDisabled
	}

	path := s.cachePath("sentence", voiceID, speed, text)
	if cached(path) {
		log.Debug("audio cache hit", slog.String("file", filepath.Base(path)))
		return s.audio(path), nil
	}

	pcm, err := s.synth.Synthesize(ctx, text, voiceID, speed)
	if err != nil {
		return nil, service.NewServiceError("synthesize", "speech synthesis failed", err)
	}
	if err := writeAtomic(path, encodeWAV(pcm)); err != nil {
		return nil, service.NewServiceError("synthesize", "failed to store audio", err)
	}

	log.Debug("audio generated",
		slog.String("file", filepath.Base(path)),
		slog.String("voice", voiceID),
		slog.Int("speed", speed))
	return s.audio(path), nil
}

func (s *Service) cachePath(kind, voiceID string, speed int, text string) string {
	sum := sha256.Sum256([]byte(kind + "\x00" + voiceID + "\x00" + strconv.Itoa(speed) + "\x00" + text))
	return filepath.Join(s.audioDir, kind+"_"+hex.EncodeToString(sum[:16])+audioExt)
}

func (s *Service) audio(path string) *Audio {
	return &Audio{Filename: filepath.Base(path), Path: path}
}

func checkRequest(text string, speed int) error {
	if speed < MinSpeed || speed > MaxSpeed {
		return ErrSpeedOutOfRange
	}
	if text == "" {
		return ErrEmptyText
	}
	return nil
}

func cached(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// writeAtomic writes data next to path and renames it into place so readers
// never see a partial file.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".audio-*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
