package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/lingocards/lingo-api/internal/config"
	"github.com/lingocards/lingo-api/internal/platform/logger"
	"github.com/sethvargo/go-retry"
	"google.golang.org/genai"
)

const defaultRetryBase = time.Second

// contentGenerator is the part of *genai.Models the client depends on.
type contentGenerator interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// Client wraps a genai client with the models and retry policy configured for
// this application.
type Client struct {
	logger     *slog.Logger
	models     contentGenerator
	ttsModel   string
	ocrModel   string
	maxRetries uint64
	retryBase  time.Duration
}

// NewClient connects to the Gemini API using the key in cfg.
func NewClient(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*Client, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	logger.InfoContext(ctx, "gemini client initialized",
		slog.String("tts_model", cfg.TTSModel),
		slog.String("ocr_model", cfg.OCRModel))

	return newClient(logger, gc.Models, cfg), nil
}

func newClient(logger *slog.Logger, models contentGenerator, cfg config.LLMConfig) *Client {
	retries := cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return &Client{
		logger:     logger.With(slog.String("component", "gemini")),
		models:     models,
		ttsModel:   cfg.TTSModel,
		ocrModel:   cfg.OCRModel,
		maxRetries: uint64(retries),
		retryBase:  defaultRetryBase,
	}
}

func validateConfig(cfg config.LLMConfig) error {
	if cfg.GeminiAPIKey == "" {
		return fmt.Errorf("%w: api key cannot be empty", ErrInvalidConfig)
	}
	if cfg.TTSModel == "" {
		return fmt.Errorf("%w: tts model cannot be empty", ErrInvalidConfig)
	}
	if cfg.OCRModel == "" {
		return fmt.Errorf("%w: ocr model cannot be empty", ErrInvalidConfig)
	}
	return nil
}

// generate calls the model, retrying transient failures with exponential
// backoff. The returned response always has at least one candidate with
// content.
func (c *Client) generate(
	ctx context.Context,
	op, model string,
	contents []*genai.Content,
	cfg *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error) {
	log := logger.FromContextOrDefault(ctx, c.logger)

	backoff := retry.WithJitterPercent(20,
		retry.WithMaxRetries(c.maxRetries, retry.NewExponential(c.retryBase)))

	attempt := 0
	resp, err := retry.DoValue(ctx, backoff, func(ctx context.Context) (*genai.GenerateContentResponse, error) {
		attempt++
		resp, err := c.models.GenerateContent(ctx, model, contents, cfg)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if isTransient(err) {
				log.WarnContext(ctx, "gemini call failed, will retry",
					slog.String("operation", op),
					slog.Int("attempt", attempt),
					slog.String("error", err.Error()))
				return nil, retry.RetryableError(fmt.Errorf("%w: %v", ErrTransientFailure, err))
			}
			return nil, fmt.Errorf("gemini %s failed: %w", op, err)
		}
		if err := checkResponse(resp); err != nil {
			return nil, err
		}
		return resp, nil
	})
	if err != nil {
		log.ErrorContext(ctx, "gemini call failed",
			slog.String("operation", op),
			slog.Int("attempts", attempt),
			slog.String("error", err.Error()))
		return nil, err
	}

	log.DebugContext(ctx, "gemini call succeeded",
		slog.String("operation", op),
		slog.Int("attempts", attempt))
	return resp, nil
}

func checkResponse(resp *genai.GenerateContentResponse) error {
	switch {
	case resp == nil:
		return fmt.Errorf("%w: nil response", ErrInvalidResponse)
	case len(resp.Candidates) == 0:
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return fmt.Errorf("%w: prompt blocked (%s)", ErrContentBlocked, resp.PromptFeedback.BlockReason)
		}
		return fmt.Errorf("%w: no candidates", ErrInvalidResponse)
	case resp.Candidates[0].FinishReason == genai.FinishReasonSafety:
		return ErrContentBlocked
	case resp.Candidates[0].Content == nil:
		return fmt.Errorf("%w: empty content", ErrInvalidResponse)
	}
	return nil
}

// isTransient reports whether err is worth retrying. API errors are retried
// only for rate limiting and server failures; anything else that is not an
// API error is treated as a network problem.
func isTransient(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError
	}
	return true
}
