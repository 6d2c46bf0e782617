// Package transcribe converts audio files to text via the OpenAI
// transcription API. Each call is a single attempt; failures are classified
// into apierr sentinels at this boundary.
package transcribe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/whispera-app/whispera/internal/apierr"
)

// ModelWhisper1 is the default transcription model.
const ModelWhisper1 = "whisper-1"

// Transcriber transcribes audio files to text.
type Transcriber interface {
	// Transcribe converts an audio file to text.
	// Returns the transcribed text or an error classified into apierr sentinels.
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// audioTranscriber is an internal interface for OpenAI audio transcription.
// *openai.Client implements this implicitly.
// This allows injecting mocks in tests.
type audioTranscriber interface {
	CreateTranscription(ctx context.Context, req openai.AudioRequest) (openai.AudioResponse, error)
}

// Compile-time interface compliance checks.
var (
	_ Transcriber      = (*OpenAITranscriber)(nil)
	_ audioTranscriber = (*openai.Client)(nil)
)

// OpenAITranscriber transcribes audio using OpenAI's transcription API.
type OpenAITranscriber struct {
	client audioTranscriber
	model  string
}

// TranscriberOption configures an OpenAITranscriber.
type TranscriberOption func(*OpenAITranscriber)

// WithModel overrides the transcription model.
func WithModel(model string) TranscriberOption {
	return func(t *OpenAITranscriber) {
		if model != "" {
			t.model = model
		}
	}
}

// NewOpenAITranscriber creates a new OpenAITranscriber.
// The client is injected to enable testing with mocks.
func NewOpenAITranscriber(client audioTranscriber, opts ...TranscriberOption) *OpenAITranscriber {
	t := &OpenAITranscriber{
		client: client,
		model:  ModelWhisper1,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Transcribe transcribes an audio file using OpenAI's API.
// Exactly one request is made; there is no retry at this layer.
func (t *OpenAITranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	req := openai.AudioRequest{
		Model:    t.model,
		FilePath: audioPath,
		Format:   openai.AudioResponseFormatText,
	}

	resp, err := t.client.CreateTranscription(ctx, req)
	if err != nil {
		return "", classifyError(err)
	}
	return resp.Text, nil
}

// classifyError maps OpenAI API errors to apierr sentinels.
func classifyError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusBadRequest, http.StatusUnprocessableEntity:
			return fmt.Errorf("%s: %w", apiErr.Message, apierr.ErrBadInput)
		case http.StatusUnauthorized:
			return fmt.Errorf("%s: %w", apiErr.Message, apierr.ErrAuthFailed)
		case http.StatusTooManyRequests:
			// Distinguish between temporary rate limit and quota exceeded
			// (billing issue requiring user action).
			if strings.Contains(apiErr.Message, "quota") ||
				strings.Contains(apiErr.Message, "billing") {
				return fmt.Errorf("%s: %w", apiErr.Message, apierr.ErrQuotaExceeded)
			}
			return fmt.Errorf("%s: %w", apiErr.Message, apierr.ErrRateLimit)
		case http.StatusRequestTimeout, http.StatusGatewayTimeout:
			return fmt.Errorf("%s: %w", apiErr.Message, apierr.ErrTimeout)
		}
	}

	// Check for context timeout/deadline exceeded.
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timed out: %w", apierr.ErrTimeout)
	}

	return err
}
