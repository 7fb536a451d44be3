// Package extraction asks a multimodal model to read a receipt photo into a structured result.
package extraction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dvloznov/dompet/internal/categories"
	"github.com/dvloznov/dompet/internal/domain"
	"github.com/dvloznov/dompet/internal/gemini"
	"github.com/dvloznov/dompet/internal/logger"
	"google.golang.org/genai"
)

const (
	// DefaultModelName is the model used when none is configured.
	DefaultModelName = "gemini-2.5-flash"
	// DefaultTimeout bounds a single extraction call.
	DefaultTimeout = 45 * time.Second
)

// ErrExtractionFailed matches every *Failure.
var ErrExtractionFailed = errors.New("extraction failed")

// Failure stages.
const (
	StageDecodeImage    = "decode image"
	StageGenerate       = "generate content"
	StageEmptyResponse  = "empty response"
	StageDecodeResponse = "decode response"
)

// Failure is returned when no usable result came back from the model.
// The caller may retry by scanning again.
type Failure struct {
	Stage string
	Err   error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return "extraction failed: " + f.Stage
	}
	return "extraction failed: " + f.Stage + ": " + f.Err.Error()
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Is makes errors.Is(err, ErrExtractionFailed) true for any Failure.
func (f *Failure) Is(target error) bool {
	return target == ErrExtractionFailed
}

// Extractor reads a receipt photo. It has no side effects beyond the model call.
type Extractor interface {
	Extract(ctx context.Context, photoDataURI string, reg *categories.Registry) (*domain.ExtractionResult, error)
}

// GeminiExtractor implements Extractor with a GenAI model.
type GeminiExtractor struct {
	models  gemini.ContentGenerator
	model   string
	timeout time.Duration
	now     func() time.Time
	loc     *time.Location
}

// Option configures a GeminiExtractor.
type Option func(*GeminiExtractor)

// WithModel sets the model name.
func WithModel(name string) Option {
	return func(e *GeminiExtractor) {
		if name != "" {
			e.model = name
		}
	}
}

// WithTimeout bounds each call. Zero keeps the default.
func WithTimeout(d time.Duration) Option {
	return func(e *GeminiExtractor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithClock sets the clock used for the "today" hint in the prompt.
func WithClock(now func() time.Time) Option {
	return func(e *GeminiExtractor) {
		e.now = now
	}
}

// WithLocation sets the time zone of the "today" hint. It should match the reconciliation
// engine's location so undated receipts get the same date from both.
func WithLocation(loc *time.Location) Option {
	return func(e *GeminiExtractor) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// NewGeminiExtractor creates an extractor on top of a GenAI models service.
func NewGeminiExtractor(models gemini.ContentGenerator, opts ...Option) *GeminiExtractor {
	e := &GeminiExtractor{
		models:  models,
		model:   DefaultModelName,
		timeout: DefaultTimeout,
		now:     time.Now,
		loc:     time.UTC,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract sends the photo and the user's categories to the model and decodes its answer.
// Every failure, including timeouts and malformed output, is a *Failure. There are no retries.
func (e *GeminiExtractor) Extract(ctx context.Context, photoDataURI string, reg *categories.Registry) (*domain.ExtractionResult, error) {
	log := logger.FromContext(ctx)

	img, err := ParseDataURI(photoDataURI)
	if err != nil {
		return nil, &Failure{Stage: StageDecodeImage, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: buildReceiptPrompt(reg, e.now().In(e.loc))},
				{
					InlineData: &genai.Blob{
						MIMEType: img.MIMEType,
						Data:     img.Data,
					},
				},
			},
		},
	}
	cfg := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0),
		ResponseMIMEType: "application/json",
		ResponseSchema:   receiptSchema(reg),
	}

	start := time.Now()
	resp, err := e.models.GenerateContent(ctx, e.model, contents, cfg)
	if err != nil {
		return nil, &Failure{Stage: StageGenerate, Err: err}
	}

	rawText := resp.Text()
	usage := gemini.UsageOf(resp)
	log.Debug().
		Str("model", e.model).
		Int("image_bytes", len(img.Data)).
		Int32("prompt_tokens", usage.PromptTokens).
		Int32("candidates_tokens", usage.CandidatesTokens).
		Dur("duration", time.Since(start)).
		Msg("Receipt extraction response received")

	if rawText == "" {
		return nil, &Failure{Stage: StageEmptyResponse}
	}

	res, err := decodeExtraction(gemini.CleanJSON(rawText))
	if err != nil {
		log.Warn().Err(err).Str("raw_response", rawText).Msg("Malformed extraction response")
		return nil, &Failure{Stage: StageDecodeResponse, Err: err}
	}
	return res, nil
}

var _ Extractor = (*GeminiExtractor)(nil)

// Describe renders a Failure for error messages shown to users.
func Describe(err error) string {
	var f *Failure
	if !errors.As(err, &f) {
		return err.Error()
	}
	switch f.Stage {
	case StageDecodeImage:
		return "The photo could not be read. Please take it again."
	case StageGenerate:
		if errors.Is(f.Err, context.DeadlineExceeded) {
			return "Reading the receipt took too long. Please try again."
		}
		return "The receipt could not be analyzed. Please try again."
	default:
		return fmt.Sprintf("No transaction could be read from the receipt (%s). Please try again.", f.Stage)
	}
}
