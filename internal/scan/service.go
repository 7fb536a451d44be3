// Package scan runs one receipt scan end to end: category snapshot, extraction, reconciliation.
package scan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dvloznov/dompet/internal/categories"
	"github.com/dvloznov/dompet/internal/domain"
	"github.com/dvloznov/dompet/internal/extraction"
	"github.com/dvloznov/dompet/internal/logger"
	"github.com/dvloznov/dompet/internal/reconcile"
	"github.com/google/uuid"
)

// ErrAbandoned is returned when the scan was dismissed or its context ended before a result
// could be delivered. Nothing is recorded for an abandoned scan.
var ErrAbandoned = errors.New("scan abandoned")

// ErrInvalidRequest is returned for requests that cannot be scanned at all.
var ErrInvalidRequest = errors.New("invalid scan request")

// Request is one scan attempt.
type Request struct {
	UserID       string
	PhotoDataURI string
	// ExpectedType is the form the user scans from. Empty accepts either type.
	ExpectedType domain.TransactionType
}

// RegistrySource hands out category snapshots. *categories.Cache implements it.
type RegistrySource interface {
	Registry(ctx context.Context, userID string) (*categories.Registry, error)
}

// ReceiptArchive keeps a copy of scanned photos and returns where it was stored.
type ReceiptArchive interface {
	Store(ctx context.Context, userID string, img extraction.Image) (string, error)
}

// Record is the audit entry written for every completed scan.
type Record struct {
	ID         string
	UserID     string
	ReceiptURI string
	Result     *domain.ExtractionResult
	Status     Status
	Error      string
	CreatedAt  time.Time
}

// Recorder stores scan audit records.
type Recorder interface {
	RecordScan(ctx context.Context, rec *Record) error
}

// Service runs scans. It is safe for concurrent use.
type Service struct {
	extractor  extraction.Extractor
	registries RegistrySource
	engine     *reconcile.Engine
	archive    ReceiptArchive
	recorder   Recorder
	now        func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithArchive stores the photo of every successfully extracted receipt.
func WithArchive(a ReceiptArchive) Option {
	return func(s *Service) {
		s.archive = a
	}
}

// WithRecorder writes an audit record for every completed scan.
func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		s.recorder = r
	}
}

// NewService creates a scan service.
func NewService(extractor extraction.Extractor, registries RegistrySource, engine *reconcile.Engine, opts ...Option) *Service {
	s := &Service{
		extractor:  extractor,
		registries: registries,
		engine:     engine,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan extracts a transaction from the photo and reconciles it into a draft.
//
// The same registry snapshot is used for the prompt and for reconciliation. Errors are
// *extraction.Failure, *reconcile.TypeMismatchError, *reconcile.InvalidAmountError or
// ErrAbandoned when ctx ends first.
func (s *Service) Scan(ctx context.Context, req Request) (*domain.Draft, error) {
	if req.UserID == "" {
		return nil, fmt.Errorf("Scan: %w: user ID is required", ErrInvalidRequest)
	}
	if req.ExpectedType != "" && !req.ExpectedType.Valid() {
		return nil, fmt.Errorf("Scan: %w: unknown expected type %q", ErrInvalidRequest, req.ExpectedType)
	}

	log := logger.WithUser(logger.FromContext(ctx), req.UserID)
	ctx = logger.WithContext(ctx, log)

	reg := s.registry(ctx, req.UserID)

	start := s.now()
	res, err := s.extractor.Extract(ctx, req.PhotoDataURI, reg)
	if ctx.Err() != nil {
		log.Info().Msg("Scan abandoned before a result was delivered")
		return nil, ErrAbandoned
	}
	if err != nil {
		log.Warn().Err(err).Dur("duration", s.now().Sub(start)).Msg("Receipt extraction failed")
		s.record(ctx, &Record{UserID: req.UserID, Status: StatusExtractionFailed, Error: err.Error()})
		return nil, err
	}

	draft, err := s.engine.Reconcile(reg, *res, req.ExpectedType)
	outcome := OutcomeOf(draft, err)

	if ctx.Err() != nil {
		return nil, ErrAbandoned
	}

	rec := &Record{UserID: req.UserID, Result: res, Status: outcome.Status}
	if err != nil {
		rec.Error = err.Error()
	} else {
		rec.ReceiptURI = s.archiveReceipt(ctx, req)
		if ctx.Err() != nil {
			return nil, ErrAbandoned
		}
	}
	s.record(ctx, rec)

	log.Info().
		Str("status", string(outcome.Status)).
		Str("scanned_type", string(res.Type)).
		Str("expected_type", string(req.ExpectedType)).
		Dur("duration", s.now().Sub(start)).
		Msg("Receipt scanned")

	return draft, err
}

// registry returns the user's snapshot, or the defaults when the store is unavailable.
func (s *Service) registry(ctx context.Context, userID string) *categories.Registry {
	reg, err := s.registries.Registry(ctx, userID)
	if err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Msg("Falling back to default categories")
		return categories.NewRegistry(categories.Defaults())
	}
	return reg
}

func (s *Service) archiveReceipt(ctx context.Context, req Request) string {
	if s.archive == nil {
		return ""
	}
	log := logger.FromContext(ctx)

	img, err := extraction.ParseDataURI(req.PhotoDataURI)
	if err != nil {
		log.Warn().Err(err).Msg("Receipt not archived")
		return ""
	}
	uri, err := s.archive.Store(ctx, req.UserID, img)
	if err != nil {
		log.Warn().Err(err).Msg("Receipt not archived")
		return ""
	}
	return uri
}

func (s *Service) record(ctx context.Context, rec *Record) {
	if s.recorder == nil {
		return
	}
	rec.ID = uuid.New().String()
	rec.CreatedAt = s.now().UTC()
	if err := s.recorder.RecordScan(ctx, rec); err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Str("scan_id", rec.ID).Msg("Failed to record scan")
	}
}

// Reconcile turns an extraction result that was obtained earlier into a draft against the
// user's current categories. Nothing is recorded or archived.
func (s *Service) Reconcile(ctx context.Context, userID string, res domain.ExtractionResult, expected domain.TransactionType) (*domain.Draft, error) {
	if userID == "" {
		return nil, fmt.Errorf("Reconcile: %w: user ID is required", ErrInvalidRequest)
	}
	if expected != "" && !expected.Valid() {
		return nil, fmt.Errorf("Reconcile: %w: unknown expected type %q", ErrInvalidRequest, expected)
	}
	return s.engine.Reconcile(s.registry(ctx, userID), res, expected)
}
