package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"printdesk/internal/logger"
	"printdesk/internal/metrics"
	"printdesk/internal/model"
	"printdesk/internal/printlink"
	"printdesk/internal/repository"
	"printdesk/internal/storage"
)

var tracer = otel.Tracer("printdesk/internal/service")

var (
	ErrForbidden       = errors.New("print link belongs to another user")
	ErrLinkUnavailable = errors.New("print link expired or already used")
)

// PrintConfig sets the lifetimes used by PrintService.
type PrintConfig struct {
	LinkTTL time.Duration
	URLTTL  time.Duration
}

// PrintService issues and redeems one-time print links.
type PrintService interface {
	// Issue creates a print link for one of the user's documents.
	Issue(ctx context.Context, userID, documentID string) (*model.PrintLink, error)

	// Redeem consumes the link and resolves it to a short-lived document reference.
	// A link issued to another user is rejected with ErrForbidden and stays redeemable.
	Redeem(ctx context.Context, userID, linkID string) (*model.DocumentReference, error)
}

type printService struct {
	links   printlink.Store
	repo    repository.DocumentRepository
	store   storage.Storage
	metrics *metrics.PrintMetrics
	cfg     PrintConfig
	now     func() time.Time
}

// NewPrintService constructs a PrintService. m may be nil.
func NewPrintService(links printlink.Store, repo repository.DocumentRepository, store storage.Storage, m *metrics.PrintMetrics, cfg PrintConfig) PrintService {
	return &printService{
		links:   links,
		repo:    repo,
		store:   store,
		metrics: m,
		cfg:     cfg,
		now:     time.Now,
	}
}

func (s *printService) Issue(ctx context.Context, userID, documentID string) (*model.PrintLink, error) {
	ctx, span := tracer.Start(ctx, "PrintService.Issue", trace.WithAttributes(
		attribute.String("print.document_id", documentID),
	))
	defer span.End()

	if documentID == "" {
		return nil, ErrIDRequired
	}
	if userID == "" {
		return nil, ErrOwnerRequired
	}

	doc, err := findDocument(ctx, s.repo, documentID)
	if err != nil {
		return nil, err
	}
	if doc.OwnerID != userID {
		return nil, ErrForbidden
	}

	now := s.now().UTC()
	link := &model.PrintLink{
		ID:         uuid.New().String(),
		DocumentID: doc.ID,
		UserID:     userID,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.cfg.LinkTTL),
	}
	if err := s.links.Save(ctx, link); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "save print link")
		return nil, fmt.Errorf("save print link: %w", err)
	}
	span.SetAttributes(attribute.String("print.link_id", link.ID))

	s.metrics.Issued()
	logger.FromContext(ctx).Info("print link issued",
		zap.String("link_id", link.ID),
		zap.String("document_id", doc.ID),
		zap.Time("expires_at", link.ExpiresAt),
	)
	return link, nil
}

// Redeem burns the link last, so a failure to resolve the document or its
// stored object leaves it usable.
func (s *printService) Redeem(ctx context.Context, userID, linkID string) (*model.DocumentReference, error) {
	ctx, span := tracer.Start(ctx, "PrintService.Redeem", trace.WithAttributes(
		attribute.String("print.link_id", linkID),
	))
	defer span.End()

	ref, outcome, err := s.redeem(ctx, userID, linkID)
	s.metrics.Redemption(outcome)
	span.SetAttributes(attribute.String("print.outcome", outcome))

	log := logger.FromContext(ctx).With(zap.String("link_id", linkID), zap.String("outcome", outcome))
	if err != nil {
		if outcome == metrics.OutcomeError {
			span.RecordError(err)
			span.SetStatus(codes.Error, "redeem print link")
			log.Error("print link redemption failed", zap.Error(err))
		} else {
			log.Info("print link rejected", zap.Error(err))
		}
		return nil, err
	}
	log.Info("print link redeemed")
	return ref, nil
}

func (s *printService) redeem(ctx context.Context, userID, linkID string) (*model.DocumentReference, string, error) {
	if linkID == "" {
		return nil, metrics.OutcomeUnavailable, ErrIDRequired
	}

	link, err := s.links.Get(ctx, linkID)
	if err != nil {
		if errors.Is(err, printlink.ErrNotFound) {
			return nil, metrics.OutcomeUnavailable, ErrLinkUnavailable
		}
		return nil, metrics.OutcomeError, fmt.Errorf("read print link: %w", err)
	}
	if link.UserID != userID {
		return nil, metrics.OutcomeForbidden, ErrForbidden
	}

	doc, err := findDocument(ctx, s.repo, link.DocumentID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, metrics.OutcomeMissingDoc, ErrNotFound
		}
		return nil, metrics.OutcomeError, err
	}

	if _, err := s.store.Stat(ctx, doc.StoragePath); err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, metrics.OutcomeMissingDoc, ErrNotFound
		}
		return nil, metrics.OutcomeError, fmt.Errorf("stat document: %w", err)
	}

	url, err := s.store.PresignGet(ctx, doc.StoragePath, doc.DisplayName(), s.cfg.URLTTL)
	if err != nil {
		return nil, metrics.OutcomeError, fmt.Errorf("presign document: %w", err)
	}

	if _, err := s.links.Consume(ctx, linkID); err != nil {
		if errors.Is(err, printlink.ErrNotFound) {
			// Another request consumed it between Get and Consume.
			return nil, metrics.OutcomeUnavailable, ErrLinkUnavailable
		}
		return nil, metrics.OutcomeError, fmt.Errorf("consume print link: %w", err)
	}

	return &model.DocumentReference{
		URL:         url,
		Filename:    doc.DisplayName(),
		ContentType: doc.ContentType,
	}, metrics.OutcomeRedeemed, nil
}
