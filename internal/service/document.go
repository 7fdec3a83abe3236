package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"go.uber.org/zap"

	"printdesk/internal/logger"
	"printdesk/internal/model"
	"printdesk/internal/repository"
	"printdesk/internal/storage"
)

var (
	ErrIDRequired    = errors.New("id is required")
	ErrOwnerRequired = errors.New("owner is required")
	ErrNotFound      = errors.New("document not found")
	ErrReaderNil     = errors.New("reader is nil")
	ErrInvalidPDF    = errors.New("file is not a readable PDF")
)

// pageCount is swapped in tests.
var pageCount = api.PageCount

// DocumentListResult is the service-level DTO for paginated documents.
type DocumentListResult struct {
	Items []model.Document `json:"data"`
	Total int              `json:"total"`
}

// DocumentService defines the use cases for handling documents.
// Every operation is scoped to ownerID: other users' documents read as ErrNotFound.
type DocumentService interface {
	// Upload stores the content, then its metadata, removing the object again if the metadata write fails.
	// originalFilename is kept for display; the stored name is a UUID plus the original extension.
	Upload(ctx context.Context, ownerID string, r io.Reader, originalFilename, contentType string, size int64) (*model.Document, error)

	// List returns the owner's documents using limit/offset and a total count.
	List(ctx context.Context, ownerID string, limit, offset int) (*DocumentListResult, error)

	// Get returns a single document by its ID.
	Get(ctx context.Context, ownerID, id string) (*model.Document, error)

	// Delete removes a document by ID from both storage and repository.
	Delete(ctx context.Context, ownerID, id string) error
}

type documentService struct {
	store storage.Storage
	repo  repository.DocumentRepository
	now   func() time.Time
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(store storage.Storage, repo repository.DocumentRepository) DocumentService {
	return &documentService{store: store, repo: repo, now: time.Now}
}

func (s *documentService) Upload(ctx context.Context, ownerID string, r io.Reader, originalFilename, contentType string, size int64) (*model.Document, error) {
	if r == nil {
		return nil, ErrReaderNil
	}
	if ownerID == "" {
		return nil, ErrOwnerRequired
	}

	doc := &model.Document{
		ID:           uuid.New().String(),
		OwnerID:      ownerID,
		OriginalName: filepath.Base(originalFilename),
		ContentType:  contentType,
	}

	body := r
	if doc.IsPDF() {
		rs, err := rewindable(ctx, r)
		if err != nil {
			return nil, err
		}
		if doc.PageCount, err = countPages(rs); err != nil {
			return nil, err
		}
		body = rs
	}

	ext := filepath.Ext(originalFilename)
	genName := uuid.New().String() + ext
	key := "documents/" + genName

	objInfo, err := s.store.Put(ctx, key, body, storage.PutObjectOptions{
		Size:        size,
		ContentType: contentType,
		Metadata: map[string]string{
			"original-filename": originalFilename,
			"owner-id":          ownerID,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	doc.Filename = genName
	doc.StoragePath = objInfo.Key
	doc.Size = objInfo.Size
	doc.ContentType = objInfo.ContentType
	doc.CreatedAt = s.now().UTC()
	stored, err := s.repo.Create(ctx, doc)
	if err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			logger.FromContext(ctx).Error("upload rollback failed",
				zap.String("storage_path", key),
				zap.Error(delErr),
			)
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}
	return stored, nil
}

// rewindable returns r as a ReadSeeker, buffering it in memory when the
// caller handed over a plain stream.
func rewindable(ctx context.Context, r io.Reader) (io.ReadSeeker, error) {
	if rs, ok := r.(io.ReadSeeker); ok {
		return rs, nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("buffer upload: %w", err)
	}
	logger.FromContext(ctx).Debug("pdf upload buffered", zap.Int("bytes", len(data)))
	return bytes.NewReader(data), nil
}

// countPages validates the PDF and rewinds rs for the upload that follows.
func countPages(rs io.ReadSeeker) (int, error) {
	n, err := pageCount(rs, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidPDF, err)
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return 0, fmt.Errorf("rewind upload: %w", err)
	}
	return n, nil
}

func (s *documentService) List(ctx context.Context, ownerID string, limit, offset int) (*DocumentListResult, error) {
	if ownerID == "" {
		return nil, ErrOwnerRequired
	}
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.repo.ListByOwner(ctx, ownerID, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &DocumentListResult{Items: res.Items, Total: res.Total}, nil
}

func (s *documentService) Get(ctx context.Context, ownerID, id string) (*model.Document, error) {
	return s.owned(ctx, ownerID, id)
}

// Delete removes the object first; if that fails the row stays so the object is not orphaned.
func (s *documentService) Delete(ctx context.Context, ownerID, id string) error {
	doc, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, doc.StoragePath); err != nil {
		return fmt.Errorf("delete storage: %w", err)
	}
	return s.repo.Delete(ctx, id)
}

func (s *documentService) owned(ctx context.Context, ownerID, id string) (*model.Document, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	doc, err := findDocument(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	if doc.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	return doc, nil
}

func findDocument(ctx context.Context, repo repository.DocumentRepository, id string) (*model.Document, error) {
	doc, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}
