package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"printdesk/internal/metrics"
	"printdesk/internal/model"
	"printdesk/internal/printlink"
	repoMocks "printdesk/internal/repository/mocks"
	"printdesk/internal/storage"
	storeMocks "printdesk/internal/storage/mocks"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type printFixture struct {
	svc   *printService
	links *printlink.MemoryStore
	repo  *repoMocks.MockDocumentRepository
	store *storeMocks.MockStorage
	reg   *prometheus.Registry
	clock time.Time
}

func newPrintFixture(t *testing.T) *printFixture {
	f := &printFixture{
		repo:  new(repoMocks.MockDocumentRepository),
		store: new(storeMocks.MockStorage),
		reg:   prometheus.NewRegistry(),
		clock: time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC),
	}
	m, err := metrics.NewPrintMetrics(f.reg)
	require.NoError(t, err)

	now := func() time.Time { return f.clock }
	f.links = printlink.NewMemoryStoreWithClock(now)
	svc := NewPrintService(f.links, f.repo, f.store, m, PrintConfig{
		LinkTTL: 15 * time.Minute,
		URLTTL:  time.Minute,
	}).(*printService)
	svc.now = now
	f.svc = svc
	return f
}

// counter reads a counter from the fixture registry. outcome filters on the
// outcome label; an empty outcome matches the first series.
func (f *printFixture) counter(t *testing.T, name, outcome string) float64 {
	t.Helper()
	mfs, err := f.reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if outcome == "" {
				return m.GetCounter().GetValue()
			}
			for _, l := range m.GetLabel() {
				if l.GetName() == "outcome" && l.GetValue() == outcome {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func (f *printFixture) redemptions(t *testing.T, outcome string) float64 {
	return f.counter(t, "printdesk_print_redemptions_total", outcome)
}

var invoice = &model.Document{
	ID:           "doc-1",
	OwnerID:      owner,
	Filename:     "0b5e.pdf",
	OriginalName: "invoice.pdf",
	StoragePath:  "documents/0b5e.pdf",
	ContentType:  "application/pdf",
}

func TestPrintService_Issue(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path", func(t *testing.T) {
		f := newPrintFixture(t)
		f.repo.On("FindByID", mock.Anything, "doc-1").Return(invoice, nil)

		link, err := f.svc.Issue(ctx, owner, "doc-1")
		require.NoError(t, err)

		assert.NotEmpty(t, link.ID)
		assert.Equal(t, "doc-1", link.DocumentID)
		assert.Equal(t, owner, link.UserID)
		assert.Equal(t, f.clock.Add(15*time.Minute), link.ExpiresAt)

		stored, err := f.links.Get(ctx, link.ID)
		require.NoError(t, err)
		assert.Equal(t, *link, *stored)
		assert.Equal(t, float64(1), f.counter(t, "printdesk_print_links_issued_total", ""))
	})

	t.Run("empty document id", func(t *testing.T) {
		f := newPrintFixture(t)
		_, err := f.svc.Issue(ctx, owner, "")
		assert.ErrorIs(t, err, ErrIDRequired)
	})

	t.Run("missing document", func(t *testing.T) {
		f := newPrintFixture(t)
		f.repo.On("FindByID", mock.Anything, "gone").Return(nil, sql.ErrNoRows)

		_, err := f.svc.Issue(ctx, owner, "gone")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Equal(t, 0, f.links.Len())
	})

	t.Run("someone else's document", func(t *testing.T) {
		f := newPrintFixture(t)
		f.repo.On("FindByID", mock.Anything, "doc-1").Return(invoice, nil)

		_, err := f.svc.Issue(ctx, "user-2", "doc-1")
		assert.ErrorIs(t, err, ErrForbidden)
		assert.Equal(t, 0, f.links.Len())
	})
}

func TestPrintService_Redeem(t *testing.T) {
	ctx := context.Background()

	issue := func(t *testing.T, f *printFixture) *model.PrintLink {
		t.Helper()
		f.repo.On("FindByID", mock.Anything, "doc-1").Return(invoice, nil)
		link, err := f.svc.Issue(ctx, owner, "doc-1")
		require.NoError(t, err)
		return link
	}

	t.Run("redeems once", func(t *testing.T) {
		f := newPrintFixture(t)
		link := issue(t, f)
		f.store.On("Stat", mock.Anything, "documents/0b5e.pdf").Return(storage.ObjectInfo{Key: "documents/0b5e.pdf"}, nil).Once()
		f.store.On("PresignGet", mock.Anything, "documents/0b5e.pdf", "invoice.pdf", time.Minute).
			Return("https://objects.example/documents/0b5e.pdf?X-Amz-Signature=abc", nil).Once()

		ref, err := f.svc.Redeem(ctx, owner, link.ID)
		require.NoError(t, err)
		assert.Equal(t, "https://objects.example/documents/0b5e.pdf?X-Amz-Signature=abc", ref.URL)
		assert.Equal(t, "invoice.pdf", ref.Filename)
		assert.Equal(t, "application/pdf", ref.ContentType)

		_, err = f.svc.Redeem(ctx, owner, link.ID)
		assert.ErrorIs(t, err, ErrLinkUnavailable)

		assert.Equal(t, float64(1), f.redemptions(t, metrics.OutcomeRedeemed))
		assert.Equal(t, float64(1), f.redemptions(t, metrics.OutcomeUnavailable))
		f.store.AssertExpectations(t)
	})

	t.Run("expired link", func(t *testing.T) {
		f := newPrintFixture(t)
		link := issue(t, f)
		f.clock = f.clock.Add(16 * time.Minute)

		_, err := f.svc.Redeem(ctx, owner, link.ID)
		assert.ErrorIs(t, err, ErrLinkUnavailable)
		f.store.AssertNotCalled(t, "PresignGet", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown link", func(t *testing.T) {
		f := newPrintFixture(t)
		_, err := f.svc.Redeem(ctx, owner, "does-not-exist")
		assert.ErrorIs(t, err, ErrLinkUnavailable)
	})

	t.Run("empty link id", func(t *testing.T) {
		f := newPrintFixture(t)
		_, err := f.svc.Redeem(ctx, owner, "")
		assert.ErrorIs(t, err, ErrIDRequired)
	})

	t.Run("foreign user is rejected and link survives", func(t *testing.T) {
		f := newPrintFixture(t)
		link := issue(t, f)

		_, err := f.svc.Redeem(ctx, "user-2", link.ID)
		assert.ErrorIs(t, err, ErrForbidden)

		_, err = f.links.Get(ctx, link.ID)
		assert.NoError(t, err)
		assert.Equal(t, float64(1), f.redemptions(t, metrics.OutcomeForbidden))
	})

	t.Run("document deleted after issue", func(t *testing.T) {
		f := newPrintFixture(t)
		f.repo.On("FindByID", mock.Anything, "doc-1").Return(invoice, nil).Once()
		link, err := f.svc.Issue(ctx, owner, "doc-1")
		require.NoError(t, err)
		f.repo.On("FindByID", mock.Anything, "doc-1").Return(nil, sql.ErrNoRows).Once()

		_, err = f.svc.Redeem(ctx, owner, link.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Equal(t, float64(1), f.redemptions(t, metrics.OutcomeMissingDoc))
	})

	t.Run("presign failure keeps the link", func(t *testing.T) {
		f := newPrintFixture(t)
		link := issue(t, f)
		f.store.On("Stat", mock.Anything, "documents/0b5e.pdf").Return(storage.ObjectInfo{}, nil).Once()
		f.store.On("PresignGet", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return("", errors.New("signer unavailable")).Once()

		_, err := f.svc.Redeem(ctx, owner, link.ID)
		assert.ErrorContains(t, err, "presign document: signer unavailable")

		_, err = f.links.Get(ctx, link.ID)
		assert.NoError(t, err)
		assert.Equal(t, float64(1), f.redemptions(t, metrics.OutcomeError))
	})
	t.Run("stored object gone keeps the link", func(t *testing.T) {
		f := newPrintFixture(t)
		link := issue(t, f)
		f.store.On("Stat", mock.Anything, "documents/0b5e.pdf").
			Return(storage.ObjectInfo{}, fmt.Errorf("%w: NoSuchKey", storage.ErrObjectNotFound)).Once()

		_, err := f.svc.Redeem(ctx, owner, link.ID)
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = f.links.Get(ctx, link.ID)
		assert.NoError(t, err)
		assert.Equal(t, float64(1), f.redemptions(t, metrics.OutcomeMissingDoc))
		f.store.AssertNotCalled(t, "PresignGet", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("stat failure keeps the link", func(t *testing.T) {
		f := newPrintFixture(t)
		link := issue(t, f)
		f.store.On("Stat", mock.Anything, "documents/0b5e.pdf").
			Return(storage.ObjectInfo{}, errors.New("connection reset")).Once()

		_, err := f.svc.Redeem(ctx, owner, link.ID)
		assert.ErrorContains(t, err, "stat document: connection reset")

		_, err = f.links.Get(ctx, link.ID)
		assert.NoError(t, err)
		assert.Equal(t, float64(1), f.redemptions(t, metrics.OutcomeError))
	})
}

func TestPrintService_RedeemConcurrent(t *testing.T) {
	ctx := context.Background()
	f := newPrintFixture(t)
	f.repo.On("FindByID", mock.Anything, "doc-1").Return(invoice, nil)
	f.store.On("Stat", mock.Anything, "documents/0b5e.pdf").Return(storage.ObjectInfo{Key: "documents/0b5e.pdf"}, nil)
	f.store.On("PresignGet", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("https://objects.example/documents/0b5e.pdf?X-Amz-Signature=abc", nil)

	link, err := f.svc.Issue(ctx, owner, "doc-1")
	require.NoError(t, err)

	const callers = 50
	var (
		wg          sync.WaitGroup
		redeemed    atomic.Int32
		unavailable atomic.Int32
		other       atomic.Int32
	)
	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := f.svc.Redeem(ctx, owner, link.ID)
			switch {
			case err == nil:
				redeemed.Add(1)
			case errors.Is(err, ErrLinkUnavailable):
				unavailable.Add(1)
			default:
				other.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.EqualValues(t, 1, redeemed.Load())
	assert.EqualValues(t, callers-1, unavailable.Load())
	assert.Zero(t, other.Load())
	assert.Equal(t, 0, f.links.Len())
	assert.Equal(t, float64(1), f.redemptions(t, metrics.OutcomeRedeemed))
	assert.Equal(t, float64(callers-1), f.redemptions(t, metrics.OutcomeUnavailable))
}
