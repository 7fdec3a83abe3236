package mocks

import (
	"context"

	"printdesk/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockPrintService struct {
	mock.Mock
}

func (m *MockPrintService) Issue(ctx context.Context, userID, documentID string) (*model.PrintLink, error) {
	args := m.Called(ctx, userID, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PrintLink), args.Error(1)
}

func (m *MockPrintService) Redeem(ctx context.Context, userID, linkID string) (*model.DocumentReference, error) {
	args := m.Called(ctx, userID, linkID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DocumentReference), args.Error(1)
}
