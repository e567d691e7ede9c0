package mocks

import (
	"context"

	"lifeline/backend/internal/model"

	"github.com/stretchr/testify/mock"
)

// MockHistoryService is a mock type for the interfaces.HistoryService interface.
type MockHistoryService struct {
	mock.Mock
}

// CreateConversation provides a mock function with given fields: ctx, title
func (_m *MockHistoryService) CreateConversation(ctx context.Context, title string) (*model.Conversation, error) {
	ret := _m.Called(ctx, title)

	var r0 *model.Conversation
	if v := ret.Get(0); v != nil {
		r0 = v.(*model.Conversation)
	}
	return r0, ret.Error(1)
}

// GetConversations provides a mock function with given fields: ctx
func (_m *MockHistoryService) GetConversations(ctx context.Context) ([]model.Conversation, error) {
	ret := _m.Called(ctx)

	var r0 []model.Conversation
	if v := ret.Get(0); v != nil {
		r0 = v.([]model.Conversation)
	}
	return r0, ret.Error(1)
}

// GetFullConversation provides a mock function with given fields: ctx, id
func (_m *MockHistoryService) GetFullConversation(ctx context.Context, id string) (*model.FullConversation, error) {
	ret := _m.Called(ctx, id)

	var r0 *model.FullConversation
	if v := ret.Get(0); v != nil {
		r0 = v.(*model.FullConversation)
	}
	return r0, ret.Error(1)
}

// UpdateConversation provides a mock function with given fields: ctx, id, title
func (_m *MockHistoryService) UpdateConversation(ctx context.Context, id string, title *string) error {
	ret := _m.Called(ctx, id, title)
	return ret.Error(0)
}

// PurgeOrphanedMessages provides a mock function with given fields: ctx
func (_m *MockHistoryService) PurgeOrphanedMessages(ctx context.Context) (int, error) {
	ret := _m.Called(ctx)
	return ret.Int(0), ret.Error(1)
}

// NewMockHistoryService creates a new instance of MockHistoryService. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockHistoryService(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockHistoryService {
	m := &MockHistoryService{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
