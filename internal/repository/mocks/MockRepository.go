package mocks

import (
	"context"
	"time"

	"lifeline/backend/internal/model"

	"github.com/stretchr/testify/mock"
)

// MockRepository is a mock type for the repository.Repository interface.
type MockRepository struct {
	mock.Mock
}

// SaveConversation provides a mock function with given fields: ctx, conv
func (_m *MockRepository) SaveConversation(ctx context.Context, conv *model.Conversation) error {
	ret := _m.Called(ctx, conv)
	return ret.Error(0)
}

// GetConversation provides a mock function with given fields: ctx, id
func (_m *MockRepository) GetConversation(ctx context.Context, id string) (*model.Conversation, error) {
	ret := _m.Called(ctx, id)

	var r0 *model.Conversation
	if v := ret.Get(0); v != nil {
		r0 = v.(*model.Conversation)
	}
	return r0, ret.Error(1)
}

// ListConversations provides a mock function with given fields: ctx
func (_m *MockRepository) ListConversations(ctx context.Context) ([]model.Conversation, error) {
	ret := _m.Called(ctx)

	var r0 []model.Conversation
	if v := ret.Get(0); v != nil {
		r0 = v.([]model.Conversation)
	}
	return r0, ret.Error(1)
}

// TouchConversation provides a mock function with given fields: ctx, id, title, at
func (_m *MockRepository) TouchConversation(ctx context.Context, id string, title *string, at time.Time) error {
	ret := _m.Called(ctx, id, title, at)
	return ret.Error(0)
}

// DeleteConversation provides a mock function with given fields: ctx, id
func (_m *MockRepository) DeleteConversation(ctx context.Context, id string) error {
	ret := _m.Called(ctx, id)
	return ret.Error(0)
}

// AddMessage provides a mock function with given fields: ctx, msg
func (_m *MockRepository) AddMessage(ctx context.Context, msg *model.Message) error {
	ret := _m.Called(ctx, msg)
	return ret.Error(0)
}

// GetMessages provides a mock function with given fields: ctx, conversationID
func (_m *MockRepository) GetMessages(ctx context.Context, conversationID string) ([]model.Message, error) {
	ret := _m.Called(ctx, conversationID)

	var r0 []model.Message
	if v := ret.Get(0); v != nil {
		r0 = v.([]model.Message)
	}
	return r0, ret.Error(1)
}

// DeleteAll provides a mock function with given fields: ctx
func (_m *MockRepository) DeleteAll(ctx context.Context) error {
	ret := _m.Called(ctx)
	return ret.Error(0)
}

// DeleteOrphanedMessages provides a mock function with given fields: ctx
func (_m *MockRepository) DeleteOrphanedMessages(ctx context.Context) (int, error) {
	ret := _m.Called(ctx)
	return ret.Int(0), ret.Error(1)
}

// NewMockRepository creates a new instance of MockRepository. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockRepository {
	m := &MockRepository{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
