package mocks

import (
	"context"

	"lifeline/backend/internal/llm"

	"github.com/stretchr/testify/mock"
)

// MockChatStreamer is a mock type for the llm.ChatStreamer interface.
type MockChatStreamer struct {
	mock.Mock
}

// StreamChat provides a mock function with given fields: ctx, model, history, cb
func (_m *MockChatStreamer) StreamChat(ctx context.Context, model string, history []llm.Message, cb llm.StreamCallbacks) {
	_m.Called(ctx, model, history, cb)
}

// NewMockChatStreamer creates a new instance of MockChatStreamer. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockChatStreamer(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockChatStreamer {
	m := &MockChatStreamer{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
