package mocks

import (
	"context"

	"lifeline/backend/internal/model"
	"lifeline/backend/internal/service"

	"github.com/stretchr/testify/mock"
)

// MockAssistantService is a mock type for the interfaces.AssistantService interface.
type MockAssistantService struct {
	mock.Mock
}

// Send provides a mock function with given fields: ctx, req, updates.
// Like the real service it closes updates before returning.
func (_m *MockAssistantService) Send(ctx context.Context, req *service.SendMessageRequest, updates chan<- model.StreamResponse) error {
	defer close(updates)
	ret := _m.Called(ctx, req, updates)
	return ret.Error(0)
}

// NewConversation provides a mock function with no fields
func (_m *MockAssistantService) NewConversation() {
	_m.Called()
}

// LoadConversation provides a mock function with given fields: ctx, id
func (_m *MockAssistantService) LoadConversation(ctx context.Context, id string) (*model.Session, error) {
	ret := _m.Called(ctx, id)

	var r0 *model.Session
	if v := ret.Get(0); v != nil {
		r0 = v.(*model.Session)
	}
	return r0, ret.Error(1)
}

// DeleteConversation provides a mock function with given fields: ctx, id
func (_m *MockAssistantService) DeleteConversation(ctx context.Context, id string) error {
	ret := _m.Called(ctx, id)
	return ret.Error(0)
}

// ClearHistory provides a mock function with given fields: ctx
func (_m *MockAssistantService) ClearHistory(ctx context.Context) error {
	ret := _m.Called(ctx)
	return ret.Error(0)
}

// Session provides a mock function with no fields
func (_m *MockAssistantService) Session() *model.Session {
	ret := _m.Called()

	var r0 *model.Session
	if v := ret.Get(0); v != nil {
		r0 = v.(*model.Session)
	}
	return r0
}

// OfflineAdvice provides a mock function with given fields: query
func (_m *MockAssistantService) OfflineAdvice(query string) string {
	ret := _m.Called(query)
	return ret.String(0)
}

// NewMockAssistantService creates a new instance of MockAssistantService. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockAssistantService(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockAssistantService {
	m := &MockAssistantService{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
