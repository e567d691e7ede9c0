package mocks

import (
	"context"

	"lifeline/backend/internal/service"

	"github.com/stretchr/testify/mock"
)

// MockSettingsService is a mock type for the interfaces.SettingsService interface.
type MockSettingsService struct {
	mock.Mock
}

// InitAndGet provides a mock function with given fields: ctx
func (_m *MockSettingsService) InitAndGet(ctx context.Context) (*service.Settings, error) {
	ret := _m.Called(ctx)

	var r0 *service.Settings
	if v := ret.Get(0); v != nil {
		r0 = v.(*service.Settings)
	}
	return r0, ret.Error(1)
}

// Get provides a mock function with given fields: ctx
func (_m *MockSettingsService) Get(ctx context.Context) (*service.Settings, error) {
	ret := _m.Called(ctx)

	var r0 *service.Settings
	if v := ret.Get(0); v != nil {
		r0 = v.(*service.Settings)
	}
	return r0, ret.Error(1)
}

// Save provides a mock function with given fields: ctx, settings
func (_m *MockSettingsService) Save(ctx context.Context, settings *service.Settings) error {
	ret := _m.Called(ctx, settings)
	return ret.Error(0)
}

// NewMockSettingsService creates a new instance of MockSettingsService. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockSettingsService(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockSettingsService {
	m := &MockSettingsService{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
