package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockConnectivityChecker is a mock type for the llm.ConnectivityChecker interface.
type MockConnectivityChecker struct {
	mock.Mock
}

// IsOnline provides a mock function with given fields: ctx
func (_m *MockConnectivityChecker) IsOnline(ctx context.Context) bool {
	ret := _m.Called(ctx)

	var r0 bool
	if rf, ok := ret.Get(0).(func(context.Context) bool); ok {
		r0 = rf(ctx)
	} else {
		r0 = ret.Get(0).(bool)
	}

	return r0
}

// NewMockConnectivityChecker creates a new instance of MockConnectivityChecker. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockConnectivityChecker(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockConnectivityChecker {
	m := &MockConnectivityChecker{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
