package mocks

import (
	"context"
	"io"

	"github.com/brettbedarf/simfs"
	"github.com/stretchr/testify/mock"
)

// MockContentAdapter implements simfs.ContentAdapter for testing across packages
type MockContentAdapter struct {
	mock.Mock
}

func (m *MockContentAdapter) Open(ctx context.Context) (io.ReadCloser, error) {
	args := m.Called(ctx)

	// Handle function return types so each call can get a fresh reader
	if fn, ok := args.Get(0).(func(context.Context) io.ReadCloser); ok {
		return fn(ctx), args.Error(1)
	}

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

func (m *MockContentAdapter) Exists(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

var _ simfs.ContentAdapter = (*MockContentAdapter)(nil)

// MockAdapterProvider implements simfs.AdapterProvider for testing across packages
type MockAdapterProvider struct {
	mock.Mock
}

func (m *MockAdapterProvider) Adapter() simfs.ContentAdapter {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(simfs.ContentAdapter)
}

var _ simfs.AdapterProvider = (*MockAdapterProvider)(nil)
