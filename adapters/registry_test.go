package adapters

import (
	"fmt"
	"sync"
	"testing"

	"github.com/brettbedarf/simfs"
	"github.com/brettbedarf/simfs/internal/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func factoryFor(p simfs.AdapterProvider) Factory {
	return func([]byte) (simfs.AdapterProvider, error) { return p, nil }
}

func TestRegister_SingleProvider(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	mockProvider := &mocks.MockAdapterProvider{}

	r.Register("test", factoryFor(mockProvider))
	provider, err := r.Provider([]byte(`{"type":"test"}`))

	require.NoError(t, err)
	assert.Same(t, mockProvider, provider)
}

func TestRegister_DuplicateProvider(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	mockProvider1 := &mocks.MockAdapterProvider{}
	mockProvider2 := &mocks.MockAdapterProvider{}

	r.Register("test", factoryFor(mockProvider1))
	r.Register("test", factoryFor(mockProvider2))

	provider, err := r.Provider([]byte(`{"type":"test"}`))
	require.NoError(t, err)
	assert.Same(t, mockProvider1, provider, "first registration wins")
}

func TestRegistry_Unknown(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	_, err := r.Provider([]byte(`{"type":"ftp"}`))
	assert.ErrorContains(t, err, `no factory for "ftp"`)

	_, err = r.Provider([]byte(`not json`))
	assert.Error(t, err)
}

func TestRegister_Concurrent(t *testing.T) {
	t.Parallel()
	var wg sync.WaitGroup
	r := NewRegistry()

	for i := range 100 {
		wg.Go(func() {
			adapterType := fmt.Sprintf("test%d", i)
			mockProvider := &mocks.MockAdapterProvider{}
			r.Register(adapterType, factoryFor(mockProvider))
			provider, err := r.Provider(fmt.Appendf(nil, `{"type":%q}`, adapterType))
			assert.NoError(t, err)
			assert.Same(t, mockProvider, provider)
		})
	}
	wg.Wait()
}

func TestDefault_HasBuiltins(t *testing.T) {
	t.Parallel()

	for _, typ := range []string{InlineAdapterType, FileAdapterType, HTTPAdapterType} {
		_, err := Default().Factory(typ)
		assert.NoError(t, err, typ)
	}
}

func TestRegisterBuiltins_Subset(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	RegisterBuiltins(r, InlineAdapterType)

	_, err := r.Factory(InlineAdapterType)
	assert.NoError(t, err)
	_, err = r.Factory(HTTPAdapterType)
	assert.Error(t, err)
}
