package mocks

import (
	"github.com/brettbedarf/simfs"
	"github.com/stretchr/testify/mock"
)

// MockSnapshotStore implements simfs.SnapshotStore for failure-path tests
type MockSnapshotStore struct {
	mock.Mock
}

func (m *MockSnapshotStore) Load() (*simfs.NodeImage, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*simfs.NodeImage), args.Error(1)
}

func (m *MockSnapshotStore) Save(root *simfs.NodeImage) error {
	args := m.Called(root)
	return args.Error(0)
}

var _ simfs.SnapshotStore = (*MockSnapshotStore)(nil)

// MockJournal implements simfs.Journal and records calls for assertions
type MockJournal struct {
	mock.Mock
}

func (m *MockJournal) Log(event simfs.JournalEvent, description string) error {
	args := m.Called(event, description)
	return args.Error(0)
}

func (m *MockJournal) Close() error {
	args := m.Called()
	return args.Error(0)
}

var _ simfs.Journal = (*MockJournal)(nil)
