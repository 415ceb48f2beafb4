package gateway

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/yourmoney-sync-agent/internal/domain/record"
	"github.com/yourmoney-sync-agent/internal/domain/syncqueue"
)

// MockRecordRepo for testing
type MockRecordRepo struct {
	mock.Mock
}

func (m *MockRecordRepo) Put(ctx context.Context, rec *record.Record) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockRecordRepo) GetAll(ctx context.Context, userID string) []*record.Record {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]*record.Record)
}

func (m *MockRecordRepo) GetByID(ctx context.Context, id string) (*record.Record, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*record.Record), args.Error(1)
}

func (m *MockRecordRepo) Remove(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockQueueRepo for testing
type MockQueueRepo struct {
	mock.Mock
}

func (m *MockQueueRepo) Enqueue(ctx context.Context, e *syncqueue.Entry) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockQueueRepo) ListPending(ctx context.Context, limit int) ([]*syncqueue.Entry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*syncqueue.Entry), args.Error(1)
}

func (m *MockQueueRepo) Remove(ctx context.Context, entryID string) error {
	args := m.Called(ctx, entryID)
	return args.Error(0)
}

func (m *MockQueueRepo) ClearForRecord(ctx context.Context, recordID string) error {
	args := m.Called(ctx, recordID)
	return args.Error(0)
}

func (m *MockQueueRepo) HasPendingCreate(ctx context.Context, recordID string) (bool, error) {
	args := m.Called(ctx, recordID)
	return args.Bool(0), args.Error(1)
}

func (m *MockQueueRepo) PendingDeleteIDs(ctx context.Context) (map[string]struct{}, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]struct{}), args.Error(1)
}

func (m *MockQueueRepo) DeadRecordIDs(ctx context.Context) (map[string]struct{}, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]struct{}), args.Error(1)
}

func (m *MockQueueRepo) IncrementAttempts(ctx context.Context, entryID string) error {
	args := m.Called(ctx, entryID)
	return args.Error(0)
}

func (m *MockQueueRepo) MarkDead(ctx context.Context, entryID string) error {
	args := m.Called(ctx, entryID)
	return args.Error(0)
}

func (m *MockQueueRepo) CountByStatus(ctx context.Context, status syncqueue.Status) (int, error) {
	args := m.Called(ctx, status)
	return args.Int(0), args.Error(1)
}

// MockRemoteStore for testing
type MockRemoteStore struct {
	mock.Mock
}

func (m *MockRemoteStore) CreateRecord(ctx context.Context, rec *record.Record) (*record.Record, error) {
	args := m.Called(ctx, rec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*record.Record), args.Error(1)
}

func (m *MockRemoteStore) UpdateRecord(ctx context.Context, id string, updates *record.Updates) (*record.Record, error) {
	args := m.Called(ctx, id, updates)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*record.Record), args.Error(1)
}

func (m *MockRemoteStore) DeleteRecord(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRemoteStore) QueryRecords(ctx context.Context, userID string, limit int) ([]*record.Record, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*record.Record), args.Error(1)
}

func (m *MockRemoteStore) RecordExists(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// MockOracle for testing
type MockOracle struct {
	mock.Mock
}

func (m *MockOracle) Reachable(ctx context.Context) bool {
	args := m.Called(ctx)
	return args.Bool(0)
}

func (m *MockOracle) Subscribe() <-chan bool {
	args := m.Called()
	return args.Get(0).(<-chan bool)
}
