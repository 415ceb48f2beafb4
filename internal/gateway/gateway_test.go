package gateway

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/yourmoney-sync-agent/internal/domain/record"
	"github.com/yourmoney-sync-agent/internal/domain/syncqueue"
)

type gatewayFixture struct {
	records *MockRecordRepo
	queue   *MockQueueRepo
	remote  *MockRemoteStore
	oracle  *MockOracle
	gw      Gateway
}

func newFixture(t *testing.T) *gatewayFixture {
	t.Helper()

	f := &gatewayFixture{
		records: &MockRecordRepo{},
		queue:   &MockQueueRepo{},
		remote:  &MockRemoteStore{},
		oracle:  &MockOracle{},
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	f.gw = NewGateway(logger, f.records, f.queue, f.remote, f.oracle)
	return f
}

func (f *gatewayFixture) assertExpectations(t *testing.T) {
	f.records.AssertExpectations(t)
	f.queue.AssertExpectations(t)
	f.remote.AssertExpectations(t)
	f.oracle.AssertExpectations(t)
}

func TestGateway_CreateTransaction_Online(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID := uuid.New().String()

	// The store echoes the record it was handed, like the real one does.
	stored := &record.Record{}
	f.oracle.On("Reachable", mock.Anything).Return(true)
	f.remote.On("CreateRecord", mock.Anything, mock.AnythingOfType("*record.Record")).
		Run(func(args mock.Arguments) { *stored = *(args.Get(1).(*record.Record)) }).
		Return(stored, nil)
	f.records.On("Put", mock.Anything, mock.AnythingOfType("*record.Record")).Return(nil)

	rec, buffered, err := f.gw.CreateTransaction(ctx, userID, "Coffee", "food", decimal.NewFromFloat(-3.75), time.Now())
	require.NoError(t, err)

	assert.False(t, buffered)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, userID, rec.UserID)
	f.queue.AssertNotCalled(t, "Enqueue", mock.Anything, mock.Anything)
	f.assertExpectations(t)
}

func TestGateway_CreateTransaction_Offline(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID := uuid.New().String()

	var enqueued *syncqueue.Entry
	f.oracle.On("Reachable", mock.Anything).Return(false)
	f.records.On("Put", mock.Anything, mock.AnythingOfType("*record.Record")).Return(nil)
	f.queue.On("Enqueue", mock.Anything, mock.AnythingOfType("*syncqueue.Entry")).
		Run(func(args mock.Arguments) { enqueued = args.Get(1).(*syncqueue.Entry) }).
		Return(nil)

	rec, buffered, err := f.gw.CreateTransaction(ctx, userID, "Coffee", "food", decimal.NewFromFloat(-3.75), time.Now())
	require.NoError(t, err)

	assert.True(t, buffered)
	require.NotNil(t, enqueued)
	assert.Equal(t, rec.ID, enqueued.RecordID, "queue entry carries the same client-generated id")
	assert.Equal(t, syncqueue.OpCreate, enqueued.Op)
	f.remote.AssertNotCalled(t, "CreateRecord", mock.Anything, mock.Anything)
	f.assertExpectations(t)
}

func TestGateway_CreateTransaction_RemoteFailureBuffersSameID(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID := uuid.New().String()

	var attempted *record.Record
	var enqueued *syncqueue.Entry

	f.oracle.On("Reachable", mock.Anything).Return(true)
	f.remote.On("CreateRecord", mock.Anything, mock.AnythingOfType("*record.Record")).
		Run(func(args mock.Arguments) { attempted = args.Get(1).(*record.Record) }).
		Return(nil, errors.New("connection reset"))
	f.records.On("Put", mock.Anything, mock.AnythingOfType("*record.Record")).Return(nil)
	f.queue.On("Enqueue", mock.Anything, mock.AnythingOfType("*syncqueue.Entry")).
		Run(func(args mock.Arguments) { enqueued = args.Get(1).(*syncqueue.Entry) }).
		Return(nil)

	rec, buffered, err := f.gw.CreateTransaction(ctx, userID, "Coffee", "food", decimal.NewFromFloat(-3.75), time.Now())
	require.NoError(t, err)

	assert.True(t, buffered, "a failed remote call degrades to buffering, not an error")
	assert.Equal(t, attempted.ID, rec.ID, "the id must not change between attempt and buffer")
	assert.Equal(t, rec.ID, enqueued.RecordID)
	f.assertExpectations(t)
}

func TestGateway_CreateTransaction_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, _, err := f.gw.CreateTransaction(ctx, uuid.New().String(), "", "food", decimal.Zero, time.Now())
	assert.ErrorIs(t, err, record.ErrEmptyName)

	f.oracle.AssertNotCalled(t, "Reachable", mock.Anything)
}

func TestGateway_UpdateTransaction_Online(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := uuid.New().String()

	name := "Rent April"
	updates := &record.Updates{Name: &name}
	stored := &record.Record{ID: id, Name: name}

	f.oracle.On("Reachable", mock.Anything).Return(true)
	f.remote.On("UpdateRecord", mock.Anything, id, updates).Return(stored, nil)
	f.records.On("Put", mock.Anything, stored).Return(nil)

	rec, buffered, err := f.gw.UpdateTransaction(ctx, id, updates)
	require.NoError(t, err)

	assert.False(t, buffered)
	assert.Equal(t, stored, rec)
	f.assertExpectations(t)
}

func TestGateway_UpdateTransaction_OfflineMergesIntoCache(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := uuid.New().String()

	cached := &record.Record{
		ID:       id,
		UserID:   uuid.New().String(),
		Name:     "Rent",
		Category: "housing",
		Amount:   decimal.NewFromInt(-900),
	}
	newAmount := decimal.NewFromInt(-950)
	updates := &record.Updates{Amount: &newAmount}

	var enqueued *syncqueue.Entry
	f.oracle.On("Reachable", mock.Anything).Return(false)
	f.records.On("GetByID", mock.Anything, id).Return(cached, nil)
	f.records.On("Put", mock.Anything, mock.AnythingOfType("*record.Record")).Return(nil)
	f.queue.On("Enqueue", mock.Anything, mock.AnythingOfType("*syncqueue.Entry")).
		Run(func(args mock.Arguments) { enqueued = args.Get(1).(*syncqueue.Entry) }).
		Return(nil)

	rec, buffered, err := f.gw.UpdateTransaction(ctx, id, updates)
	require.NoError(t, err)

	assert.True(t, buffered)
	assert.True(t, newAmount.Equal(rec.Amount), "delta merged into the cached copy")
	assert.Equal(t, "Rent", rec.Name, "untouched fields preserved")
	assert.Equal(t, syncqueue.OpUpdate, enqueued.Op)
	f.assertExpectations(t)
}

func TestGateway_UpdateTransaction_EmptyUpdate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, _, err := f.gw.UpdateTransaction(ctx, uuid.New().String(), &record.Updates{})
	assert.ErrorIs(t, err, ErrEmptyUpdate)

	_, _, err = f.gw.UpdateTransaction(ctx, uuid.New().String(), nil)
	assert.ErrorIs(t, err, ErrEmptyUpdate)
}

func TestGateway_DeleteTransaction_Online(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := uuid.New().String()

	f.oracle.On("Reachable", mock.Anything).Return(true)
	f.remote.On("DeleteRecord", mock.Anything, id).Return(nil)
	f.records.On("Remove", mock.Anything, id).Return(nil)
	f.queue.On("ClearForRecord", mock.Anything, id).Return(nil)

	buffered, err := f.gw.DeleteTransaction(ctx, id)
	require.NoError(t, err)
	assert.False(t, buffered)
	f.assertExpectations(t)
}

func TestGateway_DeleteTransaction_OfflineSupersedesPending(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := uuid.New().String()

	var enqueued *syncqueue.Entry
	f.oracle.On("Reachable", mock.Anything).Return(false)
	f.queue.On("HasPendingCreate", mock.Anything, id).Return(false, nil)
	f.queue.On("ClearForRecord", mock.Anything, id).Return(nil)
	f.queue.On("Enqueue", mock.Anything, mock.AnythingOfType("*syncqueue.Entry")).
		Run(func(args mock.Arguments) { enqueued = args.Get(1).(*syncqueue.Entry) }).
		Return(nil)

	buffered, err := f.gw.DeleteTransaction(ctx, id)
	require.NoError(t, err)

	assert.True(t, buffered)
	assert.Equal(t, syncqueue.OpDelete, enqueued.Op)
	// The cached row stays until the delete is confirmed remotely.
	f.records.AssertNotCalled(t, "Remove", mock.Anything, mock.Anything)
	f.assertExpectations(t)
}

func TestGateway_DeleteTransaction_OfflineNeverSynced(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := uuid.New().String()

	f.oracle.On("Reachable", mock.Anything).Return(false)
	f.queue.On("HasPendingCreate", mock.Anything, id).Return(true, nil)
	f.queue.On("ClearForRecord", mock.Anything, id).Return(nil)
	f.records.On("Remove", mock.Anything, id).Return(nil)

	buffered, err := f.gw.DeleteTransaction(ctx, id)
	require.NoError(t, err)

	assert.True(t, buffered)
	// Created and deleted entirely offline: nothing to replay.
	f.queue.AssertNotCalled(t, "Enqueue", mock.Anything, mock.Anything)
	f.assertExpectations(t)
}

func TestGateway_ListTransactions_OnlineRefreshesCache(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID := uuid.New().String()

	remoteRecords := []*record.Record{
		{ID: uuid.New().String(), UserID: userID, Name: "Salary"},
		{ID: uuid.New().String(), UserID: userID, Name: "Coffee"},
	}

	f.oracle.On("Reachable", mock.Anything).Return(true)
	f.remote.On("QueryRecords", mock.Anything, userID, 30).Return(remoteRecords, nil)
	f.records.On("Put", mock.Anything, remoteRecords[0]).Return(nil)
	f.records.On("Put", mock.Anything, remoteRecords[1]).Return(nil)

	records, fromCache, err := f.gw.ListTransactions(ctx, userID, 30)
	require.NoError(t, err)

	assert.False(t, fromCache)
	assert.Equal(t, remoteRecords, records)
	f.assertExpectations(t)
}

func TestGateway_ListTransactions_EmptyRemoteFallsBackToCache(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID := uuid.New().String()

	cached := []*record.Record{
		{ID: uuid.New().String(), UserID: userID, Name: "Coffee", Date: time.Now()},
	}

	f.oracle.On("Reachable", mock.Anything).Return(true)
	f.remote.On("QueryRecords", mock.Anything, userID, 30).Return([]*record.Record{}, nil)
	f.records.On("GetAll", mock.Anything, userID).Return(cached)
	f.queue.On("PendingDeleteIDs", mock.Anything).Return(map[string]struct{}{}, nil)

	records, fromCache, err := f.gw.ListTransactions(ctx, userID, 30)
	require.NoError(t, err)

	assert.True(t, fromCache, "an empty remote answer falls back to the cache")
	assert.Equal(t, cached, records)
	f.assertExpectations(t)
}

func TestGateway_ListTransactions_OfflineMasksPendingDeletes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID := uuid.New().String()

	older := &record.Record{ID: uuid.New().String(), UserID: userID, Name: "Old", Date: time.Now().Add(-48 * time.Hour)}
	newer := &record.Record{ID: uuid.New().String(), UserID: userID, Name: "New", Date: time.Now()}
	doomed := &record.Record{ID: uuid.New().String(), UserID: userID, Name: "Doomed", Date: time.Now().Add(-time.Hour)}

	f.oracle.On("Reachable", mock.Anything).Return(false)
	f.records.On("GetAll", mock.Anything, userID).Return([]*record.Record{older, doomed, newer})
	f.queue.On("PendingDeleteIDs", mock.Anything).Return(map[string]struct{}{doomed.ID: {}}, nil)

	records, fromCache, err := f.gw.ListTransactions(ctx, userID, 30)
	require.NoError(t, err)

	assert.True(t, fromCache)
	require.Len(t, records, 2, "record with a pending delete is hidden")
	assert.Equal(t, newer.ID, records[0].ID, "newest first")
	assert.Equal(t, older.ID, records[1].ID)
	f.assertExpectations(t)
}

func TestGateway_ListTransactions_OfflineAppliesLimit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID := uuid.New().String()

	var cached []*record.Record
	for i := 0; i < 5; i++ {
		cached = append(cached, &record.Record{
			ID:     uuid.New().String(),
			UserID: userID,
			Date:   time.Now().Add(-time.Duration(i) * time.Hour),
		})
	}

	f.oracle.On("Reachable", mock.Anything).Return(false)
	f.records.On("GetAll", mock.Anything, userID).Return(cached)
	f.queue.On("PendingDeleteIDs", mock.Anything).Return(map[string]struct{}{}, nil)

	records, _, err := f.gw.ListTransactions(ctx, userID, 3)
	require.NoError(t, err)
	assert.Len(t, records, 3)
}
