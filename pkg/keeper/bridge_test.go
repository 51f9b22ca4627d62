package keeper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/mikekulinski/keeperclient/pkg/coordination"
	mock_coordination "github.com/mikekulinski/keeperclient/pkg/coordination/mocks"
)

func newMockClient(t *testing.T, engine *mock_coordination.MockEngine) *Client {
	t.Helper()

	client, err := New(context.Background(), Config{
		Hosts:            []string{"127.0.0.1:2181"},
		OperationTimeout: 50 * time.Millisecond,
		Implementation:   ImplementationTestKeeper,
	}, WithEngineFactory(func(EngineConfig) (coordination.Engine, error) {
		return engine, nil
	}))
	require.NoError(t, err)
	return client
}

func TestAwait_TimeoutTerminatesSession(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := mock_coordination.NewMockEngine(ctrl)
	client := newMockClient(t, engine)

	// The engine swallows the request. The call must come back with the
	// timeout code after the operation timeout, and the session must be torn
	// down so later callers cannot block on a wedged connection.
	engine.EXPECT().Submit(gomock.Any(), gomock.Any(), gomock.Any())
	engine.EXPECT().Terminate("operation timeout on Get /stuck")

	start := time.Now()
	_, _, code, err := client.TryGet("/stuck")
	assert.Less(t, time.Since(start), time.Second)

	require.Error(t, err)
	assert.Equal(t, coordination.OperationTimeout, code)

	var keeperErr *coordination.KeeperError
	require.True(t, errors.As(err, &keeperErr))
	assert.Equal(t, coordination.OperationTimeout, keeperErr.Code)
}

func TestAwait_CallAfterTimeoutFailsFast(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := mock_coordination.NewMockEngine(ctrl)
	client := newMockClient(t, engine)

	engine.EXPECT().Submit(gomock.Any(), gomock.Any(), gomock.Any())
	engine.EXPECT().Terminate(gomock.Any())

	_, _, _, err := client.TryGet("/stuck")
	require.Error(t, err)

	// After termination the engine rejects submissions immediately, the way
	// a real expired session does.
	engine.EXPECT().Submit(gomock.Any(), gomock.Any(), gomock.Any()).Do(
		func(req coordination.Request, onComplete func(coordination.Response), _ coordination.WatchFn) {
			onComplete(&coordination.GetResponse{Code: coordination.SessionExpired})
		})
	engine.EXPECT().IsExpired().Return(true)

	start := time.Now()
	_, _, _, err = client.TryGet("/stuck")
	assert.Less(t, time.Since(start), 50*time.Millisecond)

	var keeperErr *coordination.KeeperError
	require.True(t, errors.As(err, &keeperErr))
	assert.Equal(t, coordination.SessionExpired, keeperErr.Code)
	assert.True(t, client.Expired())
}

func TestAwait_LateCompletionIsDropped(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := mock_coordination.NewMockEngine(ctrl)
	client := newMockClient(t, engine)

	var late func(coordination.Response)
	engine.EXPECT().Submit(gomock.Any(), gomock.Any(), gomock.Any()).Do(
		func(req coordination.Request, onComplete func(coordination.Response), _ coordination.WatchFn) {
			late = onComplete
		})
	engine.EXPECT().Terminate(gomock.Any())

	_, _, code, err := client.TryGet("/slow")
	require.Error(t, err)
	assert.Equal(t, coordination.OperationTimeout, code)

	// A completion arriving after the bridge gave up must not panic or
	// block; the buffered slot just absorbs it.
	late(&coordination.GetResponse{Code: coordination.Ok, Data: []byte("too late")})
}
