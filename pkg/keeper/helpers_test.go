package keeper

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mikekulinski/keeperclient/pkg/coordination"
	"github.com/mikekulinski/keeperclient/pkg/memkeeper"
)

// newTestClient builds a client backed by the given in-memory tree. Several
// clients can share one tree to simulate concurrent sessions.
func newTestClient(t *testing.T, tree *memkeeper.Keeper, chroot string) *Client {
	t.Helper()

	client, err := New(context.Background(), Config{
		Hosts:            []string{"127.0.0.1:2181"},
		OperationTimeout: 5 * time.Second,
		Chroot:           chroot,
		Implementation:   ImplementationTestKeeper,
	}, WithEngineFactory(func(EngineConfig) (coordination.Engine, error) {
		return tree.NewSession(), nil
	}))
	require.NoError(t, err)
	t.Cleanup(client.Close)
	return client
}

// hookedEngine wraps an engine so tests can observe or interfere with
// submissions before they reach it.
type hookedEngine struct {
	coordination.Engine
	onSubmit func(req coordination.Request)
}

func (e *hookedEngine) Submit(req coordination.Request, onComplete func(coordination.Response), onWatch coordination.WatchFn) {
	if e.onSubmit != nil {
		e.onSubmit(req)
	}
	e.Engine.Submit(req, onComplete, onWatch)
}

// newHookedClient is newTestClient with a submission hook installed.
func newHookedClient(t *testing.T, tree *memkeeper.Keeper, onSubmit func(req coordination.Request)) *Client {
	t.Helper()

	client, err := New(context.Background(), Config{
		Hosts:            []string{"127.0.0.1:2181"},
		OperationTimeout: 5 * time.Second,
		Implementation:   ImplementationTestKeeper,
	}, WithEngineFactory(func(EngineConfig) (coordination.Engine, error) {
		return &hookedEngine{Engine: tree.NewSession(), onSubmit: onSubmit}, nil
	}))
	require.NoError(t, err)
	t.Cleanup(client.Close)
	return client
}
