package keeper

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/mikekulinski/keeperclient/pkg/coordination"
	mock_coordination "github.com/mikekulinski/keeperclient/pkg/coordination/mocks"
	"github.com/mikekulinski/keeperclient/pkg/memkeeper"
)

func TestMulti_Commit(t *testing.T) {
	client := newTestClient(t, memkeeper.New(nil), "")
	_, err := client.Create("/dir", nil, coordination.ModePersistent)
	require.NoError(t, err)

	responses, err := client.Multi([]coordination.Request{
		coordination.NewCreateRequest("/dir/a", []byte("a"), coordination.ModePersistent),
		coordination.NewCreateRequest("/dir/b", nil, coordination.ModePersistent),
		coordination.NewSetRequest("/dir/a", []byte("a2"), 0),
		coordination.NewRemoveRequest("/dir/b", coordination.AnyVersion),
	})
	require.NoError(t, err)
	require.Len(t, responses, 4)

	created, ok := responses[0].(*coordination.CreateResponse)
	require.True(t, ok)
	assert.Equal(t, "/dir/a", created.PathCreated)

	data, stat, err := client.Get("/dir/a")
	require.NoError(t, err)
	assert.Equal(t, []byte("a2"), data)
	assert.Equal(t, int32(1), stat.Version)

	found, _, err := client.Exists("/dir/b")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMulti_RollsBackOnFailure(t *testing.T) {
	client := newTestClient(t, memkeeper.New(nil), "")
	_, err := client.Create("/node", []byte("v"), coordination.ModePersistent)
	require.NoError(t, err)

	_, err = client.Multi([]coordination.Request{
		coordination.NewCreateRequest("/created", nil, coordination.ModePersistent),
		coordination.NewCheckRequest("/node", 42),
		coordination.NewRemoveRequest("/node", coordination.AnyVersion),
	})
	require.Error(t, err)

	var multiErr *coordination.MultiError
	require.True(t, errors.As(err, &multiErr))
	assert.Equal(t, coordination.BadVersion, multiErr.Code)
	assert.Equal(t, 1, multiErr.FailedOpIndex)
	assert.Equal(t, "/node", multiErr.FailedOpPath())

	// Operations before the failed one report Ok, the failed one its own
	// code, the rest the inconsistency marker.
	require.Len(t, multiErr.Responses, 3)
	assert.Equal(t, coordination.Ok, multiErr.Responses[0].Err())
	assert.Equal(t, coordination.BadVersion, multiErr.Responses[1].Err())
	assert.Equal(t, coordination.RuntimeInconsistency, multiErr.Responses[2].Err())

	// Nothing was applied.
	found, _, err := client.Exists("/created")
	require.NoError(t, err)
	assert.False(t, found)
	found, _, err = client.Exists("/node")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestTryMulti_UserErrorAsCode(t *testing.T) {
	client := newTestClient(t, memkeeper.New(nil), "")

	responses, code, err := client.TryMulti([]coordination.Request{
		coordination.NewRemoveRequest("/missing", coordination.AnyVersion),
	})
	require.NoError(t, err)
	assert.Equal(t, coordination.NoNode, code)
	require.Len(t, responses, 1)
	assert.Equal(t, coordination.NoNode, responses[0].Err())
}

func TestMulti_Empty(t *testing.T) {
	// An empty transaction must not touch the engine at all. The mock has no
	// Submit expectation, so any round trip fails the test.
	ctrl := gomock.NewController(t)
	engine := mock_coordination.NewMockEngine(ctrl)

	client, err := New(context.Background(), Config{
		Hosts:          []string{"127.0.0.1:2181"},
		Implementation: ImplementationTestKeeper,
	}, WithEngineFactory(func(EngineConfig) (coordination.Engine, error) {
		return engine, nil
	}))
	require.NoError(t, err)

	responses, err := client.Multi(nil)
	require.NoError(t, err)
	assert.Empty(t, responses)

	responses, code, err := client.TryMulti([]coordination.Request{})
	require.NoError(t, err)
	assert.Equal(t, coordination.Ok, code)
	assert.Empty(t, responses)
}

func TestMulti_ChrootRewriting(t *testing.T) {
	tree := memkeeper.New(nil)
	admin := newTestClient(t, tree, "")
	_, err := admin.Create("/app", nil, coordination.ModePersistent)
	require.NoError(t, err)

	scoped := newTestClient(t, tree, "/app")

	ops := []coordination.Request{
		coordination.NewCreateRequest("/x", nil, coordination.ModePersistent),
	}
	responses, err := scoped.Multi(ops)
	require.NoError(t, err)

	// The caller's request is untouched and the created path is reported in
	// the caller namespace.
	assert.Equal(t, "/x", ops[0].GetPath())
	created, ok := responses[0].(*coordination.CreateResponse)
	require.True(t, ok)
	assert.Equal(t, "/x", created.PathCreated)

	found, _, err := admin.Exists("/app/x")
	require.NoError(t, err)
	assert.True(t, found)
}
