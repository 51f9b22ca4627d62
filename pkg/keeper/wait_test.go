package keeper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikekulinski/keeperclient/pkg/coordination"
	"github.com/mikekulinski/keeperclient/pkg/memkeeper"
)

func TestWaitForDisappear_AlreadyGone(t *testing.T) {
	client := newTestClient(t, memkeeper.New(nil), "")

	start := time.Now()
	disappeared, err := client.WaitForDisappear("/never-existed", nil)
	require.NoError(t, err)
	assert.True(t, disappeared)
	assert.Less(t, time.Since(start), waitSlice)
}

func TestWaitForDisappear_DeletedWhileWaiting(t *testing.T) {
	tree := memkeeper.New(nil)
	waiter := newTestClient(t, tree, "")
	deleter := newTestClient(t, tree, "")

	_, err := waiter.Create("/doomed", nil, coordination.ModePersistent)
	require.NoError(t, err)

	go func() {
		time.Sleep(100 * time.Millisecond)
		_ = deleter.Remove("/doomed", coordination.AnyVersion)
	}()

	start := time.Now()
	disappeared, err := waiter.WaitForDisappear("/doomed", nil)
	require.NoError(t, err)
	assert.True(t, disappeared)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestWaitForDisappear_ConditionGivesUp(t *testing.T) {
	client := newTestClient(t, memkeeper.New(nil), "")
	_, err := client.Create("/persistent", nil, coordination.ModePersistent)
	require.NoError(t, err)

	calls := 0
	disappeared, err := client.WaitForDisappear("/persistent", func() bool {
		calls++
		return calls < 2
	})
	require.NoError(t, err)
	assert.False(t, disappeared)
	assert.Equal(t, 2, calls)

	// The node is still there; giving up did not remove anything.
	found, _, err := client.Exists("/persistent")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestWaitForDisappear_SessionExpiry(t *testing.T) {
	tree := memkeeper.New(nil)
	waiter := newTestClient(t, tree, "")

	_, err := waiter.Create("/held", nil, coordination.ModePersistent)
	require.NoError(t, err)

	go func() {
		time.Sleep(100 * time.Millisecond)
		waiter.Close()
	}()

	// Losing the session mid-wait must fail the wait, not hang it.
	_, err = waiter.WaitForDisappear("/held", nil)
	require.Error(t, err)
}
