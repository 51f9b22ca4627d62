package hosts

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikekulinski/keeperclient/pkg/coordination"
)

func TestShuffle_Permutation(t *testing.T) {
	configured := []string{"a:2181", "b:2181", "c:2181", "d:2181"}

	for i := 0; i < 100; i++ {
		shuffled := Shuffle(configured, Random())
		require.Len(t, shuffled, len(configured))

		seen := map[string]int{}
		for _, host := range shuffled {
			seen[host.Host]++
		}
		for _, host := range configured {
			assert.Equal(t, 1, seen[host], "host %s should appear exactly once", host)
		}
	}
}

func TestShuffle_PriorityOrdering(t *testing.T) {
	configured := []string{"a:2181", "b:2181", "c:2181"}

	tests := []struct {
		name   string
		policy Policy
		// wantFirst is the host that must always sort first, if any.
		wantFirst string
		// wantOrder is the exact expected order, if fully deterministic.
		wantOrder []string
	}{
		{
			name:      "in order is fully deterministic",
			policy:    InOrder(),
			wantOrder: []string{"a:2181", "b:2181", "c:2181"},
		},
		{
			name:      "first or random pins the first host",
			policy:    FirstOrRandom(),
			wantFirst: "a:2181",
		},
		{
			name:      "nearest hostname prefers the closest name",
			policy:    NearestHostname("a", configured),
			wantFirst: "a:2181",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			for i := 0; i < 50; i++ {
				shuffled := Shuffle(configured, test.policy)
				require.Len(t, shuffled, len(configured))
				if test.wantFirst != "" {
					assert.Equal(t, test.wantFirst, shuffled[0].Host)
				}
				if test.wantOrder != nil {
					var order []string
					for _, host := range shuffled {
						order = append(order, host.Host)
					}
					assert.Equal(t, test.wantOrder, order)
				}
			}
		})
	}
}

// TestShuffle_TieBreakDistribution verifies that equal priority hosts land in
// the first position with roughly equal frequency over repeated shuffles.
func TestShuffle_TieBreakDistribution(t *testing.T) {
	configured := []string{"a:2181", "b:2181"}
	const runs = 2000

	first := map[string]int{}
	for i := 0; i < runs; i++ {
		shuffled := Shuffle(configured, Random())
		first[shuffled[0].Host]++
	}

	// Each host should win the first slot in roughly half the runs. A bound
	// of 35% keeps the test stable while still catching a broken tie-break.
	for _, host := range configured {
		assert.Greater(t, first[host], runs*35/100, "host %s first-position count", host)
	}
}

func TestShuffle_RoundRobinRotates(t *testing.T) {
	configured := []string{"a:2181", "b:2181", "c:2181"}
	policy := RoundRobin()

	var preferred []string
	for i := 0; i < 3; i++ {
		shuffled := Shuffle(configured, policy)
		preferred = append(preferred, shuffled[0].Host)
	}
	assert.Equal(t, []string{"a:2181", "b:2181", "c:2181"}, preferred)
}

func TestShuffle_SecureMarker(t *testing.T) {
	shuffled := Shuffle([]string{"secure://a:2281", "b:2181"}, InOrder())
	require.Len(t, shuffled, 2)
	assert.Equal(t, "a:2281", shuffled[0].Host)
	assert.True(t, shuffled[0].Secure)
	assert.Equal(t, "b:2181", shuffled[1].Host)
	assert.False(t, shuffled[1].Secure)
}

func TestHostnameDifference(t *testing.T) {
	assert.Equal(t, int64(0), hostnameDifference("zk-eu-1", "zk-eu-1"))
	assert.Equal(t, int64(1), hostnameDifference("zk-eu-1", "zk-eu-2"))
	assert.Equal(t, int64(4), hostnameDifference("zk-eu-1", "zk-eu-1.int"))
}

func TestResolver_Resolve(t *testing.T) {
	notFound := &net.DNSError{Err: "no such host", Name: "missing", IsNotFound: true}
	unavailable := &net.DNSError{Err: "server misbehaving", Name: "any", IsTemporary: true}

	tests := []struct {
		name       string
		hosts      []ShuffledHost
		lookup     func(ctx context.Context, host string) ([]string, error)
		wantAddrs  []string
		wantCode   coordination.Code
		wantSecure bool
	}{
		{
			name:      "ip literals skip lookup",
			hosts:     []ShuffledHost{{Host: "127.0.0.1:2181"}},
			lookup:    nil,
			wantAddrs: []string{"127.0.0.1:2181"},
		},
		{
			name:  "hostnames resolve to the first address",
			hosts: []ShuffledHost{{Host: "zk1:2181", Secure: true}},
			lookup: func(_ context.Context, host string) ([]string, error) {
				return []string{"10.0.0.7", "10.0.0.8"}, nil
			},
			wantAddrs:  []string{"10.0.0.7:2181"},
			wantSecure: true,
		},
		{
			name:  "unresolvable hosts are dropped",
			hosts: []ShuffledHost{{Host: "missing:2181"}, {Host: "127.0.0.1:2181"}},
			lookup: func(_ context.Context, host string) ([]string, error) {
				return nil, notFound
			},
			wantAddrs: []string{"127.0.0.1:2181"},
		},
		{
			name:  "all hosts missing is a configuration error",
			hosts: []ShuffledHost{{Host: "missing:2181"}},
			lookup: func(_ context.Context, host string) ([]string, error) {
				return nil, notFound
			},
			wantCode: coordination.BadArguments,
		},
		{
			name:  "dns outage is a connection error",
			hosts: []ShuffledHost{{Host: "zk1:2181"}, {Host: "zk2:2181"}},
			lookup: func(_ context.Context, host string) ([]string, error) {
				return nil, unavailable
			},
			wantCode: coordination.ConnectionLoss,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			r := &Resolver{LookupHost: test.lookup}
			nodes, err := r.Resolve(context.Background(), test.hosts)
			if test.wantCode != coordination.Ok {
				require.Error(t, err)
				var keeperErr *coordination.KeeperError
				require.True(t, errors.As(err, &keeperErr))
				assert.Equal(t, test.wantCode, keeperErr.Code)
				return
			}
			require.NoError(t, err)
			var addrs []string
			for _, node := range nodes {
				addrs = append(addrs, node.Address)
			}
			assert.Equal(t, test.wantAddrs, addrs)
			if test.wantSecure {
				assert.True(t, nodes[0].Secure)
			}
		})
	}
}
