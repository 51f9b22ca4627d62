package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikekulinski/keeperclient/pkg/keeper"
)

func TestLoad(t *testing.T) {
	args, err := Load(strings.NewReader(`
nodes:
  - host: zk1.example.com
    port: 2181
  - host: zk2.example.com
    port: 9181
    secure: true
  - host: zk3.example.com
session_timeout_ms: 15000
operation_timeout_ms: 5000
identity: "user:password"
root: /clickhouse/
load_balancing: in_order
`))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"zk1.example.com:2181",
		"secure://zk2.example.com:9181",
		"zk3.example.com:2181",
	}, args.Hosts())
	assert.Equal(t, 15000, args.SessionTimeoutMs)
	assert.Equal(t, 5000, args.OperationTimeoutMs)
	assert.Equal(t, "user:password", args.Identity)
	assert.Equal(t, "/clickhouse", args.Root, "trailing slash is trimmed")
	assert.Equal(t, keeper.ImplementationZooKeeper, args.Implementation)
}

func TestLoad_Defaults(t *testing.T) {
	args, err := Load(strings.NewReader(`
nodes:
  - host: localhost
`))
	require.NoError(t, err)

	assert.Equal(t, DefaultSessionTimeoutMs, args.SessionTimeoutMs)
	assert.Equal(t, DefaultOperationTimeoutMs, args.OperationTimeoutMs)
	assert.Empty(t, args.Root)

	cfg, err := args.ClientConfig()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.SessionTimeout)
	assert.Equal(t, 10*time.Second, cfg.OperationTimeout)
	assert.Equal(t, keeper.ImplementationZooKeeper, cfg.Implementation)
	assert.NotNil(t, cfg.Policy)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "unknown key",
			yaml:    "sesion_timeout_ms: 1000",
			wantErr: "parsing configuration",
		},
		{
			name:    "relative root",
			yaml:    "root: clickhouse",
			wantErr: "root path in configuration should start with '/'",
		},
		{
			name:    "unknown load balancing",
			yaml:    "load_balancing: fastest",
			wantErr: `unknown load balancing: "fastest"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPolicyNames(t *testing.T) {
	for _, name := range []string{"", "random", "in_order", "first_or_random", "round_robin", "nearest_hostname"} {
		t.Run("name="+name, func(t *testing.T) {
			args := &Args{LoadBalancing: name}
			policy, err := args.Policy()
			require.NoError(t, err)
			assert.NotNil(t, policy)
		})
	}
}
