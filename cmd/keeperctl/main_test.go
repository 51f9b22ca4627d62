package main

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRun_CreateUnderRootWithoutConfig(t *testing.T) {
	// The documented invocation: no config file, a chroot, a create. The
	// chroot node must be bootstrapped on the fresh in-memory tree before the
	// chrooted client validates it.
	err := run(zap.NewNop(), "", "/demo", []string{"create", "/node", "somedata"})
	require.NoError(t, err)
}

func TestRun_NestedRootWithoutConfig(t *testing.T) {
	err := run(zap.NewNop(), "", "/apps/demo", []string{"create", "/node"})
	require.NoError(t, err)
}

func TestRun_RootTrailingSlash(t *testing.T) {
	err := run(zap.NewNop(), "", "/demo/", []string{"create", "/node"})
	require.NoError(t, err)
}

func TestRun_WithoutRoot(t *testing.T) {
	err := run(zap.NewNop(), "", "", []string{"create", "/node", "data"})
	require.NoError(t, err)
}

func TestRun_UnknownCommand(t *testing.T) {
	err := run(zap.NewNop(), "", "", []string{"frobnicate"})
	require.Error(t, err)
}
