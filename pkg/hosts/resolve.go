package hosts

import (
	"context"
	"errors"
	"net"

	"go.uber.org/zap"

	"github.com/mikekulinski/keeperclient/pkg/coordination"
)

// Node is a resolved endpoint, ready to be handed to a protocol engine.
type Node struct {
	Address string
	Secure  bool
}

// Resolver turns shuffled hosts into dialable nodes. The lookup function is
// swappable for tests; the zero value uses the default system resolver and a
// no-op logger.
type Resolver struct {
	LookupHost func(ctx context.Context, host string) ([]string, error)
	Log        *zap.Logger
}

// Resolve resolves each shuffled host in order, dropping hosts that fail to
// resolve. A host that does not exist is most likely a misconfiguration and
// only costs a warning; a DNS class failure (server unreachable, timeout) is
// also tolerated per host but remembered.
//
// If no host resolves at all, the returned error carries ConnectionLoss when
// any failure was DNS class, so callers treat it as a transient connectivity
// problem instead of a configuration error. Otherwise it carries
// BadArguments.
func (r *Resolver) Resolve(ctx context.Context, shuffled []ShuffledHost) ([]Node, error) {
	lookup := r.LookupHost
	if lookup == nil {
		lookup = net.DefaultResolver.LookupHost
	}
	log := r.Log
	if log == nil {
		log = zap.NewNop()
	}

	var nodes []Node
	dnsError := false
	for _, host := range shuffled {
		name, port, err := net.SplitHostPort(host.Host)
		if err != nil {
			log.Warn("cannot use malformed host", zap.String("host", host.Host), zap.Error(err))
			continue
		}

		if ip := net.ParseIP(name); ip != nil {
			nodes = append(nodes, Node{Address: net.JoinHostPort(name, port), Secure: host.Secure})
			continue
		}

		addrs, err := lookup(ctx, name)
		if err != nil || len(addrs) == 0 {
			var dnsErr *net.DNSError
			if errors.As(err, &dnsErr) && !dnsErr.IsNotFound {
				// Most likely DNS is not available right now.
				dnsError = true
				log.Error("cannot use host due to DNS error", zap.String("host", host.Host), zap.Error(err))
			} else {
				// Most likely a wrong hostname was configured.
				log.Error("cannot use host", zap.String("host", host.Host), zap.Error(err))
			}
			continue
		}
		nodes = append(nodes, Node{Address: net.JoinHostPort(addrs[0], port), Secure: host.Secure})
	}

	if len(nodes) == 0 {
		if dnsError {
			return nil, &coordination.KeeperError{
				Code:    coordination.ConnectionLoss,
				Message: "cannot resolve any of the provided hosts due to DNS error",
			}
		}
		return nil, &coordination.KeeperError{
			Code:    coordination.BadArguments,
			Message: "cannot use any of the provided hosts",
		}
	}
	return nodes, nil
}
