// Package keeper is a synchronous client for a distributed hierarchical
// coordination service. It layers host selection, session bootstrap,
// deadline enforcement and error classification on top of an asynchronous
// protocol engine, and adds multi-operation transactions, recursive subtree
// deletion and watch-based waiting.
package keeper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mikekulinski/keeperclient/pkg/coordination"
	"github.com/mikekulinski/keeperclient/pkg/hosts"
	"github.com/mikekulinski/keeperclient/pkg/memkeeper"
)

const (
	ImplementationZooKeeper  = "zookeeper"
	ImplementationTestKeeper = "testkeeper"

	DefaultSessionTimeout   = 30 * time.Second
	DefaultOperationTimeout = 10 * time.Second
)

// Config carries everything needed to establish a session. A client never
// mutates its config: reconnecting always builds a fresh client from the
// same values.
type Config struct {
	// Hosts is the ordered endpoint list. Entries may carry the
	// hosts.SecureScheme prefix to request a secure transport.
	Hosts []string
	// Identity is the optional credential string sent at session start.
	Identity string
	// SessionTimeout bounds how long the server keeps the session alive
	// without heartbeats.
	SessionTimeout time.Duration
	// OperationTimeout bounds every blocking call. A call that misses the
	// deadline terminates the session.
	OperationTimeout time.Duration
	// Chroot, when set, is transparently prepended to every path and
	// stripped from every result. Must start with '/'.
	Chroot string
	// Policy ranks hosts for connection order. Defaults to hosts.Random.
	Policy hosts.Policy
	// Implementation selects the engine: "zookeeper" (requires an injected
	// engine factory) or "testkeeper" (in-memory).
	Implementation string
}

// EngineConfig is what an engine factory receives to build a session.
type EngineConfig struct {
	Nodes            []hosts.Node
	Identity         string
	SessionTimeout   time.Duration
	OperationTimeout time.Duration
	Log              *zap.Logger
}

// EngineFactory builds a protocol engine session. The wire engine lives
// outside this module and is plugged in here.
type EngineFactory func(cfg EngineConfig) (coordination.Engine, error)

type options struct {
	log      *zap.Logger
	factory  EngineFactory
	resolver *hosts.Resolver
}

type Option func(*options)

// WithLogger attaches a logger to the client. The default is a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithEngineFactory injects the protocol engine constructor. Required for
// the "zookeeper" implementation; for "testkeeper" it can be used to share
// one in-memory tree between several clients.
func WithEngineFactory(factory EngineFactory) Option {
	return func(o *options) { o.factory = factory }
}

// WithResolver overrides DNS resolution, mainly for tests.
func WithResolver(resolver *hosts.Resolver) Option {
	return func(o *options) { o.resolver = resolver }
}

// Client is a session-bound handle to the coordination service. It is safe
// for concurrent use; each call blocks its own goroutine only. Once the
// session expires (timeout, Close, or server-side expiry) the client is
// dead: build a replacement with StartNewSession.
type Client struct {
	cfg Config
	// baseLog is the injected logger before the client_id field is attached;
	// replacement sessions start from it so the field is tagged exactly once.
	baseLog  *zap.Logger
	log      *zap.Logger
	clientID string
	factory  EngineFactory
	resolver *hosts.Resolver
	impl     coordination.Engine
}

// New establishes a session against the configured hosts and, if a chroot is
// configured, verifies the root node exists before returning.
func New(ctx context.Context, cfg Config, opts ...Option) (*Client, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.log == nil {
		o.log = zap.NewNop()
	}

	if cfg.SessionTimeout == 0 {
		cfg.SessionTimeout = DefaultSessionTimeout
	}
	if cfg.OperationTimeout == 0 {
		cfg.OperationTimeout = DefaultOperationTimeout
	}
	if cfg.Implementation == "" {
		cfg.Implementation = ImplementationZooKeeper
	}
	if cfg.Chroot != "" {
		chroot, err := NormalizePath(cfg.Chroot, true, o.log)
		if err != nil {
			return nil, err
		}
		cfg.Chroot = chroot
	}

	c := &Client{
		cfg:      cfg,
		baseLog:  o.log,
		clientID: uuid.New().String(),
		factory:  o.factory,
		resolver: o.resolver,
	}
	c.log = o.log.With(zap.String("client_id", c.clientID))

	if err := c.connect(ctx); err != nil {
		return nil, err
	}
	if err := c.validateRoot(); err != nil {
		c.impl.Terminate("root validation failed")
		return nil, err
	}

	if cfg.Chroot == "" {
		c.log.Info("initialized", zap.Strings("hosts", cfg.Hosts))
	} else {
		c.log.Info("initialized", zap.Strings("hosts", cfg.Hosts), zap.String("chroot", cfg.Chroot))
	}
	return c, nil
}

func (c *Client) connect(ctx context.Context) error {
	switch c.cfg.Implementation {
	case ImplementationZooKeeper:
		if len(c.cfg.Hosts) == 0 {
			return &coordination.KeeperError{
				Code:    coordination.BadArguments,
				Message: "no hosts passed to the client constructor",
			}
		}
		if c.factory == nil {
			return &coordination.KeeperError{
				Code:    coordination.Unimplemented,
				Message: "no engine factory provided for the zookeeper implementation",
			}
		}

		shuffled := hosts.Shuffle(c.cfg.Hosts, c.cfg.Policy)
		resolver := c.resolver
		if resolver == nil {
			resolver = &hosts.Resolver{Log: c.log}
		}
		nodes, err := resolver.Resolve(ctx, shuffled)
		if err != nil {
			return err
		}
		return c.buildEngine(nodes)
	case ImplementationTestKeeper:
		factory := c.factory
		if factory == nil {
			factory = func(cfg EngineConfig) (coordination.Engine, error) {
				return memkeeper.New(cfg.Log).NewSession(), nil
			}
			c.factory = factory
		}
		return c.buildEngine(nil)
	}
	return &coordination.KeeperError{
		Code:    coordination.Unimplemented,
		Message: fmt.Sprintf("unknown implementation of coordination service: %q", c.cfg.Implementation),
	}
}

func (c *Client) buildEngine(nodes []hosts.Node) error {
	engine, err := c.factory(EngineConfig{
		Nodes:            nodes,
		Identity:         c.cfg.Identity,
		SessionTimeout:   c.cfg.SessionTimeout,
		OperationTimeout: c.cfg.OperationTimeout,
		Log:              c.log,
	})
	if err != nil {
		return fmt.Errorf("building engine: %w", err)
	}
	c.impl = engine
	return nil
}

// validateRoot checks that the configured chroot node exists. The check is
// bounded by the operation timeout so that a stuck engine cannot block
// construction forever.
func (c *Client) validateRoot() error {
	if c.cfg.Chroot == "" {
		return nil
	}

	req := &coordination.ExistsRequest{Path: c.withChroot("/")}
	f := submit[*coordination.ExistsResponse](c, req, nil)

	timer := time.NewTimer(c.cfg.OperationTimeout)
	defer timer.Stop()
	select {
	case resp := <-f.ch:
		code := resp.Err()
		if code == coordination.NoNode {
			return &coordination.KeeperError{
				Code:    coordination.NoNode,
				Path:    "/",
				Message: fmt.Sprintf("coordination root doesn't exist; you should create root node %s before start", c.cfg.Chroot),
			}
		}
		if code != coordination.Ok {
			return coordination.NewKeeperError(code, "/")
		}
		return nil
	case <-timer.C:
		return &coordination.KeeperError{
			Code:    coordination.OperationTimeout,
			Message: "cannot check if coordination root exists",
		}
	}
}

// StartNewSession builds a replacement client from the same configuration.
// The receiver is left untouched: sessions are superseded, never repaired.
func (c *Client) StartNewSession(ctx context.Context) (*Client, error) {
	var opts []Option
	opts = append(opts, WithLogger(c.baseLog))
	if c.factory != nil {
		opts = append(opts, WithEngineFactory(c.factory))
	}
	if c.resolver != nil {
		opts = append(opts, WithResolver(c.resolver))
	}
	return New(ctx, c.cfg, opts...)
}

// Expired reports whether the session backing this client is gone.
func (c *Client) Expired() bool {
	return c.impl.IsExpired()
}

// SessionID returns the server-assigned session identifier.
func (c *Client) SessionID() int64 {
	return c.impl.SessionID()
}

// Close terminates the session. Ephemeral nodes owned by it are released.
func (c *Client) Close() {
	c.impl.Terminate("client closed")
}

// withChroot rewrites a caller path into the engine's namespace.
func (c *Client) withChroot(path string) string {
	if c.cfg.Chroot == "" {
		return path
	}
	if path == "/" {
		return c.cfg.Chroot
	}
	return c.cfg.Chroot + path
}

// stripChroot rewrites an engine path back into the caller's namespace.
func (c *Client) stripChroot(path string) string {
	if c.cfg.Chroot == "" || path == "" {
		return path
	}
	stripped := strings.TrimPrefix(path, c.cfg.Chroot)
	if stripped == "" {
		return "/"
	}
	return stripped
}
