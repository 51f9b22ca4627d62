// Package config extracts the client construction parameters from a YAML
// configuration section.
package config

import (
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mikekulinski/keeperclient/pkg/hosts"
	"github.com/mikekulinski/keeperclient/pkg/keeper"
)

const (
	DefaultPort               = 2181
	DefaultSessionTimeoutMs   = 30000
	DefaultOperationTimeoutMs = 10000
)

// Node is one configured endpoint.
type Node struct {
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
	Secure bool   `yaml:"secure"`
}

// Args is the client configuration section. Unknown keys are rejected so
// that typos fail loudly instead of silently using a default.
type Args struct {
	Nodes              []Node `yaml:"nodes"`
	SessionTimeoutMs   int    `yaml:"session_timeout_ms"`
	OperationTimeoutMs int    `yaml:"operation_timeout_ms"`
	Identity           string `yaml:"identity"`
	Root               string `yaml:"root"`
	LoadBalancing      string `yaml:"load_balancing"`
	Implementation     string `yaml:"implementation"`
}

// Load parses and validates a configuration section.
func Load(r io.Reader) (*Args, error) {
	args := &Args{
		SessionTimeoutMs:   DefaultSessionTimeoutMs,
		OperationTimeoutMs: DefaultOperationTimeoutMs,
		Implementation:     keeper.ImplementationZooKeeper,
	}

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(args); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if args.Root != "" {
		if !strings.HasPrefix(args.Root, "/") {
			return nil, fmt.Errorf("root path in configuration should start with '/', but got %q", args.Root)
		}
		args.Root = strings.TrimSuffix(args.Root, "/")
	}
	if args.LoadBalancing != "" {
		if _, err := args.Policy(); err != nil {
			return nil, err
		}
	}
	return args, nil
}

// LoadFile reads and parses a configuration file.
func LoadFile(path string) (*Args, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

// Hosts renders the configured nodes as the host strings the client expects,
// with the secure transport marker applied.
func (a *Args) Hosts() []string {
	rendered := make([]string, 0, len(a.Nodes))
	for _, node := range a.Nodes {
		port := node.Port
		if port == 0 {
			port = DefaultPort
		}
		host := net.JoinHostPort(node.Host, strconv.Itoa(port))
		if node.Secure {
			host = hosts.SecureScheme + host
		}
		rendered = append(rendered, host)
	}
	return rendered
}

// Policy builds the load balancing policy named in the configuration. An
// empty name means random.
func (a *Args) Policy() (hosts.Policy, error) {
	switch a.LoadBalancing {
	case "", "random":
		return hosts.Random(), nil
	case "in_order":
		return hosts.InOrder(), nil
	case "first_or_random":
		return hosts.FirstOrRandom(), nil
	case "round_robin":
		return hosts.RoundRobin(), nil
	case "nearest_hostname":
		local, err := os.Hostname()
		if err != nil {
			return nil, fmt.Errorf("cannot determine local hostname: %w", err)
		}
		return hosts.NearestHostname(local, a.Hosts()), nil
	}
	return nil, fmt.Errorf("unknown load balancing: %q", a.LoadBalancing)
}

// ClientConfig converts the parsed section into the client's construction
// input.
func (a *Args) ClientConfig() (keeper.Config, error) {
	policy, err := a.Policy()
	if err != nil {
		return keeper.Config{}, err
	}
	return keeper.Config{
		Hosts:            a.Hosts(),
		Identity:         a.Identity,
		SessionTimeout:   time.Duration(a.SessionTimeoutMs) * time.Millisecond,
		OperationTimeout: time.Duration(a.OperationTimeoutMs) * time.Millisecond,
		Chroot:           a.Root,
		Policy:           policy,
		Implementation:   a.Implementation,
	}, nil
}
