// Package hosts ranks and resolves the configured coordination endpoints
// before a session is established. Hosts are annotated with a load balancing
// priority and a random tie-breaker, so that equal priority endpoints spread
// client load statistically across restarts.
package hosts

import (
	"math/rand"
	"sort"
	"strings"
	"sync/atomic"
)

// SecureScheme marks an endpoint that must be dialed over a secure transport.
// The marker is stripped before DNS resolution.
const SecureScheme = "secure://"

// ShuffledHost is a configured endpoint annotated with its connection
// ordering inputs. The shuffled list sorts by Priority first and Random
// second, so priority ordering is stable and ties are broken randomly.
type ShuffledHost struct {
	Host     string
	Secure   bool
	Priority int64
	Random   uint64
}

// Policy assigns load balancing priorities to hosts. Lower priorities are
// tried first.
type Policy interface {
	// PriorityFunc returns the priority function used for one shuffle pass
	// over total hosts. Stateful policies (round robin) advance their state
	// here, once per pass.
	PriorityFunc(total int) func(index int) int64
}

type policyFunc func(total int) func(index int) int64

func (f policyFunc) PriorityFunc(total int) func(index int) int64 { return f(total) }

// Random gives every host the same priority, leaving ordering entirely to
// the random tie-breaker. This is the default policy.
func Random() Policy {
	return policyFunc(func(int) func(int) int64 {
		return func(int) int64 { return 0 }
	})
}

// InOrder prefers hosts in their configured order.
func InOrder() Policy {
	return policyFunc(func(int) func(int) int64 {
		return func(index int) int64 { return int64(index) }
	})
}

// FirstOrRandom prefers the first configured host and falls back to a random
// one of the rest.
func FirstOrRandom() Policy {
	return policyFunc(func(int) func(int) int64 {
		return func(index int) int64 {
			if index == 0 {
				return 0
			}
			return 1
		}
	})
}

// RoundRobin rotates the preferred host on every pass. The rotation state
// lives in the policy value, so sharing one policy across sessions keeps the
// rotation going.
func RoundRobin() Policy {
	var counter atomic.Int64
	return policyFunc(func(total int) func(int) int64 {
		preferred := 0
		if total > 0 {
			preferred = int(counter.Add(1)-1) % total
		}
		return func(index int) int64 {
			if index == preferred {
				return 0
			}
			return 1
		}
	})
}

// NearestHostname prefers the host whose name differs least from the local
// hostname, which approximates topological distance in naming schemes that
// encode rack or datacenter into the hostname.
func NearestHostname(local string, configured []string) Policy {
	differences := make([]int64, len(configured))
	for i, host := range configured {
		name := strings.TrimPrefix(host, SecureScheme)
		if colon := strings.LastIndex(name, ":"); colon >= 0 {
			name = name[:colon]
		}
		differences[i] = hostnameDifference(local, name)
	}
	return policyFunc(func(int) func(int) int64 {
		return func(index int) int64 {
			if index < len(differences) {
				return differences[index]
			}
			return int64(len(local))
		}
	})
}

// hostnameDifference counts the positions at which two hostnames differ.
func hostnameDifference(a, b string) int64 {
	var diff int64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			diff++
		}
	}
	diff += int64(len(a) + len(b) - 2*n)
	return diff
}

// Shuffle annotates the configured hosts with priorities and random
// tie-breakers and returns them in connection attempt order. The secure
// transport marker is stripped here and recorded in the Secure flag. The
// result is always a permutation of the input.
func Shuffle(configured []string, policy Policy) []ShuffledHost {
	if policy == nil {
		policy = Random()
	}
	priority := policy.PriorityFunc(len(configured))

	shuffled := make([]ShuffledHost, 0, len(configured))
	for i, host := range configured {
		secure := strings.HasPrefix(host, SecureScheme)
		if secure {
			host = strings.TrimPrefix(host, SecureScheme)
		}
		shuffled = append(shuffled, ShuffledHost{
			Host:     host,
			Secure:   secure,
			Priority: priority(i),
			Random:   rand.Uint64(),
		})
	}

	sort.SliceStable(shuffled, func(i, j int) bool {
		if shuffled[i].Priority != shuffled[j].Priority {
			return shuffled[i].Priority < shuffled[j].Priority
		}
		return shuffled[i].Random < shuffled[j].Random
	})
	return shuffled
}
