/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package network

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/hyperledger-labs/microfab-go/topology"
)

// Log lines the microfab container is contractually expected to emit. The
// network has no readiness RPC, so counting these is the only
// synchronization primitive available.
var (
	daemonStartedPattern = regexp.MustCompile(`\[ *microfabd\] .* Microfab started in \d+ms`)
	ledgerCommitPattern  = regexp.MustCompile(`\[.*peer\] .* \[kvledger\] commit -> \[.*\] Committed block \[1\] with 1 transaction\(s\)`)
	gossipPattern        = regexp.MustCompile(`\[.*peer\] .* \[gossip\.channel\] reportMembershipChanges -> \[\[.*\] Membership view has changed\. peers went online:`)
)

// RequiredCommitCount is the number of genesis-block commit lines expected
// before the network is usable: one per endorsing organization per
// channel, since each peer commits each of its channels' genesis blocks
// independently.
func RequiredCommitCount(t *topology.Topology) int {
	count := 0
	for _, ch := range t.Channels {
		count += len(ch.EndorsingOrganizations)
	}
	return count
}

// RequiredGossipCount is the number of gossip membership-change lines
// expected: one per endorsing organization per multi-organization channel.
// Single-organization channels have no cross-organization discovery to
// wait for.
func RequiredGossipCount(t *topology.Topology) int {
	count := 0
	for _, ch := range t.Channels {
		if len(ch.EndorsingOrganizations) > 1 {
			count += len(ch.EndorsingOrganizations)
		}
	}
	return count
}

// StartupTimeoutError reports that the network did not become ready
// before its deadline. Missing is the number of readiness conditions
// still unmet.
type StartupTimeoutError struct {
	Missing    int
	Conditions []string
}

func (e *StartupTimeoutError) Error() string {
	return fmt.Sprintf("network not ready before deadline, %d condition(s) unmet: %v", e.Missing, e.Conditions)
}

type condition struct {
	name      string
	pattern   *regexp.Regexp
	required  int
	seen      int
	satisfied chan struct{}
}

func newCondition(name string, pattern *regexp.Regexp, required int) *condition {
	c := &condition{
		name:      name,
		pattern:   pattern,
		required:  required,
		satisfied: make(chan struct{}),
	}
	if required == 0 {
		close(c.satisfied)
	}
	return c
}

// Watcher observes the container's combined log stream and reports
// readiness once every required log pattern has been seen the required
// number of times. The conditions advance independently off the same
// stream; Wait joins them under a single deadline.
type Watcher struct {
	mu         sync.Mutex
	remainder  []byte
	conditions []*condition
}

// NewWatcher computes the readiness conditions for the given topology.
func NewWatcher(t *topology.Topology) *Watcher {
	conditions := []*condition{
		newCondition("daemon started", daemonStartedPattern, 1),
		newCondition("genesis blocks committed", ledgerCommitPattern, RequiredCommitCount(t)),
	}
	if gossip := RequiredGossipCount(t); gossip > 0 {
		conditions = append(conditions, newCondition("gossip membership established", gossipPattern, gossip))
	}
	return &Watcher{conditions: conditions}
}

// Write feeds a chunk of the log stream into the watcher. Partial lines
// are buffered until their newline arrives.
func (w *Watcher) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.remainder = append(w.remainder, p...)
	for {
		i := bytes.IndexByte(w.remainder, '\n')
		if i < 0 {
			break
		}
		line := string(w.remainder[:i])
		w.remainder = w.remainder[i+1:]
		w.observe(line)
	}
	return len(p), nil
}

func (w *Watcher) observe(line string) {
	for _, c := range w.conditions {
		if c.seen >= c.required {
			continue
		}
		if c.pattern.MatchString(line) {
			c.seen++
			if c.seen == c.required {
				close(c.satisfied)
			}
		}
	}
}

// Wait blocks until every readiness condition is satisfied or the context
// expires, in which case it returns a StartupTimeoutError naming the
// unmet conditions. There is no partial-success state.
func (w *Watcher) Wait(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, c := range w.conditions {
		c := c
		g.Go(func() error {
			select {
			case <-c.satisfied:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}
	if err := g.Wait(); err != nil {
		missing := w.unmet()
		return &StartupTimeoutError{Missing: len(missing), Conditions: missing}
	}
	return nil
}

func (w *Watcher) unmet() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	var names []string
	for _, c := range w.conditions {
		if c.seen < c.required {
			names = append(names, fmt.Sprintf("%s (%d of %d)", c.name, c.seen, c.required))
		}
	}
	return names
}
