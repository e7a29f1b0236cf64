/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package chaincode

import (
	"fmt"
	"strings"

	"github.com/hyperledger/fabric-lib-go/common/flogging"
	"github.com/pkg/errors"
	"github.com/tedsuo/ifrit"

	"github.com/hyperledger-labs/microfab-go/network"
	"github.com/hyperledger-labs/microfab-go/topology"
)

var logger = flogging.MustGetLogger("microfab.chaincode")

// CommandError records a lifecycle command that ran inside the container
// and exited non-zero. Lifecycle commands are retried by nothing and kill
// nothing: the failure is recorded and deployment moves on, so a test can
// still reach the network and produce a useful diagnosis.
type CommandError struct {
	Organization string
	Command      []string
	ExitCode     int
	Output       string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command '%s' for organization [%s] exited with %d: %s",
		strings.Join(e.Command, " "), e.Organization, e.ExitCode, e.Output)
}

// Builder drives the lifecycle of one chaincode execution model.
//
// Build packages the chaincode and walks it through the peer lifecycle on
// the given channel; recoverable command failures are returned separately
// from fatal errors. Run starts the process serving the chaincode, if the
// model needs one.
type Builder interface {
	Detect(cc *topology.Chaincode) bool
	Build(n *network.Network, ch *topology.Channel, cc *topology.Chaincode) ([]*CommandError, error)
	Run(n *network.Network, cc *topology.Chaincode) (ifrit.Process, error)
}

// Deployer activates the chaincodes a topology declares on the channels
// that reference them, dispatching each chaincode to the first builder
// that recognizes its type.
type Deployer struct {
	builders []Builder
}

// NewDeployer returns a deployer with the default builders plus any extra
// ones, extras first.
func NewDeployer(extra ...Builder) *Deployer {
	return &Deployer{
		builders: append(extra, &CCaaSBuilder{}),
	}
}

func (d *Deployer) builderFor(cc *topology.Chaincode) Builder {
	for _, b := range d.builders {
		if b.Detect(cc) {
			return b
		}
	}
	return nil
}

// DeployAll walks every channel of the network's topology and activates
// the chaincodes it references, then starts their serving processes. The
// returned processes stay alive until signalled. Command failures are
// collected, not fatal; only infrastructure failures abort the walk.
func (d *Deployer) DeployAll(n *network.Network) ([]ifrit.Process, []*CommandError, error) {
	t := n.Topology()
	var processes []ifrit.Process
	var failures []*CommandError
	started := map[string]struct{}{}

	for _, ch := range t.Channels {
		for _, name := range ch.Chaincodes {
			cc := t.Chaincode(name)
			if cc == nil {
				// Validate rejects dangling references before launch.
				return processes, failures, errors.Errorf("channel [%s] references undeclared chaincode [%s]", ch.Name, name)
			}
			builder := d.builderFor(cc)
			if builder == nil {
				logger.Warnf("no builder for chaincode [%s] of type [%s], skipping", cc.Name, cc.Type)
				continue
			}

			logger.Infof("deploying chaincode [%s] to channel [%s]", cc.Name, ch.Name)
			ccFailures, err := builder.Build(n, ch, cc)
			failures = append(failures, ccFailures...)
			if err != nil {
				return processes, failures, err
			}

			if _, ok := started[cc.Name]; ok {
				continue
			}
			process, err := builder.Run(n, cc)
			if err != nil {
				return processes, failures, err
			}
			if process != nil {
				processes = append(processes, process)
			}
			started[cc.Name] = struct{}{}
		}
	}
	return processes, failures, nil
}
