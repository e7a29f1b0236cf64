/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package microfab starts ephemeral Hyperledger Fabric networks for
// tests, backed by the Microfab container image. A Platform owns one
// network: it launches the container, waits for it to become ready,
// activates the declared chaincodes and hands out gateway connections,
// then tears everything down again.
package microfab

import (
	"os"
	"sync"

	"github.com/hyperledger/fabric-lib-go/common/flogging"
	"github.com/tedsuo/ifrit"

	"github.com/hyperledger-labs/microfab-go/chaincode"
	"github.com/hyperledger-labs/microfab-go/gateway"
	"github.com/hyperledger-labs/microfab-go/network"
	"github.com/hyperledger-labs/microfab-go/topology"
)

var logger = flogging.MustGetLogger("microfab")

// Option customizes a platform.
type Option func(*Platform)

// WithChaincodeDevMode launches the network with the peers in chaincode
// development mode.
func WithChaincodeDevMode() Option {
	return func(p *Platform) {
		p.networkOptions = append(p.networkOptions, network.WithChaincodeDevMode())
	}
}

// WithBuilders registers extra chaincode builders, consulted before the
// default ones.
func WithBuilders(builders ...chaincode.Builder) Option {
	return func(p *Platform) {
		p.builders = append(p.builders, builders...)
	}
}

// Platform drives the full lifecycle of one Microfab network. It is safe
// for use from multiple goroutines once Start has returned.
type Platform struct {
	topology       *topology.Topology
	networkOptions []network.Option
	builders       []chaincode.Builder

	network   *network.Network
	processes []ifrit.Process
	failures  []*chaincode.CommandError

	mutex    sync.Mutex
	gateways map[string]*gateway.Client

	stopOnce sync.Once
	stopErr  error
}

// New builds a platform for the given topology. Nothing runs until Start
// is called.
func New(t *topology.Topology, opts ...Option) *Platform {
	p := &Platform{
		topology: t,
		gateways: map[string]*gateway.Client{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start launches the network and activates every chaincode the topology
// declares on its channels. Lifecycle command failures do not fail the
// start; they are kept for inspection through DeploymentFailures. Any
// fatal error tears the platform down before returning.
func (p *Platform) Start() error {
	n, err := network.Launch(p.topology, p.networkOptions...)
	if err != nil {
		return err
	}
	p.network = n

	deployer := chaincode.NewDeployer(p.builders...)
	p.processes, p.failures, err = deployer.DeployAll(n)
	if err != nil {
		_ = p.Stop()
		return err
	}
	for _, failure := range p.failures {
		logger.Warnf("chaincode deployment: %s", failure)
	}
	return nil
}

// Network returns the running network handle.
func (p *Platform) Network() *network.Network {
	return p.network
}

// Topology returns the topology the platform was built from.
func (p *Platform) Topology() *topology.Topology {
	return p.topology
}

// DeploymentFailures lists the lifecycle commands that exited non-zero
// while the chaincodes were activated.
func (p *Platform) DeploymentFailures() []*chaincode.CommandError {
	return p.failures
}

// Gateway returns a gateway connection for the named endorsing
// organization, signing as its admin. Connections are cached per
// organization and closed when the platform stops.
func (p *Platform) Gateway(orgName string) (*gateway.Client, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if client, ok := p.gateways[orgName]; ok {
		return client, nil
	}
	client, err := gateway.Connect(p.network, orgName)
	if err != nil {
		return nil, err
	}
	p.gateways[orgName] = client
	return client, nil
}

// Stop tears the platform down: chaincode processes are signalled and
// awaited, gateway connections closed, and the container removed. Safe
// to call more than once, and after a failed Start.
func (p *Platform) Stop() error {
	p.stopOnce.Do(func() {
		for _, process := range p.processes {
			process.Signal(os.Interrupt)
		}
		for _, process := range p.processes {
			<-process.Wait()
		}

		p.mutex.Lock()
		for name, client := range p.gateways {
			if err := client.Close(); err != nil {
				logger.Warnf("failed closing gateway for organization [%s]: %s", name, err)
			}
		}
		p.gateways = map[string]*gateway.Client{}
		p.mutex.Unlock()

		if p.network != nil {
			p.stopErr = p.network.Stop()
		}
	})
	return p.stopErr
}
