/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package network

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"sync"

	dockerclient "github.com/fsouza/go-dockerclient"
	"github.com/google/uuid"
	"github.com/hyperledger/fabric-lib-go/common/flogging"
	"github.com/pkg/errors"

	"github.com/hyperledger-labs/microfab-go/docker"
	"github.com/hyperledger-labs/microfab-go/topology"
)

var logger = flogging.MustGetLogger("microfab.network")

// microfabConfigEnv is the environment variable microfabd reads its JSON
// configuration from.
const microfabConfigEnv = "MICROFAB_CONFIG"

// IntrospectionError reports that the network started but its state
// snapshot or console endpoint could not be read back. Fatal to the test
// scope.
type IntrospectionError struct {
	What  string
	Cause error
}

func (e *IntrospectionError) Error() string {
	return fmt.Sprintf("failed introspecting network %s: %s", e.What, e.Cause)
}

func (e *IntrospectionError) Unwrap() error {
	return e.Cause
}

// Option customizes a launch.
type Option func(*launchOptions)

type launchOptions struct {
	extraEnv []string
}

// WithChaincodeDevMode puts the peers into chaincode development mode, so
// they never launch chaincode containers themselves.
func WithChaincodeDevMode() Option {
	return func(o *launchOptions) {
		o.extraEnv = append(o.extraEnv, "CORE_CHAINCODE_MODE=dev")
	}
}

// Network is a handle on a running Microfab container. It exclusively
// owns the container: nothing else may stop it. The state snapshot and
// the admin map are populated once during launch and read-only afterwards.
type Network struct {
	topology    *topology.Topology
	docker      *docker.Docker
	containerID string
	logStream   dockerclient.CloseWaiter
	state       *State
	admins      map[string]*Identity
	console     *ConsoleClient

	tlsOnce  sync.Once
	stopOnce sync.Once
	stopErr  error
}

// Launch validates the topology, starts the Microfab container with the
// serialized configuration as its sole input, waits for the readiness log
// conditions under the topology's timeout, then captures the state
// snapshot, back-fills TLS material if required, and queries the console
// for the admin identities. On failure the container is removed before
// returning.
func Launch(t *topology.Topology, opts ...Option) (*Network, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	var options launchOptions
	for _, opt := range opts {
		opt(&options)
	}

	d, err := docker.GetInstance()
	if err != nil {
		return nil, err
	}

	raw, err := t.Serialize()
	if err != nil {
		return nil, err
	}

	image := t.Image
	if image == "" {
		image = topology.DefaultImage
	}
	if err := d.CheckImagesExist(image); err != nil {
		return nil, err
	}
	port := dockerclient.Port(fmt.Sprintf("%d/tcp", t.Port))
	name := fmt.Sprintf("microfab-%s", uuid.New().String()[:8])

	containerID, err := d.StartContainer(name,
		&dockerclient.Config{
			Image: image,
			Env:   append([]string{microfabConfigEnv + "=" + string(raw)}, options.extraEnv...),
			ExposedPorts: map[dockerclient.Port]struct{}{
				port: {},
			},
			Labels: map[string]string{"component": "microfab"},
		},
		&dockerclient.HostConfig{
			PortBindings: map[dockerclient.Port][]dockerclient.PortBinding{
				// the topology addresses the network through fixed
				// hostnames, so the container port maps to the same
				// host port
				port: {{HostIP: "0.0.0.0", HostPort: strconv.Itoa(t.Port)}},
			},
			ExtraHosts: chaincodeHosts(t),
		},
	)
	if err != nil {
		return nil, err
	}

	n := &Network{
		topology:    t,
		docker:      d,
		containerID: containerID,
	}

	watcher := NewWatcher(t)
	n.logStream, err = d.FollowLogs(containerID, io.MultiWriter(watcher, newLogWriter()))
	if err != nil {
		_ = n.Stop()
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), t.EventuallyTimeout())
	defer cancel()
	logger.Infof("waiting up to %s for network [%s] to become ready", t.EventuallyTimeout(), name)
	if err := watcher.Wait(ctx); err != nil {
		_ = n.Stop()
		return nil, err
	}

	if err := n.introspect(); err != nil {
		_ = n.Stop()
		return nil, err
	}
	logger.Infof("network [%s] is ready", name)
	return n, nil
}

// chaincodeHosts maps every declared chaincode's external name onto the
// container's gateway, so the peers inside the container can reach the
// chaincode services listening in the test process on the host.
func chaincodeHosts(t *topology.Topology) []string {
	var hosts []string
	for _, cc := range t.Chaincodes {
		hosts = append(hosts, cc.ExternalHost()+":host-gateway")
	}
	return hosts
}

// introspect reads the post-boot state snapshot, back-fills TLS material
// when enabled without an explicit key, and collects the admin identities
// from the console. Runs once, before the handle is handed out, so every
// gateway sees final TLS material.
func (n *Network) introspect() error {
	raw, err := n.ReadFile(n.topology.StatePath())
	if err != nil {
		return &IntrospectionError{What: "state snapshot", Cause: err}
	}
	n.state, err = ParseState(raw)
	if err != nil {
		return &IntrospectionError{What: "state snapshot", Cause: err}
	}

	if err := n.backfillTLS(); err != nil {
		return &IntrospectionError{What: "tls material", Cause: err}
	}

	n.console, err = NewConsoleClient(n.topology)
	if err != nil {
		return &IntrospectionError{What: "console", Cause: err}
	}
	n.admins, err = n.console.Admins()
	if err != nil {
		return &IntrospectionError{What: "console", Cause: err}
	}
	return nil
}

// backfillTLS copies the network-generated TLS identity's material into
// the topology when TLS is enabled but no private key was supplied. At
// most once.
func (n *Network) backfillTLS() error {
	tls := n.topology.TLS
	if tls == nil || !tls.Enabled || tls.PrivateKey != "" {
		return nil
	}
	var err error
	n.tlsOnce.Do(func() {
		generated := n.state.TLS()
		if generated == nil {
			err = errors.New("network generated no tls identity")
			return
		}
		tls.Certificate = generated.Certificate
		tls.PrivateKey = generated.PrivateKey
		tls.CA = generated.CA
	})
	return err
}

// Topology returns the topology the network was launched from.
func (n *Network) Topology() *topology.Topology {
	return n.topology
}

// State returns the post-boot state snapshot.
func (n *Network) State() *State {
	return n.state
}

// Admins returns the admin identities surfaced by the console, keyed by
// identity id.
func (n *Network) Admins() map[string]*Identity {
	return n.admins
}

// Admin returns the admin identity with the given id, if the console
// surfaced it.
func (n *Network) Admin(id string) (*Identity, bool) {
	identity, ok := n.admins[id]
	return identity, ok
}

// WriteFiles writes the given files, keyed by path relative to baseDir,
// into the container's filesystem.
func (n *Network) WriteFiles(baseDir string, files map[string][]byte) error {
	return n.docker.Upload(n.containerID, baseDir, files)
}

// Exec runs a command inside the container as the given user, returning
// its exit code and combined output.
func (n *Network) Exec(user, workingDir string, env []string, cmd ...string) (int, string, error) {
	return n.docker.Exec(n.containerID, docker.ExecOptions{
		User:       user,
		WorkingDir: workingDir,
		Env:        env,
		Cmd:        cmd,
	})
}

// ReadFile copies a file out of the container.
func (n *Network) ReadFile(path string) ([]byte, error) {
	return n.docker.ReadFile(n.containerID, path)
}

// PackageDigest computes the SHA-256 hex digest of the chaincode's
// package archive inside the container. The peer derives the package id
// from the same digest during install.
func (n *Network) PackageDigest(cc *topology.Chaincode) (string, error) {
	raw, err := n.ReadFile(n.topology.Directory + "/" + cc.PackagePath())
	if err != nil {
		return "", err
	}
	digest := sha256.Sum256(raw)
	return hex.EncodeToString(digest[:]), nil
}

// Stop detaches the log stream and removes the container. Safe to call
// more than once.
func (n *Network) Stop() error {
	n.stopOnce.Do(func() {
		if n.logStream != nil {
			_ = n.logStream.Close()
		}
		if n.console != nil {
			n.console.Close()
		}
		n.stopErr = n.docker.RemoveContainer(n.containerID)
	})
	return n.stopErr
}

// logWriter forwards the container's log lines to the orchestrator's own
// logger at debug level.
type logWriter struct{}

func newLogWriter() *logWriter {
	return &logWriter{}
}

func (w *logWriter) Write(p []byte) (int, error) {
	logger.Debugf("microfab: %s", string(p))
	return len(p), nil
}
