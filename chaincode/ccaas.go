/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package chaincode

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/tedsuo/ifrit"

	"github.com/hyperledger-labs/microfab-go/commands"
	"github.com/hyperledger-labs/microfab-go/network"
	"github.com/hyperledger-labs/microfab-go/topology"
)

const (
	// containerUser owns the Microfab state directory inside the container.
	containerUser = "microfab"

	// commitSequence is the lifecycle sequence number used for every
	// chaincode definition. Each network is ephemeral and every chaincode
	// is committed exactly once, so the sequence never advances.
	commitSequence = "1"
)

// CCaaSBuilder activates chaincodes running as a service: the package
// uploaded to the peers carries only the connection details of an
// external gRPC endpoint, and the chaincode itself is served from this
// process once the definition is committed.
type CCaaSBuilder struct{}

// Detect accepts chaincode-as-a-service chaincodes.
func (b *CCaaSBuilder) Detect(cc *topology.Chaincode) bool {
	return cc.Type == topology.ChaincodeTypeCCaaS
}

// Build packages the chaincode inside the container, then walks it
// through install, approve, a commit readiness check and commit on the
// given channel. Lifecycle commands that exit non-zero are recorded and
// do not stop the walk.
func (b *CCaaSBuilder) Build(n *network.Network, ch *topology.Channel, cc *topology.Chaincode) ([]*CommandError, error) {
	if err := b.pack(n, cc); err != nil {
		return nil, err
	}

	t := n.Topology()
	orgs := t.ChannelOrganizations(ch)
	var failures []*CommandError

	install := commands.ChaincodeInstall{
		PackageFile: t.Directory + "/" + cc.PackagePath(),
	}
	approve := commands.ChaincodeApproveForMyOrg{
		ChannelID: ch.Name,
		Name:      cc.Name,
		Version:   cc.Version,
		PackageID: cc.PackageID(),
		Sequence:  commitSequence,
		OrdererCA: t.OrdererTLSCACertPath(),
		TLS:       tlsEnabled(t),
	}
	readiness := commands.ChaincodeCheckCommitReadiness{
		ChannelID: ch.Name,
		Name:      cc.Name,
		Version:   cc.Version,
		Sequence:  commitSequence,
	}
	commit := commands.ChaincodeCommit{
		ChannelID: ch.Name,
		Name:      cc.Name,
		Version:   cc.Version,
		Sequence:  commitSequence,
		OrdererCA: t.OrdererTLSCACertPath(),
		TLS:       tlsEnabled(t),
	}

	for _, org := range orgs {
		if failure, err := b.runAs(n, org, install, true); err != nil {
			return failures, err
		} else if failure != nil {
			failures = append(failures, failure)
		}
	}
	for _, org := range orgs {
		if failure, err := b.runAs(n, org, approve, true); err != nil {
			return failures, err
		} else if failure != nil {
			failures = append(failures, failure)
		}
	}
	// informational only: the readiness output lands in the logs so a
	// failed commit can be diagnosed, the walk does not branch on it
	for _, org := range orgs {
		if failure, err := b.runAs(n, org, readiness, false); err != nil {
			return failures, err
		} else if failure != nil {
			failures = append(failures, failure)
		}
	}
	// committing is channel-wide, so any member organization will do; the
	// peer CLI falls back to the peer's own MSP context for the signature
	if failure, err := b.runAs(n, orgs[0], commit, false); err != nil {
		return failures, err
	} else if failure != nil {
		failures = append(failures, failure)
	}
	return failures, nil
}

// pack writes the package descriptors into the container, archives them
// the way the peer's ccaas external builder expects, and records the
// package digest on the chaincode. Packaging runs at most once per
// chaincode; on later channels the recorded digest is reused.
func (b *CCaaSBuilder) pack(n *network.Network, cc *topology.Chaincode) error {
	if cc.Hash() != "" {
		return nil
	}
	t := n.Topology()

	connection, err := NewConnection(t, cc)
	if err != nil {
		return err
	}
	rawConnection, err := marshalDescriptor(connection)
	if err != nil {
		return err
	}
	rawMetadata, err := marshalDescriptor(NewMetadata(cc))
	if err != nil {
		return err
	}
	err = n.WriteFiles(t.Directory, map[string][]byte{
		cc.Dir() + "/metadata.json":   rawMetadata,
		cc.Dir() + "/connection.json": rawConnection,
	})
	if err != nil {
		return errors.Wrapf(err, "failed writing package descriptors for chaincode [%s]", cc.Name)
	}

	// the archive is uploaded as root, hand it to the microfab user
	// before packaging as that user
	steps := []struct {
		user string
		dir  string
		cmd  []string
	}{
		{"root", t.Directory, []string{"chown", "-R", containerUser + ":" + containerUser, "chaincodes"}},
		{containerUser, t.Directory + "/" + cc.Dir(), []string{"tar", "-czf", "code.tar.gz", "connection.json"}},
		{containerUser, t.Directory + "/" + cc.Dir(), []string{"tar", "-czf", cc.Name + ".tar.gz", "metadata.json", "code.tar.gz"}},
	}
	for _, step := range steps {
		exitCode, output, err := n.Exec(step.user, step.dir, nil, step.cmd...)
		if err != nil {
			return errors.Wrapf(err, "failed packaging chaincode [%s]", cc.Name)
		}
		if exitCode != 0 {
			return errors.Errorf("failed packaging chaincode [%s]: '%s' exited with %d: %s",
				cc.Name, strings.Join(step.cmd, " "), exitCode, output)
		}
	}

	digest, err := n.PackageDigest(cc)
	if err != nil {
		return errors.Wrapf(err, "failed digesting package for chaincode [%s]", cc.Name)
	}
	return cc.SetHash(digest)
}

// runAs executes a lifecycle command against the organization's peer. The
// peer CLI resolves its target and identity entirely from the
// environment; asAdmin selects the organization's admin MSP for commands
// that must be signed by it.
func (b *CCaaSBuilder) runAs(n *network.Network, org *topology.Organization, cmd commands.Command, asAdmin bool) (*CommandError, error) {
	t := n.Topology()
	env := []string{
		"FABRIC_LOGGING_SPEC=debug",
		"FABRIC_CFG_PATH=" + t.Directory + "/" + org.PeerConfigDir(),
		"CORE_PEER_ADDRESS=" + t.APIURL(org),
	}
	if asAdmin {
		env = append(env, "CORE_PEER_MSPCONFIGPATH="+t.Directory+"/"+org.AdminMSPDir())
	}

	args := cmd.Args()
	logger.Debugf("running '%s' for organization [%s]", strings.Join(args, " "), org.Name)
	exitCode, output, err := n.Exec(containerUser, t.Directory, env, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "failed running '%s' for organization [%s]", strings.Join(args, " "), org.Name)
	}
	if exitCode != 0 {
		failure := &CommandError{
			Organization: org.Name,
			Command:      args,
			ExitCode:     exitCode,
			Output:       output,
		}
		logger.Errorf("%s", failure)
		return failure, nil
	}
	logger.Debugf("output of '%s' for organization [%s]: %s", strings.Join(args, " "), org.Name, output)
	return nil, nil
}

// Run starts the gRPC service the peers dial into, configured the same
// way a standalone chaincode binary would be.
func (b *CCaaSBuilder) Run(n *network.Network, cc *topology.Chaincode) (ifrit.Process, error) {
	env, err := runtimeEnv(n.Topology(), cc)
	if err != nil {
		return nil, err
	}
	server, err := newChaincodeServer(env, cc)
	if err != nil {
		return nil, err
	}
	logger.Infof("serving chaincode [%s] on %s as %s", cc.Name, cc.ListenAddress(), cc.ExternalAddress())
	return ifrit.Invoke(&serverRunner{server: server}), nil
}

func tlsEnabled(t *topology.Topology) bool {
	return t.TLS != nil && t.TLS.Enabled
}
