/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package gateway

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperledger-labs/microfab-go/network"
	"github.com/hyperledger-labs/microfab-go/topology"
)

type fakeNetwork struct {
	topology *topology.Topology
	admins   map[string]*network.Identity
}

func (n *fakeNetwork) Topology() *topology.Topology {
	return n.topology
}

func (n *fakeNetwork) Admin(id string) (*network.Identity, bool) {
	identity, ok := n.admins[id]
	return identity, ok
}

func TestConnectRejectsUnknownOrganization(t *testing.T) {
	n := &fakeNetwork{topology: topology.NewTopology()}

	_, err := Connect(n, "Org2")
	require.Error(t, err)
	var unknownErr *UnknownOrganizationError
	require.ErrorAs(t, err, &unknownErr)
	assert.Equal(t, "Org2", unknownErr.Name)
}

func TestConnectNeedsTheAdminIdentity(t *testing.T) {
	n := &fakeNetwork{topology: topology.NewTopology()}

	_, err := Connect(n, "Org1")
	require.Error(t, err)
	var missingErr *MissingAdminIdentityError
	require.ErrorAs(t, err, &missingErr)
	assert.Equal(t, "Org1", missingErr.Organization)
	assert.Equal(t, "org1admin", missingErr.ID)
}

func TestConnectRejectsBadAdminMaterial(t *testing.T) {
	n := &fakeNetwork{
		topology: topology.NewTopology(),
		admins: map[string]*network.Identity{
			"org1admin": {
				ID:          "org1admin",
				Type:        "identity",
				Certificate: base64.StdEncoding.EncodeToString([]byte("not a certificate")),
				PrivateKey:  base64.StdEncoding.EncodeToString([]byte("not a key")),
			},
		},
	}

	_, err := Connect(n, "Org1")
	assert.Error(t, err)
}

func TestTransportCredentials(t *testing.T) {
	top := topology.NewTopology()
	creds, err := transportCredentials(top)
	require.NoError(t, err)
	assert.Equal(t, "insecure", creds.Info().SecurityProtocol)

	top.TLS = &topology.TLS{Enabled: true}
	_, err = transportCredentials(top)
	assert.Error(t, err, "tls without a ca certificate")

	top.TLS.CA = base64.StdEncoding.EncodeToString([]byte("not a certificate"))
	_, err = transportCredentials(top)
	assert.Error(t, err, "ca that is not pem")
}
