/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package gateway

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"

	"github.com/hyperledger/fabric-gateway/pkg/client"
	"github.com/hyperledger/fabric-gateway/pkg/hash"
	"github.com/hyperledger/fabric-gateway/pkg/identity"
	"github.com/hyperledger/fabric-lib-go/common/flogging"
	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/hyperledger-labs/microfab-go/network"
	"github.com/hyperledger-labs/microfab-go/topology"
)

var logger = flogging.MustGetLogger("microfab.gateway")

// Network is the view of a running network a gateway connection needs:
// the topology it was launched from and the admin identities its console
// surfaced.
type Network interface {
	Topology() *topology.Topology
	Admin(id string) (*network.Identity, bool)
}

// UnknownOrganizationError reports a gateway request for an organization
// the topology does not declare.
type UnknownOrganizationError struct {
	Name string
}

func (e *UnknownOrganizationError) Error() string {
	return fmt.Sprintf("organization [%s] is not part of the network", e.Name)
}

// MissingAdminIdentityError reports that the console did not surface the
// admin identity a gateway connection needs.
type MissingAdminIdentityError struct {
	Organization string
	ID           string
}

func (e *MissingAdminIdentityError) Error() string {
	return fmt.Sprintf("no admin identity [%s] available for organization [%s]", e.ID, e.Organization)
}

// Client is a Fabric Gateway connection bound to one organization's admin
// identity, talking to that organization's peer. Closing it releases the
// underlying gRPC connection as well.
type Client struct {
	gateway *client.Gateway
	conn    *grpc.ClientConn
	mspID   string
}

// Connect opens a gateway connection for the named endorsing
// organization, signing as its admin. The peer endpoint and the trust
// material all come from the network handle.
func Connect(n Network, orgName string) (*Client, error) {
	t := n.Topology()
	org := t.EndorsingOrganization(orgName)
	if org == nil {
		return nil, &UnknownOrganizationError{Name: orgName}
	}
	admin, ok := n.Admin(org.AdminID())
	if !ok {
		return nil, &MissingAdminIdentityError{Organization: orgName, ID: org.AdminID()}
	}

	certPEM, err := admin.CertificatePEM()
	if err != nil {
		return nil, errors.Wrapf(err, "admin identity for organization [%s]", orgName)
	}
	keyPEM, err := admin.PrivateKeyPEM()
	if err != nil {
		return nil, errors.Wrapf(err, "admin identity for organization [%s]", orgName)
	}
	certificate, err := identity.CertificateFromPEM(certPEM)
	if err != nil {
		return nil, errors.Wrapf(err, "failed parsing admin certificate for organization [%s]", orgName)
	}
	id, err := identity.NewX509Identity(org.MSPID(), certificate)
	if err != nil {
		return nil, errors.Wrapf(err, "failed building identity for organization [%s]", orgName)
	}
	privateKey, err := identity.PrivateKeyFromPEM(keyPEM)
	if err != nil {
		return nil, errors.Wrapf(err, "failed parsing admin key for organization [%s]", orgName)
	}
	sign, err := identity.NewPrivateKeySign(privateKey)
	if err != nil {
		return nil, errors.Wrapf(err, "failed building signer for organization [%s]", orgName)
	}

	creds, err := transportCredentials(t)
	if err != nil {
		return nil, err
	}
	endpoint := t.APIURL(org)
	conn, err := grpc.NewClient(endpoint, grpc.WithTransportCredentials(creds))
	if err != nil {
		return nil, errors.Wrapf(err, "failed dialing peer at '%s'", endpoint)
	}

	gw, err := client.Connect(id,
		client.WithSign(sign),
		client.WithHash(hash.SHA256),
		client.WithClientConnection(conn),
	)
	if err != nil {
		_ = conn.Close()
		return nil, errors.Wrapf(err, "failed connecting gateway for organization [%s]", orgName)
	}
	logger.Infof("gateway for organization [%s] connected to '%s' as [%s]", orgName, endpoint, org.AdminID())
	return &Client{gateway: gw, conn: conn, mspID: org.MSPID()}, nil
}

// transportCredentials trusts exactly the network CA when TLS is on, and
// nothing at all otherwise.
func transportCredentials(t *topology.Topology) (credentials.TransportCredentials, error) {
	if t.TLS == nil || !t.TLS.Enabled {
		return insecure.NewCredentials(), nil
	}
	caPEM, err := t.TLS.CAPEM()
	if err != nil {
		return nil, errors.Wrap(err, "gateway needs the network CA")
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caPEM) {
		return nil, errors.New("failed adding network CA to cert pool")
	}
	return credentials.NewTLS(&tls.Config{RootCAs: pool}), nil
}

// Gateway exposes the underlying Fabric Gateway.
func (c *Client) Gateway() *client.Gateway {
	return c.gateway
}

// MSPID is the MSP the client signs as.
func (c *Client) MSPID() string {
	return c.mspID
}

// Channel returns the gateway view of the named channel.
func (c *Client) Channel(name string) *client.Network {
	return c.gateway.GetNetwork(name)
}

// Contract returns the named contract on the named channel.
func (c *Client) Contract(channel, chaincode string) *client.Contract {
	return c.gateway.GetNetwork(channel).GetContract(chaincode)
}

// Close shuts the gateway down together with its gRPC connection.
func (c *Client) Close() error {
	err := c.gateway.Close()
	if connErr := c.conn.Close(); err == nil {
		err = connErr
	}
	return err
}
