/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package chaincode

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/hyperledger-labs/microfab-go/topology"
)

// Metadata is the metadata.json document packaged with a chaincode. The
// label identifies the package; the type tells the peer how to run it.
type Metadata struct {
	Type  string `json:"type"`
	Label string `json:"label"`
}

// NewMetadata derives the package metadata for a chaincode.
func NewMetadata(cc *topology.Chaincode) Metadata {
	return Metadata{
		Type:  string(cc.Type),
		Label: cc.Label(),
	}
}

// Connection is the connection.json document packaged with a
// chaincode-as-a-service chaincode. It matches the wire format the peer's
// ccaas external builder expects.
type Connection struct {
	Address            string `json:"address"`
	DialTimeout        string `json:"dial_timeout"`
	TLSRequired        bool   `json:"tls_required"`
	ClientAuthRequired bool   `json:"client_auth_required"`
	RootCert           string `json:"root_cert"`
	ClientKey          string `json:"client_key"`
	ClientCert         string `json:"client_cert"`
}

// NewConnection derives the connection descriptor the peers use to dial
// the chaincode service. The address is the chaincode's external name,
// not its listen address: the peers run inside the container and reach
// the service through the host mapping established at launch. Client
// authentication towards the chaincode is never required.
func NewConnection(t *topology.Topology, cc *topology.Chaincode) (Connection, error) {
	connection := Connection{
		Address:     cc.ExternalAddress(),
		DialTimeout: t.Timeout,
	}
	if t.TLS != nil && t.TLS.Enabled {
		rootCert, err := t.TLS.CAPEM()
		if err != nil {
			return Connection{}, errors.Wrapf(err, "connection descriptor for chaincode [%s]", cc.Name)
		}
		clientKey, err := t.TLS.PrivateKeyPEM()
		if err != nil {
			return Connection{}, errors.Wrapf(err, "connection descriptor for chaincode [%s]", cc.Name)
		}
		clientCert, err := t.TLS.CertificatePEM()
		if err != nil {
			return Connection{}, errors.Wrapf(err, "connection descriptor for chaincode [%s]", cc.Name)
		}
		connection.TLSRequired = true
		connection.RootCert = string(rootCert)
		connection.ClientKey = string(clientKey)
		connection.ClientCert = string(clientCert)
	}
	return connection, nil
}

func marshalDescriptor(v interface{}) ([]byte, error) {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "failed marshalling package descriptor")
	}
	return raw, nil
}
