/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package network

import (
	"encoding/base64"
	"encoding/json"

	"github.com/pkg/errors"
)

// tlsIdentityID keys the network-generated TLS material inside the state
// snapshot.
const tlsIdentityID = "tls"

// Identity is an identity surfaced by Microfab, either through the
// state.json snapshot or through the console components endpoint. The
// certificate material is base64-encoded PEM.
type Identity struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name,omitempty"`
	Type        string `json:"type"`
	Certificate string `json:"cert"`
	PrivateKey  string `json:"private_key"`
	CA          string `json:"ca"`
	Hide        bool   `json:"hide,omitempty"`
}

// CertificatePEM decodes the identity's certificate into PEM text.
func (i *Identity) CertificatePEM() ([]byte, error) {
	return decodeIdentityPEM("certificate", i.Certificate)
}

// PrivateKeyPEM decodes the identity's private key into PEM text.
func (i *Identity) PrivateKeyPEM() ([]byte, error) {
	return decodeIdentityPEM("private key", i.PrivateKey)
}

// CAPEM decodes the identity's CA certificate into PEM text.
func (i *Identity) CAPEM() ([]byte, error) {
	return decodeIdentityPEM("ca certificate", i.CA)
}

func decodeIdentityPEM(what, value string) ([]byte, error) {
	if value == "" {
		return nil, errors.Errorf("identity has no %s", what)
	}
	raw, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, errors.Wrapf(err, "failed decoding identity %s", what)
	}
	return raw, nil
}

// State is the snapshot microfabd writes to state.json after boot. It
// maps identity ids onto the certificate material generated for them and
// is read-only once captured.
type State struct {
	identities map[string]*Identity
}

// ParseState parses the raw state.json document.
func ParseState(raw []byte) (*State, error) {
	identities := map[string]*Identity{}
	if err := json.Unmarshal(raw, &identities); err != nil {
		return nil, errors.Wrap(err, "failed unmarshalling state snapshot")
	}
	for id, identity := range identities {
		if identity.ID == "" {
			identity.ID = id
		}
	}
	return &State{identities: identities}, nil
}

// Identity returns the identity with the given id, if present.
func (s *State) Identity(id string) (*Identity, bool) {
	identity, ok := s.identities[id]
	return identity, ok
}

// TLS returns the network-generated TLS identity, or nil when the network
// runs without TLS.
func (s *State) TLS() *Identity {
	return s.identities[tlsIdentityID]
}
