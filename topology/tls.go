/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package topology

import (
	"encoding/base64"

	"github.com/pkg/errors"
)

// TLS controls whether the Microfab network runs with TLS and carries the
// certificate material, each value a base64-encoded PEM document with no
// trailing newline (microfabd rejects values ending in an encoded "\n").
// When TLS is enabled and no private key is supplied, all three values are
// back-filled from network-generated material after launch, exactly once
// and before any gateway is constructed.
type TLS struct {
	Enabled     bool   `json:"enabled" yaml:"enabled"`
	Certificate string `json:"certificate,omitempty" yaml:"certificate,omitempty"`
	PrivateKey  string `json:"private_key,omitempty" yaml:"private_key,omitempty"`
	CA          string `json:"ca,omitempty" yaml:"ca,omitempty"`
}

// CertificatePEM decodes the TLS certificate into PEM text.
func (t *TLS) CertificatePEM() ([]byte, error) {
	return decodePEM("certificate", t.Certificate)
}

// PrivateKeyPEM decodes the TLS private key into PEM text.
func (t *TLS) PrivateKeyPEM() ([]byte, error) {
	return decodePEM("private key", t.PrivateKey)
}

// CAPEM decodes the TLS CA certificate into PEM text.
func (t *TLS) CAPEM() ([]byte, error) {
	return decodePEM("ca certificate", t.CA)
}

func decodePEM(what, value string) ([]byte, error) {
	if value == "" {
		return nil, errors.Errorf("no tls %s available", what)
	}
	raw, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, errors.Wrapf(err, "failed decoding tls %s", what)
	}
	return raw, nil
}
