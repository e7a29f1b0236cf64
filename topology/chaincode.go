/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package topology

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hyperledger/fabric-chaincode-go/shim"
	"github.com/pkg/errors"
)

// ChaincodeType selects the execution model of a chaincode.
type ChaincodeType string

const (
	// ChaincodeTypeCCaaS runs the chaincode as an external
	// chaincode-as-a-service process the peers dial into.
	ChaincodeTypeCCaaS ChaincodeType = "ccaas"
	// ChaincodeTypeInProcess marks a chaincode executed by the peer's own
	// runtime; no builder ships for it yet.
	ChaincodeTypeInProcess ChaincodeType = "golang"
)

// Chaincode declares a chaincode known to the network. Declaring it here
// does not activate it anywhere; a channel must reference it by name to
// have it installed and committed there.
type Chaincode struct {
	Name    string        `json:"name" yaml:"name"`
	Version string        `json:"version" yaml:"version"`
	Address string        `json:"address" yaml:"address"`
	Type    ChaincodeType `json:"type" yaml:"type,omitempty"`

	// Code is the chaincode implementation served when the lifecycle
	// completes. Only used by the chaincode-as-a-service model.
	Code shim.Chaincode `json:"-" yaml:"-"`

	hash string
}

// NewChaincode declares a chaincode-as-a-service chaincode with the
// default version and service address.
func NewChaincode(name string, code shim.Chaincode) *Chaincode {
	return &Chaincode{
		Name:    name,
		Version: "1.0",
		Address: "127.0.0.1:9999",
		Type:    ChaincodeTypeCCaaS,
		Code:    code,
	}
}

// Label is the package label, <name>_<version>.
func (c *Chaincode) Label() string {
	return c.Name + "_" + c.Version
}

// Hash returns the SHA-256 digest of the chaincode package, or the empty
// string before the chaincode has been packaged.
func (c *Chaincode) Hash() string {
	return c.hash
}

// SetHash records the package digest. The digest is computed during
// packaging and must not change afterwards; lifecycle commands issued for
// the chaincode reference it through the package id.
func (c *Chaincode) SetHash(hash string) error {
	if c.hash != "" {
		return errors.Errorf("package hash for chaincode [%s] already set", c.Name)
	}
	c.hash = hash
	return nil
}

// PackageID is the identifier the peer lifecycle knows the chaincode by:
// <name>_<version> before packaging, <name>_<version>:<hash> after.
func (c *Chaincode) PackageID() string {
	if c.hash == "" {
		return c.Label()
	}
	return c.Label() + ":" + c.hash
}

// ParsePackageID splits a package id back into name, version and hash.
// The hash segment is empty when the id carries none.
func ParsePackageID(id string) (name, version, hash string, err error) {
	label := id
	if i := strings.Index(id, ":"); i >= 0 {
		label, hash = id[:i], id[i+1:]
		if hash == "" {
			return "", "", "", errors.Errorf("package id [%s] has an empty hash segment", id)
		}
	}
	i := strings.LastIndex(label, "_")
	if i <= 0 || i == len(label)-1 {
		return "", "", "", errors.Errorf("package id [%s] is not of the form name_version[:hash]", id)
	}
	return label[:i], label[i+1:], hash, nil
}

// Dir is the chaincode's package directory relative to the Microfab state
// directory, e.g. "chaincodes/hello".
func (c *Chaincode) Dir() string {
	return "chaincodes/" + strings.ToLower(c.Name)
}

// PackagePath is the package archive path relative to the Microfab state
// directory, e.g. "chaincodes/hello/hello.tar.gz".
func (c *Chaincode) PackagePath() string {
	return c.Dir() + "/" + c.Name + ".tar.gz"
}

// Host is the host part of the chaincode service address.
func (c *Chaincode) Host() string {
	host, _, _ := splitAddress(c.Address)
	return host
}

// Port is the port part of the chaincode service address, or 0 when the
// address is malformed.
func (c *Chaincode) Port() int {
	_, port, _ := splitAddress(c.Address)
	return port
}

// ExternalHost is the name the peers resolve the chaincode service by.
// Microfab's chaincode TLS certificates carry *.localho.st as a subject
// alternative name, so this name passes TLS hostname verification.
func (c *Chaincode) ExternalHost() string {
	return c.Name + ".localho.st"
}

// ExternalAddress is the address packaged for the peers to dial: the
// external host name with the declared service port.
func (c *Chaincode) ExternalAddress() string {
	return fmt.Sprintf("%s:%d", c.ExternalHost(), c.Port())
}

// ListenAddress is the address the chaincode server binds. The peers
// reach the service from inside the container through its gateway, so
// the server listens on all interfaces at the declared port.
func (c *Chaincode) ListenAddress() string {
	return fmt.Sprintf("0.0.0.0:%d", c.Port())
}

func splitAddress(address string) (string, int, error) {
	i := strings.LastIndex(address, ":")
	if i < 0 {
		return address, 0, errors.Errorf("address [%s] has no port", address)
	}
	port, err := strconv.Atoi(address[i+1:])
	if err != nil {
		return address[:i], 0, errors.Wrapf(err, "address [%s] has a bad port", address)
	}
	return address[:i], port, nil
}
