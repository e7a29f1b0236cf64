/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package topology

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// DefaultImage is the container image used to run Microfab when the
// topology does not name one.
const DefaultImage = "hyperledger-labs/microfab:latest"

// Topology is the declarative description of a Microfab network. Its JSON
// form is the exact document microfabd expects in the MICROFAB_CONFIG
// environment variable; fields that only matter to the orchestrator
// (image, chaincodes) are excluded from that document.
type Topology struct {
	Image                  string          `json:"-" yaml:"image,omitempty"`
	Domain                 string          `json:"domain" yaml:"domain,omitempty"`
	Port                   int             `json:"port" yaml:"port,omitempty"`
	Directory              string          `json:"directory" yaml:"directory,omitempty"`
	OrderingOrganization   *Organization   `json:"ordering_organization" yaml:"ordering_organization,omitempty"`
	EndorsingOrganizations []*Organization `json:"endorsing_organizations" yaml:"endorsing_organizations,omitempty"`
	Channels               []*Channel      `json:"channels" yaml:"channels,omitempty"`
	CapabilityLevel        string          `json:"capability_level" yaml:"capability_level,omitempty"`
	CouchDB                bool            `json:"couchdb" yaml:"couchdb"`
	CertificateAuthorities bool            `json:"certificate_authorities" yaml:"certificate_authorities"`
	Timeout                string          `json:"timeout" yaml:"timeout,omitempty"`
	TLS                    *TLS            `json:"tls" yaml:"tls,omitempty"`
	Chaincodes             []*Chaincode    `json:"-" yaml:"chaincodes,omitempty"`
}

// Channel names the organizations that can endorse transactions on it and
// the chaincodes to be activated on it. An empty capability level inherits
// the topology-wide one.
type Channel struct {
	Name                   string   `json:"name" yaml:"name"`
	EndorsingOrganizations []string `json:"endorsing_organizations" yaml:"endorsing_organizations"`
	CapabilityLevel        string   `json:"capability_level,omitempty" yaml:"capability_level,omitempty"`
	Chaincodes             []string `json:"-" yaml:"chaincodes,omitempty"`
}

// NewTopology returns a topology with the same defaults the Microfab
// image ships with: a single Org1 endorsing organization and a single
// channel1 channel, no chaincodes.
func NewTopology() *Topology {
	return &Topology{
		Image:     DefaultImage,
		Domain:    "127-0-0-1.nip.io",
		Port:      8080,
		Directory: "/home/microfab/data",
		OrderingOrganization: &Organization{
			Name: "Orderer",
		},
		EndorsingOrganizations: []*Organization{
			{Name: "Org1"},
		},
		Channels: []*Channel{
			{
				Name:                   "channel1",
				EndorsingOrganizations: []string{"Org1"},
			},
		},
		CapabilityLevel:        "V2_5",
		CouchDB:                true,
		CertificateAuthorities: true,
		Timeout:                "30s",
		TLS:                    &TLS{},
	}
}

// LoadTopology reads a topology from its YAML form, applying the standard
// defaults to any field the document leaves unset.
func LoadTopology(raw []byte) (*Topology, error) {
	t := NewTopology()
	if err := yaml.Unmarshal(raw, t); err != nil {
		return nil, errors.Wrap(err, "failed unmarshalling topology")
	}
	return t, nil
}

// ValidationError reports a malformed topology. It is always raised before
// any network is launched.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid topology: " + e.Reason
}

func validationErrorf(format string, args ...interface{}) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// Validate checks the referential integrity of the topology: every channel
// must reference declared endorsing organizations and declared chaincodes,
// names must be unique, and the timeout must parse.
func (t *Topology) Validate() error {
	if t.OrderingOrganization == nil || t.OrderingOrganization.Name == "" {
		return validationErrorf("an ordering organization is required")
	}
	if len(t.EndorsingOrganizations) == 0 {
		return validationErrorf("at least one endorsing organization is required")
	}
	orgs := map[string]struct{}{}
	for _, org := range t.EndorsingOrganizations {
		if org.Name == "" {
			return validationErrorf("endorsing organizations must be named")
		}
		if _, ok := orgs[org.Name]; ok {
			return validationErrorf("duplicate endorsing organization [%s]", org.Name)
		}
		orgs[org.Name] = struct{}{}
	}
	ccs := map[string]struct{}{}
	for _, cc := range t.Chaincodes {
		if cc.Name == "" {
			return validationErrorf("chaincodes must be named")
		}
		if _, ok := ccs[cc.Name]; ok {
			return validationErrorf("duplicate chaincode [%s]", cc.Name)
		}
		ccs[cc.Name] = struct{}{}
	}
	channels := map[string]struct{}{}
	for _, ch := range t.Channels {
		if ch.Name == "" {
			return validationErrorf("channels must be named")
		}
		if _, ok := channels[ch.Name]; ok {
			return validationErrorf("duplicate channel [%s]", ch.Name)
		}
		channels[ch.Name] = struct{}{}
		if len(ch.EndorsingOrganizations) == 0 {
			return validationErrorf("channel [%s] needs at least one endorsing organization", ch.Name)
		}
		for _, name := range ch.EndorsingOrganizations {
			if _, ok := orgs[name]; !ok {
				return validationErrorf("channel [%s] references undeclared organization [%s]", ch.Name, name)
			}
		}
		for _, name := range ch.Chaincodes {
			if _, ok := ccs[name]; !ok {
				return validationErrorf("channel [%s] references undeclared chaincode [%s]", ch.Name, name)
			}
		}
	}
	if _, err := ParseTimeout(t.Timeout); err != nil {
		return validationErrorf("bad timeout: %s", err)
	}
	return nil
}

// EventuallyTimeout is the deadline applied to network startup.
func (t *Topology) EventuallyTimeout() time.Duration {
	d, err := ParseTimeout(t.Timeout)
	if err != nil {
		// Validate rejects unparseable timeouts before launch.
		return 30 * time.Second
	}
	return d
}

// Serialize produces the pretty-printed JSON document passed to the
// container through MICROFAB_CONFIG.
func (t *Topology) Serialize() ([]byte, error) {
	raw, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "failed marshalling topology")
	}
	return raw, nil
}

// EndorsingOrganization returns the named endorsing organization, or nil.
func (t *Topology) EndorsingOrganization(name string) *Organization {
	for _, org := range t.EndorsingOrganizations {
		if org.Name == name {
			return org
		}
	}
	return nil
}

// Chaincode returns the named declared chaincode, or nil.
func (t *Topology) Chaincode(name string) *Chaincode {
	for _, cc := range t.Chaincodes {
		if cc.Name == name {
			return cc
		}
	}
	return nil
}

// ChannelOrganizations maps the channel's member names onto the declared
// endorsing organizations, preserving the declaration order.
func (t *Topology) ChannelOrganizations(ch *Channel) []*Organization {
	members := map[string]struct{}{}
	for _, name := range ch.EndorsingOrganizations {
		members[name] = struct{}{}
	}
	var orgs []*Organization
	for _, org := range t.EndorsingOrganizations {
		if _, ok := members[org.Name]; ok {
			orgs = append(orgs, org)
		}
	}
	return orgs
}

// APIURL is the gRPC endpoint of the organization's peer, in the form
// <peerID>-api.<domain>:<port>.
func (t *Topology) APIURL(org *Organization) string {
	return fmt.Sprintf("%s-api.%s:%d", org.PeerID(), t.Domain, t.Port)
}

// ConsoleURL is the base URL of the Microfab console service.
func (t *Topology) ConsoleURL() string {
	scheme := "http"
	if t.TLS != nil && t.TLS.Enabled {
		scheme = "https"
	}
	return fmt.Sprintf("%s://console.%s:%d", scheme, t.Domain, t.Port)
}

// OrdererTLSCACertPath is where microfabd writes the ordering service's
// TLS CA certificate inside the container.
func (t *Topology) OrdererTLSCACertPath() string {
	return t.Directory + "/orderer/tls/ca.pem"
}

// StatePath is where microfabd writes its post-boot state snapshot.
func (t *Topology) StatePath() string {
	return t.Directory + "/state.json"
}
