/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package topology

import (
	"regexp"
	"strings"
)

var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// Organization models an organization in the Microfab topology, either
// the ordering organization or an endorsing one. Every identifier Microfab
// derives from the organization is a pure function of its name.
type Organization struct {
	Name string `json:"name" yaml:"name"`
}

// MSPID strips all non-alphanumeric characters from the organization name
// and appends "MSP"; "Org@1!" becomes "Org1MSP".
func (o *Organization) MSPID() string {
	return nonAlphanumeric.ReplaceAllString(o.Name, "") + "MSP"
}

// AdminID is the identity id of the organization admin, e.g. "org1admin".
func (o *Organization) AdminID() string {
	return strings.ToLower(o.Name) + "admin"
}

// CAAdminID is the identity id of the CA admin, e.g. "org1caadmin".
func (o *Organization) CAAdminID() string {
	return strings.ToLower(o.Name) + "caadmin"
}

// CAID is the identity id of the organization CA, e.g. "org1ca".
func (o *Organization) CAID() string {
	return strings.ToLower(o.Name) + "ca"
}

// PeerID is the identity id of the organization peer, e.g. "org1peer".
func (o *Organization) PeerID() string {
	return strings.ToLower(o.Name) + "peer"
}

// GatewayID is the identity id of the organization gateway, e.g. "org1gateway".
func (o *Organization) GatewayID() string {
	return strings.ToLower(o.Name) + "gateway"
}

// AdminMSPDir is the admin's MSP directory relative to the Microfab state
// directory, e.g. "admin-org1".
func (o *Organization) AdminMSPDir() string {
	return "admin-" + strings.ToLower(o.Name)
}

// PeerConfigDir is the peer's configuration directory relative to the
// Microfab state directory, e.g. "peer-org1/config".
func (o *Organization) PeerConfigDir() string {
	return "peer-" + strings.ToLower(o.Name) + "/config"
}

// OrdererID returns the fixed id Microfab uses for its single ordering
// service node.
func (o *Organization) OrdererID() string {
	return "orderer"
}
