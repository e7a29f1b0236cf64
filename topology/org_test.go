/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package topology

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDerivedIdentifiers(t *testing.T) {
	org := &Organization{Name: "Org1"}
	assert.Equal(t, "Org1MSP", org.MSPID())
	assert.Equal(t, "org1admin", org.AdminID())
	assert.Equal(t, "org1caadmin", org.CAAdminID())
	assert.Equal(t, "org1ca", org.CAID())
	assert.Equal(t, "org1peer", org.PeerID())
	assert.Equal(t, "org1gateway", org.GatewayID())
	assert.Equal(t, "admin-org1", org.AdminMSPDir())
	assert.Equal(t, "peer-org1/config", org.PeerConfigDir())
	assert.Equal(t, "orderer", org.OrdererID())
}

func TestMSPIDStripsNonAlphanumerics(t *testing.T) {
	testCases := []struct {
		name  string
		mspID string
	}{
		{"Org1", "Org1MSP"},
		{"Org@1!", "Org1MSP"},
		{"Wide Gap Trading", "WideGapTradingMSP"},
		{"a-b_c.d", "abcdMSP"},
	}
	for _, tc := range testCases {
		org := &Organization{Name: tc.name}
		assert.Equal(t, tc.mspID, org.MSPID(), "name %q", tc.name)
	}
}

func TestDerivedIdentifiersAreLowercase(t *testing.T) {
	org := &Organization{Name: "WidGets"}
	assert.Equal(t, "widgetsadmin", org.AdminID())
	assert.Equal(t, "widgetspeer", org.PeerID())
	assert.Equal(t, "admin-widgets", org.AdminMSPDir())
	assert.Equal(t, "peer-widgets/config", org.PeerConfigDir())
}
