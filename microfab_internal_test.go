/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package microfab

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hyperledger-labs/microfab-go/chaincode"
	"github.com/hyperledger-labs/microfab-go/topology"
)

func TestOptionsAccumulate(t *testing.T) {
	p := New(topology.NewTopology(),
		WithChaincodeDevMode(),
		WithBuilders(&chaincode.CCaaSBuilder{}),
	)
	assert.Len(t, p.networkOptions, 1)
	assert.Len(t, p.builders, 1)
}

func TestStopBeforeStartIsSafe(t *testing.T) {
	p := New(topology.NewTopology())
	assert.NoError(t, p.Stop())
	assert.NoError(t, p.Stop())
}
