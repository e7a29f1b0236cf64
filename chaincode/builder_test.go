/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package chaincode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tedsuo/ifrit"

	"github.com/hyperledger-labs/microfab-go/network"
	"github.com/hyperledger-labs/microfab-go/topology"
)

type fakeBuilder struct {
	accepts topology.ChaincodeType
}

func (b *fakeBuilder) Detect(cc *topology.Chaincode) bool {
	return cc.Type == b.accepts
}

func (b *fakeBuilder) Build(*network.Network, *topology.Channel, *topology.Chaincode) ([]*CommandError, error) {
	return nil, nil
}

func (b *fakeBuilder) Run(*network.Network, *topology.Chaincode) (ifrit.Process, error) {
	return nil, nil
}

func TestBuilderDispatch(t *testing.T) {
	d := NewDeployer()
	ccaas := topology.NewChaincode("hello", nil)
	require.NotNil(t, d.builderFor(ccaas))
	assert.IsType(t, &CCaaSBuilder{}, d.builderFor(ccaas))

	inProcess := topology.NewChaincode("hello", nil)
	inProcess.Type = topology.ChaincodeTypeInProcess
	assert.Nil(t, d.builderFor(inProcess))
}

func TestExtraBuildersAreConsultedFirst(t *testing.T) {
	extra := &fakeBuilder{accepts: topology.ChaincodeTypeCCaaS}
	d := NewDeployer(extra)

	cc := topology.NewChaincode("hello", nil)
	assert.Same(t, extra, d.builderFor(cc).(*fakeBuilder))
}

func TestCCaaSDetect(t *testing.T) {
	b := &CCaaSBuilder{}
	assert.True(t, b.Detect(topology.NewChaincode("hello", nil)))

	cc := topology.NewChaincode("hello", nil)
	cc.Type = topology.ChaincodeTypeInProcess
	assert.False(t, b.Detect(cc))
}

func TestCommandErrorMessage(t *testing.T) {
	err := &CommandError{
		Organization: "Org1",
		Command:      []string{"peer", "lifecycle", "chaincode", "install", "hello.tar.gz"},
		ExitCode:     1,
		Output:       "no such package",
	}
	assert.Equal(t,
		"command 'peer lifecycle chaincode install hello.tar.gz' for organization [Org1] exited with 1: no such package",
		err.Error())
}
