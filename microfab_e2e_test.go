/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package microfab_test

import (
	"os"
	"testing"

	. "github.com/onsi/gomega"

	microfab "github.com/hyperledger-labs/microfab-go"
	"github.com/hyperledger-labs/microfab-go/samples/hello"
	"github.com/hyperledger-labs/microfab-go/topology"
)

// TestPlatformEndToEnd spins up a real network, commits the hello
// chaincode and invokes it through the gateway. It needs a docker daemon
// and the Microfab image, so it only runs when MICROFAB_IMAGE is set.
func TestPlatformEndToEnd(t *testing.T) {
	image := os.Getenv("MICROFAB_IMAGE")
	if image == "" {
		t.Skip("set MICROFAB_IMAGE to run against a local docker daemon")
	}
	RegisterTestingT(t)

	code, err := hello.NewChaincode()
	Expect(err).NotTo(HaveOccurred())

	top := topology.NewTopology()
	top.Image = image
	top.Chaincodes = []*topology.Chaincode{topology.NewChaincode("hello", code)}
	top.Channels[0].Chaincodes = []string{"hello"}

	platform := microfab.New(top)
	Expect(platform.Start()).To(Succeed())
	defer func() {
		Expect(platform.Stop()).To(Succeed())
	}()
	Expect(platform.DeploymentFailures()).To(BeEmpty())

	gw, err := platform.Gateway("Org1")
	Expect(err).NotTo(HaveOccurred())
	result, err := gw.Contract("channel1", "hello").EvaluateTransaction("Say", "world")
	Expect(err).NotTo(HaveOccurred())
	Expect(result).To(MatchJSON(`{"name": "world"}`))
}
