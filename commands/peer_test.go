/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChaincodeInstall(t *testing.T) {
	cmd := ChaincodeInstall{PackageFile: "/home/microfab/data/chaincodes/hello/hello.tar.gz"}
	assert.Equal(t, []string{
		"peer", "lifecycle", "chaincode", "install",
		"/home/microfab/data/chaincodes/hello/hello.tar.gz",
	}, cmd.Args())
}

func TestChaincodeApproveForMyOrg(t *testing.T) {
	cmd := ChaincodeApproveForMyOrg{
		ChannelID: "channel1",
		Name:      "hello",
		Version:   "1.0",
		PackageID: "hello_1.0:cafe01",
		Sequence:  "1",
		OrdererCA: "/home/microfab/data/orderer/tls/ca.pem",
	}
	assert.Equal(t, []string{
		"peer", "lifecycle", "chaincode", "approveformyorg",
		"--channelID", "channel1",
		"--name", "hello",
		"--version", "1.0",
		"--package-id", "hello_1.0:cafe01",
		"--sequence", "1",
		"--cafile", "/home/microfab/data/orderer/tls/ca.pem",
	}, cmd.Args())

	cmd.TLS = true
	assert.Equal(t, "--tls", cmd.Args()[len(cmd.Args())-1])
}

func TestChaincodeCheckCommitReadiness(t *testing.T) {
	cmd := ChaincodeCheckCommitReadiness{
		ChannelID: "channel1",
		Name:      "hello",
		Version:   "1.0",
		Sequence:  "1",
	}
	assert.Equal(t, []string{
		"peer", "lifecycle", "chaincode", "checkcommitreadiness",
		"--channelID", "channel1",
		"--name", "hello",
		"--version", "1.0",
		"--sequence", "1",
		"--output", "json",
	}, cmd.Args())
}

func TestChaincodeCommit(t *testing.T) {
	cmd := ChaincodeCommit{
		ChannelID: "channel1",
		Name:      "hello",
		Version:   "1.0",
		Sequence:  "1",
		OrdererCA: "/home/microfab/data/orderer/tls/ca.pem",
		TLS:       true,
	}
	assert.Equal(t, []string{
		"peer", "lifecycle", "chaincode", "commit",
		"--channelID", "channel1",
		"--name", "hello",
		"--version", "1.0",
		"--sequence", "1",
		"--cafile", "/home/microfab/data/orderer/tls/ca.pem",
		"--tls",
	}, cmd.Args())
}
