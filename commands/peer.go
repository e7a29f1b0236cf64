/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package commands

// Command yields the argv of a peer CLI invocation executed inside the
// Microfab container.
type Command interface {
	Args() []string
}

type ChaincodeInstall struct {
	PackageFile string
}

func (c ChaincodeInstall) Args() []string {
	return []string{
		"peer", "lifecycle", "chaincode", "install",
		c.PackageFile,
	}
}

type ChaincodeApproveForMyOrg struct {
	ChannelID string
	Name      string
	Version   string
	PackageID string
	Sequence  string
	OrdererCA string
	TLS       bool
}

func (c ChaincodeApproveForMyOrg) Args() []string {
	args := []string{
		"peer", "lifecycle", "chaincode", "approveformyorg",
		"--channelID", c.ChannelID,
		"--name", c.Name,
		"--version", c.Version,
		"--package-id", c.PackageID,
		"--sequence", c.Sequence,
		"--cafile", c.OrdererCA,
	}
	if c.TLS {
		args = append(args, "--tls")
	}
	return args
}

type ChaincodeCheckCommitReadiness struct {
	ChannelID string
	Name      string
	Version   string
	Sequence  string
}

func (c ChaincodeCheckCommitReadiness) Args() []string {
	return []string{
		"peer", "lifecycle", "chaincode", "checkcommitreadiness",
		"--channelID", c.ChannelID,
		"--name", c.Name,
		"--version", c.Version,
		"--sequence", c.Sequence,
		"--output", "json",
	}
}

type ChaincodeCommit struct {
	ChannelID string
	Name      string
	Version   string
	Sequence  string
	OrdererCA string
	TLS       bool
}

func (c ChaincodeCommit) Args() []string {
	args := []string{
		"peer", "lifecycle", "chaincode", "commit",
		"--channelID", c.ChannelID,
		"--name", c.Name,
		"--version", c.Version,
		"--sequence", c.Sequence,
		"--cafile", c.OrdererCA,
	}
	if c.TLS {
		args = append(args, "--tls")
	}
	return args
}
