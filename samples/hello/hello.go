/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package hello carries a minimal contract used to exercise a freshly
// started network end to end.
package hello

import (
	"github.com/hyperledger/fabric-chaincode-go/shim"
	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/pkg/errors"
)

// Hello is the greeting returned by the contract.
type Hello struct {
	Name string `json:"name"`
}

// Contract greets whoever invokes it.
type Contract struct {
	contractapi.Contract
}

// Say returns a greeting for the given name.
func (c *Contract) Say(_ contractapi.TransactionContextInterface, name string) (*Hello, error) {
	if name == "" {
		return nil, errors.New("a name is required")
	}
	return &Hello{Name: name}, nil
}

// NewChaincode wraps the contract so it can be served as a chaincode.
func NewChaincode() (shim.Chaincode, error) {
	cc, err := contractapi.NewChaincode(&Contract{})
	if err != nil {
		return nil, errors.Wrap(err, "failed building hello chaincode")
	}
	return cc, nil
}
