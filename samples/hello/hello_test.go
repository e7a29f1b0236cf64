/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package hello

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSay(t *testing.T) {
	contract := &Contract{}
	greeting, err := contract.Say(nil, "world")
	require.NoError(t, err)
	assert.Equal(t, "world", greeting.Name)
}

func TestSayNeedsAName(t *testing.T) {
	contract := &Contract{}
	_, err := contract.Say(nil, "")
	assert.Error(t, err)
}

func TestNewChaincode(t *testing.T) {
	cc, err := NewChaincode()
	require.NoError(t, err)
	assert.NotNil(t, cc)
}
