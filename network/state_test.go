/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package network

import (
	"encoding/base64"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func b64(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func TestParseState(t *testing.T) {
	raw := []byte(fmt.Sprintf(`{
		"org1admin": {
			"display_name": "Org1 Admin",
			"type": "identity",
			"cert": %q,
			"private_key": %q,
			"ca": %q
		},
		"tls": {
			"id": "tls",
			"type": "identity",
			"cert": %q,
			"private_key": %q,
			"ca": %q
		}
	}`, b64("admin cert"), b64("admin key"), b64("admin ca"),
		b64("tls cert"), b64("tls key"), b64("tls ca")))

	state, err := ParseState(raw)
	require.NoError(t, err)

	admin, ok := state.Identity("org1admin")
	require.True(t, ok)
	// ids omitted from the document are filled in from the key
	assert.Equal(t, "org1admin", admin.ID)
	assert.Equal(t, "Org1 Admin", admin.DisplayName)

	cert, err := admin.CertificatePEM()
	require.NoError(t, err)
	assert.Equal(t, "admin cert", string(cert))
	key, err := admin.PrivateKeyPEM()
	require.NoError(t, err)
	assert.Equal(t, "admin key", string(key))
	ca, err := admin.CAPEM()
	require.NoError(t, err)
	assert.Equal(t, "admin ca", string(ca))

	tls := state.TLS()
	require.NotNil(t, tls)
	assert.Equal(t, "tls", tls.ID)

	_, ok = state.Identity("org2admin")
	assert.False(t, ok)
}

func TestParseStateRejectsGarbage(t *testing.T) {
	_, err := ParseState([]byte("not json"))
	assert.Error(t, err)
}

func TestStateWithoutTLSIdentity(t *testing.T) {
	state, err := ParseState([]byte(`{}`))
	require.NoError(t, err)
	assert.Nil(t, state.TLS())
}

func TestIdentityMaterialErrors(t *testing.T) {
	identity := &Identity{ID: "org1admin"}
	_, err := identity.CertificatePEM()
	assert.Error(t, err)

	identity.Certificate = "not base64!"
	_, err = identity.CertificatePEM()
	assert.Error(t, err)
}
