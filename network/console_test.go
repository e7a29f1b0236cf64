/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package network

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConsole(t *testing.T, handler http.HandlerFunc) *ConsoleClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return &ConsoleClient{baseURL: server.URL, client: server.Client()}
}

func TestConsoleAdmins(t *testing.T) {
	console := newTestConsole(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, componentsPath, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id": "org1admin", "type": "identity", "cert": "Y2VydA==", "private_key": "a2V5", "ca": "Y2E="},
			{"id": "org1caadmin", "type": "identity", "cert": "Y2VydA==", "private_key": "a2V5", "ca": "Y2E=", "hide": true},
			{"id": "org1peer", "type": "fabric-peer"}
		]`))
	})

	admins, err := console.Admins()
	require.NoError(t, err)
	// hidden identities and non-identity components are skipped
	require.Len(t, admins, 1)
	admin, ok := admins["org1admin"]
	require.True(t, ok)
	assert.Equal(t, "identity", admin.Type)
}

func TestConsoleAdminsBadStatus(t *testing.T) {
	console := newTestConsole(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	})

	_, err := console.Admins()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestConsoleAdminsBadPayload(t *testing.T) {
	console := newTestConsole(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"not": "a list"}`))
	})

	_, err := console.Admins()
	assert.Error(t, err)
}

func TestConsoleAdminsUnreachable(t *testing.T) {
	console := &ConsoleClient{baseURL: "http://127.0.0.1:1", client: &http.Client{}}
	_, err := console.Admins()
	assert.Error(t, err)
}
