/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package network

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"io"
	"net/http"

	"github.com/pkg/errors"

	"github.com/hyperledger-labs/microfab-go/topology"
)

const componentsPath = "/ak/api/v1/components"

// ConsoleClient talks to the Microfab console REST service. When TLS is
// enabled it trusts exactly the network's CA certificate, nothing else.
type ConsoleClient struct {
	baseURL string
	client  *http.Client
}

// NewConsoleClient builds a console client for the given topology. With
// TLS enabled the topology must already carry the CA material, so it must
// be constructed after any TLS back-fill.
func NewConsoleClient(t *topology.Topology) (*ConsoleClient, error) {
	client := &http.Client{}
	if t.TLS != nil && t.TLS.Enabled {
		caPEM, err := t.TLS.CAPEM()
		if err != nil {
			return nil, errors.Wrap(err, "console client needs the network CA")
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caPEM) {
			return nil, errors.New("failed adding network CA to cert pool")
		}
		client.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{RootCAs: pool},
		}
	}
	return &ConsoleClient{baseURL: t.ConsoleURL(), client: client}, nil
}

// Admins retrieves the visible admin identities from the console
// components endpoint, keyed by identity id. Components that are not of
// type "identity", or that the console hides, are skipped.
func (c *ConsoleClient) Admins() (map[string]*Identity, error) {
	url := c.baseURL + componentsPath
	resp, err := c.client.Get(url)
	if err != nil {
		return nil, errors.Wrapf(err, "failed querying console at '%s'", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("console at '%s' answered with status %d", url, resp.StatusCode)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed reading console response")
	}

	var components []*Identity
	if err := json.Unmarshal(raw, &components); err != nil {
		return nil, errors.Wrap(err, "failed unmarshalling console components")
	}

	admins := map[string]*Identity{}
	for _, component := range components {
		if component.Type != "identity" || component.Hide {
			continue
		}
		admins[component.ID] = component
	}
	return admins, nil
}

// Close releases the client's idle connections.
func (c *ConsoleClient) Close() {
	c.client.CloseIdleConnections()
}
