/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package chaincode

import (
	"os"
	"path/filepath"

	"github.com/hyperledger/fabric-chaincode-go/shim"
	"github.com/pkg/errors"

	"github.com/hyperledger-labs/microfab-go/topology"
)

// The chaincode service reads its configuration through the same
// variables a standalone chaincode binary would, so the server setup
// below stays interchangeable with one running outside this process.
const (
	serverAddressVar = "CHAINCODE_SERVER_ADDRESS"
	chaincodeIDVar   = "CORE_CHAINCODE_ID_NAME"
	tlsEnabledVar    = "CORE_PEER_TLS_ENABLED"
	tlsCertFileVar   = "CORE_TLS_CLIENT_CERT_FILE"
	tlsKeyFileVar    = "CORE_TLS_CLIENT_KEY_FILE"
	tlsRootCertVar   = "CORE_PEER_TLS_ROOTCERT_FILE"
	tlsClientAuthVar = "CORE_PEER_TLS_CLIENTAUTHREQUIRED"
)

// runtimeEnv assembles the chaincode server configuration for the given
// chaincode. With TLS enabled the certificate material is materialized
// into a throwaway directory, file paths being the only form the server
// configuration carries.
func runtimeEnv(t *topology.Topology, cc *topology.Chaincode) (map[string]string, error) {
	env := map[string]string{
		serverAddressVar: cc.ListenAddress(),
		chaincodeIDVar:   cc.PackageID(),
	}
	if !tlsEnabled(t) {
		return env, nil
	}

	dir, err := os.MkdirTemp("", "microfab-"+cc.Name+"-tls-")
	if err != nil {
		return nil, errors.Wrapf(err, "failed creating tls directory for chaincode [%s]", cc.Name)
	}
	material := []struct {
		file string
		pem  func() ([]byte, error)
		env  string
	}{
		{"ca.pem", t.TLS.CAPEM, tlsRootCertVar},
		{"cert.pem", t.TLS.CertificatePEM, tlsCertFileVar},
		{"key.pem", t.TLS.PrivateKeyPEM, tlsKeyFileVar},
	}
	for _, m := range material {
		raw, err := m.pem()
		if err != nil {
			return nil, errors.Wrapf(err, "chaincode [%s] needs the network tls material", cc.Name)
		}
		path := filepath.Join(dir, m.file)
		if err := os.WriteFile(path, raw, 0o600); err != nil {
			return nil, errors.Wrapf(err, "failed writing tls material for chaincode [%s]", cc.Name)
		}
		env[m.env] = path
	}
	env[tlsEnabledVar] = "true"
	env[tlsClientAuthVar] = "false"
	return env, nil
}

// newChaincodeServer builds the gRPC server serving the chaincode, with
// TLS taken from the files the configuration points at.
func newChaincodeServer(env map[string]string, cc *topology.Chaincode) (*shim.ChaincodeServer, error) {
	if cc.Code == nil {
		return nil, errors.Errorf("chaincode [%s] has no implementation to serve", cc.Name)
	}

	tlsProps := shim.TLSProperties{Disabled: true}
	if env[tlsEnabledVar] == "true" {
		key, err := os.ReadFile(env[tlsKeyFileVar])
		if err != nil {
			return nil, errors.Wrapf(err, "failed reading tls key for chaincode [%s]", cc.Name)
		}
		cert, err := os.ReadFile(env[tlsCertFileVar])
		if err != nil {
			return nil, errors.Wrapf(err, "failed reading tls certificate for chaincode [%s]", cc.Name)
		}
		tlsProps = shim.TLSProperties{
			Disabled: false,
			Key:      key,
			Cert:     cert,
		}
		if env[tlsClientAuthVar] == "true" {
			clientCACerts, err := os.ReadFile(env[tlsRootCertVar])
			if err != nil {
				return nil, errors.Wrapf(err, "failed reading tls root certificate for chaincode [%s]", cc.Name)
			}
			tlsProps.ClientCACerts = clientCACerts
		}
	}

	return &shim.ChaincodeServer{
		CCID:     env[chaincodeIDVar],
		Address:  env[serverAddressVar],
		CC:       cc.Code,
		TLSProps: tlsProps,
	}, nil
}

// serverRunner adapts a chaincode server to process supervision. The
// server has no stop API; a signal simply abandons it and the serving
// goroutine dies with the process.
type serverRunner struct {
	server *shim.ChaincodeServer
}

func (r *serverRunner) Run(signals <-chan os.Signal, ready chan<- struct{}) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- r.server.Start()
	}()
	close(ready)
	select {
	case err := <-errCh:
		return err
	case <-signals:
		return nil
	}
}
