/*
Copyright 2017 Heptio Inc.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package ca is a minimal, in-memory certificate authority. Cleanroom mints
// one of these per run to issue the span-ingest listener a server cert and
// every service container a client cert, so span pushes over the loopback
// network are authenticated without anybody touching the host's real trust
// store (spec.md section 4.8).
package ca

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"net"
	"sync"
	"time"

	"github.com/pkg/errors"
)

const keyBits = 2048

// Authority is a self-signed root CA plus a serial counter. The zero value
// is not usable; construct one with NewAuthority.
type Authority struct {
	rootCert *x509.Certificate
	rootKey  *rsa.PrivateKey

	mu     sync.Mutex
	serial int64
}

// NewAuthority generates a fresh root key pair and self-signed certificate.
// Every call produces an independent authority -- Cleanroom never persists
// or reuses one across runs.
func NewAuthority() (*Authority, error) {
	key, err := rsa.GenerateKey(rand.Reader, keyBits)
	if err != nil {
		return nil, errors.Wrap(err, "generating CA key")
	}

	template := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "cleanroom-run-ca"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		return nil, errors.Wrap(err, "self-signing CA certificate")
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, errors.Wrap(err, "parsing CA certificate")
	}

	return &Authority{rootCert: cert, rootKey: key, serial: 1}, nil
}

// nextSerial hands out a strictly increasing serial number, starting at 2
// (the root certificate itself is serial 1).
func (a *Authority) nextSerial() *big.Int {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.serial++
	return big.NewInt(a.serial)
}

// CACertPool returns a pool containing just this run's root certificate,
// suitable for tls.Config.RootCAs / ClientCAs.
func (a *Authority) CACertPool() *x509.CertPool {
	pool := x509.NewCertPool()
	pool.AddCert(a.rootCert)
	return pool
}

// ServerKeyPair issues a leaf certificate valid for ServerAuth and the given
// name (used as both CommonName and, when it parses as an IP, a SAN IP
// address; otherwise as a SAN DNS name).
func (a *Authority) ServerKeyPair(name string) (*tls.Certificate, error) {
	return a.issue(name, x509.ExtKeyUsageServerAuth)
}

// ClientKeyPair issues a leaf certificate valid for ClientAuth.
func (a *Authority) ClientKeyPair(name string) (*tls.Certificate, error) {
	return a.issue(name, x509.ExtKeyUsageClientAuth)
}

func (a *Authority) issue(name string, usage x509.ExtKeyUsage) (*tls.Certificate, error) {
	key, err := rsa.GenerateKey(rand.Reader, keyBits)
	if err != nil {
		return nil, errors.Wrap(err, "generating leaf key")
	}

	template := &x509.Certificate{
		SerialNumber: a.nextSerial(),
		Subject:      pkix.Name{CommonName: name},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:  []x509.ExtKeyUsage{usage},
	}
	if ip := net.ParseIP(name); ip != nil {
		template.IPAddresses = []net.IP{ip}
	} else {
		template.DNSNames = []string{name}
	}

	der, err := x509.CreateCertificate(rand.Reader, template, a.rootCert, &key.PublicKey, a.rootKey)
	if err != nil {
		return nil, errors.Wrap(err, "signing leaf certificate")
	}
	leaf, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, errors.Wrap(err, "parsing leaf certificate")
	}

	return &tls.Certificate{
		Certificate: [][]byte{der},
		PrivateKey:  key,
		Leaf:        leaf,
	}, nil
}

// MakeServerConfig builds a tls.Config for a span-ingest listener bound to
// host: it presents a server cert for host and requires (and verifies)
// a client cert signed by this same authority, so only Cleanroom's own
// service containers can push spans to it.
func (a *Authority) MakeServerConfig(host string) (*tls.Config, error) {
	cert, err := a.ServerKeyPair(host)
	if err != nil {
		return nil, err
	}
	return &tls.Config{
		Certificates: []tls.Certificate{*cert},
		ClientAuth:   tls.RequireAndVerifyClientCert,
		ClientCAs:    a.CACertPool(),
		MinVersion:   tls.VersionTLS12,
	}, nil
}
