// Configuración TLS del canal SOAP: CA fijada, hostname esperado y certificado cliente opcional.

package soap

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/pkcs12"
)

// TLSOptions opciones del canal TLS hacia el servicio.
type TLSOptions struct {
	InsecureSkipVerify bool   // desactiva la verificación del servidor (solo pruebas)
	CAFile             string // bundle PEM de CA fijado; vacío = raíces del sistema
	ServerName         string // hostname esperado en el certificado del servidor

	ClientCertPath     string // .pem, o .p12/.pfx (PKCS#12)
	ClientKeyPath      string // llave PEM si ClientCertPath es solo el certificado
	ClientCertPassword string // contraseña del .p12
}

func buildTLSConfig(o TLSOptions) (*tls.Config, error) {
	cfg := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		ServerName:         o.ServerName,
		InsecureSkipVerify: o.InsecureSkipVerify, //nolint:gosec // controlado por SEALSIGN_VERIFY_PEER
	}

	if o.CAFile != "" {
		pem, err := os.ReadFile(o.CAFile)
		if err != nil {
			return nil, fmt.Errorf("soap: leer CA fijada: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("soap: %s no contiene certificados PEM", o.CAFile)
		}
		cfg.RootCAs = pool
	}

	if o.ClientCertPath != "" {
		cert, err := LoadClientCertificate(o.ClientCertPath, o.ClientKeyPath, o.ClientCertPassword)
		if err != nil {
			return nil, err
		}
		cfg.Certificates = []tls.Certificate{cert}
	}
	return cfg, nil
}

// LoadClientCertificate carga el certificado cliente desde un .p12/.pfx o un par PEM.
func LoadClientCertificate(certPath, keyPath, password string) (tls.Certificate, error) {
	switch strings.ToLower(filepath.Ext(certPath)) {
	case ".p12", ".pfx":
		return loadFromP12(certPath, password)
	default:
		return loadFromPEM(certPath, keyPath)
	}
}

func loadFromP12(path, password string) (tls.Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("soap: leer p12: %w", err)
	}
	priv, cert, err := pkcs12.Decode(data, password)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("soap: decodificar p12: %w", err)
	}
	// pkcs12.Decode devuelve solo el certificado hoja.
	return tls.Certificate{
		Certificate: [][]byte{cert.Raw},
		PrivateKey:  priv,
		Leaf:        cert,
	}, nil
}

func loadFromPEM(certPath, keyPath string) (tls.Certificate, error) {
	if keyPath == "" {
		// Un solo archivo puede contener cert+key en PEM
		keyPath = certPath
	}
	cert, err := tls.LoadX509KeyPair(certPath, keyPath)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("soap: cargar certificado cliente PEM: %w", err)
	}
	return cert, nil
}
