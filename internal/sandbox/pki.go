package sandbox

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"fmt"
	"math/big"
	"time"

	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"
	"golang.org/x/crypto/ocsp"
)

const keyBits = 2048

// oidTSTInfo id-ct-TSTInfo (RFC 3161).
var oidTSTInfo = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 9, 16, 1, 4}

// authority material criptográfico del sandbox: una llave RSA y un certificado
// autofirmado que actúa a la vez de firmante, CA, emisor de CRL, respondedor OCSP y TSA.
type authority struct {
	key  *rsa.PrivateKey
	cert *x509.Certificate
	crl  []byte // CRL DER vacía emitida por cert
	ocsp []byte // BasicOCSPResponse DER (estado good para cert)
}

func newAuthority(commonName string) (*authority, error) {
	key, err := rsa.GenerateKey(rand.Reader, keyBits)
	if err != nil {
		return nil, fmt.Errorf("sandbox: generar llave: %w", err)
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 62))
	if err != nil {
		return nil, fmt.Errorf("sandbox: serial: %w", err)
	}
	now := time.Now()
	tmpl := &x509.Certificate{
		SerialNumber:          serial,
		Subject:               pkix.Name{CommonName: commonName, Organization: []string{"SealSign Sandbox"}},
		NotBefore:             now.Add(-time.Hour),
		NotAfter:              now.AddDate(1, 0, 0),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageOCSPSigning, x509.ExtKeyUsageTimeStamping},
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		return nil, fmt.Errorf("sandbox: crear certificado: %w", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, fmt.Errorf("sandbox: parsear certificado: %w", err)
	}

	a := &authority{key: key, cert: cert}

	a.crl, err = x509.CreateRevocationList(rand.Reader, &x509.RevocationList{
		Number:     big.NewInt(1),
		ThisUpdate: now,
		NextUpdate: now.Add(24 * time.Hour),
	}, cert, key)
	if err != nil {
		return nil, fmt.Errorf("sandbox: crear CRL: %w", err)
	}

	resp, err := ocsp.CreateResponse(cert, cert, ocsp.Response{
		Status:       ocsp.Good,
		SerialNumber: cert.SerialNumber,
		ThisUpdate:   now,
		NextUpdate:   now.Add(time.Hour),
	}, key)
	if err != nil {
		return nil, fmt.Errorf("sandbox: crear respuesta OCSP: %w", err)
	}
	if a.ocsp, err = basicOCSP(resp); err != nil {
		return nil, err
	}
	return a, nil
}

// basicOCSP extrae el BasicOCSPResponse de un OCSPResponse completo;
// el servicio real entrega la respuesta básica sin el sobre.
func basicOCSP(der []byte) ([]byte, error) {
	var (
		outer, bytesSeq, inner cryptobyte.String
		status                 int
		oid                    asn1.ObjectIdentifier
		basic                  []byte
	)
	in := cryptobyte.String(der)
	if !in.ReadASN1(&outer, cbasn1.SEQUENCE) ||
		!outer.ReadASN1Enum(&status) ||
		!outer.ReadASN1(&bytesSeq, cbasn1.Tag(0).Constructed().ContextSpecific()) ||
		!bytesSeq.ReadASN1(&inner, cbasn1.SEQUENCE) ||
		!inner.ReadASN1ObjectIdentifier(&oid) ||
		!inner.ReadASN1Bytes(&basic, cbasn1.OCTET_STRING) {
		return nil, fmt.Errorf("sandbox: respuesta OCSP malformada")
	}
	return basic, nil
}

// sign PKCS#1 v1.5 directo sobre el digest recibido (sin DigestInfo).
func (a *authority) sign(digest []byte) ([]byte, error) {
	return rsa.SignPKCS1v15(rand.Reader, a.key, crypto.Hash(0), digest)
}

func (a *authority) verify(digest, signature []byte) bool {
	return rsa.VerifyPKCS1v15(&a.key.PublicKey, crypto.Hash(0), digest, signature) == nil
}

// timestampToken es el sello del sandbox: SEQUENCE { OID, OCTET STRING digest, GeneralizedTime }.
type timestampToken struct {
	Type   asn1.ObjectIdentifier
	Digest []byte
	Time   time.Time `asn1:"generalized"`
}

func newTimestamp(digest []byte, at time.Time) ([]byte, error) {
	return asn1.Marshal(timestampToken{Type: oidTSTInfo, Digest: digest, Time: at.UTC().Truncate(time.Second)})
}

// checkTimestamp decodifica el sello y confirma que corresponde a digest.
func checkTimestamp(token, digest []byte) bool {
	var tst timestampToken
	rest, err := asn1.Unmarshal(token, &tst)
	if err != nil || len(rest) != 0 || !tst.Type.Equal(oidTSTInfo) {
		return false
	}
	return string(tst.Digest) == string(digest)
}
