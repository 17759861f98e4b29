package pdf_test

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/sealsign-pades/internal/infrastructure/pdf"
	"github.com/jhoicas/sealsign-pades/pkg/sealsign"
)

func selfSigned(t *testing.T, cn string) []byte {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(0xCAFE),
		Subject:      pkix.Name{CommonName: cn},
		NotBefore:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		NotAfter:     time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	return der
}

func TestDescribeCertificate(t *testing.T) {
	s := pdf.DescribeCertificate(selfSigned(t, "Firmante de prueba"))

	assert.Equal(t, "CN=Firmante de prueba", s.Subject)
	assert.Equal(t, "CN=Firmante de prueba", s.Issuer)
	assert.Equal(t, "CAFE", s.Serial)
	assert.Contains(t, s.Validity, "01/01/2025")
	assert.Len(t, s.Fingerprint, 64)
}

func TestDescribeCertificate_NoDecodificable(t *testing.T) {
	s := pdf.DescribeCertificate([]byte("basura"))

	assert.Equal(t, pdf.Undecodable, s.Subject)
	assert.Empty(t, s.Issuer)
	assert.Len(t, s.Fingerprint, 64, "la huella se calcula aunque no se pueda parsear")
}

func TestGenerate_RegistroCompleto(t *testing.T) {
	signer := selfSigned(t, "Firmante")
	rec := &sealsign.VerificationRecord{
		SignerCertificate: signer,
		Chain:             [][]byte{signer, []byte("cert roto")},
		CRL:               []byte{0x30, 0x00},
		OCSP: &sealsign.OCSPInfo{
			Encoded:           []byte{0x30, 0x00},
			EndCertificate:    signer,
			IssuerCertificate: signer,
		},
		TimestampSignerCertificate: selfSigned(t, "TSA"),
	}

	out, err := pdf.NewVerificationReport().Generate(context.Background(), pdf.ReportMeta{
		Document:  "contrato.pdf",
		Operation: sealsign.OpVerifyDigest,
	}, rec)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestGenerate_RegistroRechazadoSinDatos(t *testing.T) {
	out, err := pdf.NewVerificationReport().Generate(context.Background(), pdf.ReportMeta{}, &sealsign.VerificationRecord{Result: 4})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestGenerate_RegistroNulo(t *testing.T) {
	_, err := pdf.NewVerificationReport().Generate(context.Background(), pdf.ReportMeta{}, nil)
	assert.Error(t, err)
}
