package sandbox_test

import (
	"context"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ocsp"

	"github.com/jhoicas/sealsign-pades/internal/sandbox"
	"github.com/jhoicas/sealsign-pades/pkg/pades"
	"github.com/jhoicas/sealsign-pades/pkg/sealsign"
	"github.com/jhoicas/sealsign-pades/pkg/sealsign/soap"
)

// serve arranca el sandbox en un puerto libre y devuelve un cliente SOAP apuntando a él.
func serve(t *testing.T, svc *sandbox.Service) *soap.Client {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = svc.Serve(ln) }()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = svc.Shutdown(ctx)
	})

	c, err := soap.NewClient(soap.Options{
		Endpoint: "http://" + ln.Addr().String() + sandbox.Path,
		Timeout:  10 * time.Second,
	})
	require.NoError(t, err)
	return c
}

func newModule(rpc sealsign.RPC, pin string) *sealsign.Module {
	return sealsign.NewModule(rpc, sealsign.Credentials{
		AccountID: testAccount,
		Password:  testPassword,
		ClientID:  "cli",
		PIN:       pin,
	})
}

type memoryStore struct {
	field string
	info  pades.ValidationRelatedInfo
}

func (s *memoryStore) AddValidationRelatedInfo(_ context.Context, field string, info pades.ValidationRelatedInfo) error {
	s.field, s.info = field, info
	return nil
}

func TestE2E_FirmaVerificacionYDSS(t *testing.T) {
	svc := newService(t)
	m := newModule(serve(t, svc), testPIN)
	m.SetCollectVerificationData(true)
	ctx := context.Background()

	digest := sha256.Sum256([]byte("documento PDF"))
	var sig []byte
	err := sealsign.WithSession(ctx, m, func(ctx context.Context, m *sealsign.Module) error {
		var err error
		sig, err = m.CreateSignature(ctx, sealsign.Digest(digest[:]))
		return err
	})
	require.NoError(t, err)
	assert.Zero(t, svc.LiveTickets(), "WithSession cierra la sesión")

	// La firma es PKCS#1 v1.5 directa sobre el digest.
	pub := svc.Certificate().PublicKey.(*rsa.PublicKey)
	require.NoError(t, rsa.VerifyPKCS1v15(pub, 0, digest[:], sig))

	rec := m.VerificationData()
	require.NotNil(t, rec)
	assert.Equal(t, svc.Certificate().Raw, rec.SignerCertificate)
	require.NotNil(t, rec.OCSP)

	store := &memoryStore{}
	require.NoError(t, m.UpdateSecurityStore(ctx, store, "Signature1"))
	assert.Equal(t, "Signature1", store.field)
	require.Len(t, store.info.CRLs, 1)
	require.Len(t, store.info.OCSPs, 1)
	assert.Len(t, store.info.Certs, 4, "firmante, cadena, certificado final OCSP y emisor OCSP")

	crl, err := x509.ParseRevocationList(store.info.CRLs[0])
	require.NoError(t, err)
	require.NoError(t, crl.CheckSignatureFrom(svc.Certificate()))

	// El sobre reconstruido es un OCSPResponse RFC 6960 válido.
	resp, err := ocsp.ParseResponse(store.info.OCSPs[0], svc.Certificate())
	require.NoError(t, err)
	assert.Equal(t, ocsp.Good, resp.Status)
	assert.Equal(t, svc.Certificate().SerialNumber, resp.SerialNumber)
}

func TestE2E_SelloDeTiempo(t *testing.T) {
	svc := newService(t)
	m := newModule(serve(t, svc), testPIN)
	m.SetCollectVerificationData(true)
	ctx := context.Background()

	require.NoError(t, m.Login(ctx))
	defer m.Close()

	digest := sha256.Sum256([]byte("contenido"))
	token, err := m.CreateTimestamp(ctx, sealsign.Digest(digest[:]))
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	rec := m.VerificationData()
	require.NotNil(t, rec)
	assert.Equal(t, svc.Certificate().Raw, rec.TimestampSignerCertificate)

	store := &memoryStore{}
	require.NoError(t, m.UpdateSecurityStore(ctx, store, "Timestamp1"))
	assert.Equal(t, [][]byte{svc.Certificate().Raw}, store.info.Certs)
	assert.Empty(t, store.info.CRLs)
	assert.Empty(t, store.info.OCSPs)
}

func TestE2E_PINIncorrectoConservaSesion(t *testing.T) {
	svc := newService(t)
	m := newModule(serve(t, svc), "0000")
	ctx := context.Background()

	require.NoError(t, m.Login(ctx))
	before, err := m.Ticket()
	require.NoError(t, err)

	_, err = m.CreateSignature(ctx, sealsign.Digest([]byte{1, 2, 3}))
	var rse *sealsign.RemoteServiceError
	require.True(t, errors.As(err, &rse))
	assert.Equal(t, sandbox.ResultBadPIN, rse.Code)
	assert.Equal(t, sealsign.OpSignDigest, rse.Operation)

	after, err := m.Ticket()
	require.NoError(t, err)
	assert.Equal(t, before, after)

	ok, err := m.Logout(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Zero(t, svc.LiveTickets())
}

func TestE2E_CredencialesIncorrectas(t *testing.T) {
	svc := newService(t)
	m := sealsign.NewModule(serve(t, svc), sealsign.Credentials{AccountID: testAccount, Password: "mala"})

	err := m.Login(context.Background())
	var rse *sealsign.RemoteServiceError
	require.ErrorAs(t, err, &rse)
	assert.Equal(t, sandbox.ResultBadCredentials, rse.Code)

	_, err = m.Ticket()
	assert.ErrorIs(t, err, sealsign.ErrNotAuthenticated)
}

func TestE2E_CancelacionDuranteLaSesionCierraElTicket(t *testing.T) {
	svc := newService(t)
	m := newModule(serve(t, svc), testPIN)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	digest := sha256.Sum256([]byte("documento"))
	err := sealsign.WithSession(ctx, m, func(ctx context.Context, m *sealsign.Module) error {
		if _, err := m.CreateSignature(ctx, sealsign.Digest(digest[:])); err != nil {
			return err
		}
		require.Equal(t, 1, svc.LiveTickets())
		cancel()
		return nil
	})
	require.NoError(t, err)
	assert.Zero(t, svc.LiveTickets(), "el logout llega al servicio aunque ctx esté cancelado")
}
