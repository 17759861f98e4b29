package sandbox_test

import (
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/beevik/etree"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/sealsign-pades/internal/sandbox"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	testAccount  = "acme"
	testPassword = "s3cr3t"
	testPIN      = "1234"
	testSecret   = "test-ticket-secret"
)

func newService(t *testing.T) *sandbox.Service {
	t.Helper()
	svc, err := sandbox.New(sandbox.Config{
		AccountID:    testAccount,
		Password:     testPassword,
		PIN:          testPIN,
		TicketSecret: testSecret,
	})
	require.NoError(t, err)
	return svc
}

func call(op, wrapper, fields string) string {
	return `<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/" xmlns:tns="http://broker.ws.sealsign.com/">` +
		`<s:Body><tns:` + op + `><` + wrapper + `>` + fields + `</` + wrapper + `></tns:` + op + `></s:Body></s:Envelope>`
}

// post envía body al BrokerClient y devuelve status y documento de respuesta.
func post(t *testing.T, app *fiber.App, body string) (int, *etree.Document) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, sandbox.Path, strings.NewReader(body))
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(raw))
	return resp.StatusCode, doc
}

func result(t *testing.T, doc *etree.Document) string {
	t.Helper()
	el := doc.FindElement("//return/result")
	require.NotNil(t, el, "la respuesta debe incluir return/result")
	return el.Text()
}

func login(t *testing.T, app *fiber.App) string {
	t.Helper()
	status, doc := post(t, app, call("login", "loginRequest",
		"<accountId>"+testAccount+"</accountId><secret>"+testPassword+"</secret><clientId>cli</clientId><profile>Default</profile>"))
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "0", result(t, doc))
	ticket := doc.FindElement("//return/ticket")
	require.NotNil(t, ticket)
	return ticket.Text()
}

func b64(b []byte) string { return base64.StdEncoding.EncodeToString(b) }

// ──────────────────────────────────────────────────────────────────────────────
// Sesión
// ──────────────────────────────────────────────────────────────────────────────

func TestNew_ConfiguracionIncompleta(t *testing.T) {
	_, err := sandbox.New(sandbox.Config{AccountID: testAccount})
	assert.Error(t, err)
	_, err = sandbox.New(sandbox.Config{TicketSecret: testSecret})
	assert.Error(t, err)
}

func TestLogin_EmiteTicketYLoRegistra(t *testing.T) {
	svc := newService(t)
	ticket := login(t, svc.App())

	assert.Len(t, strings.Split(ticket, "."), 3, "el ticket es un JWT")
	assert.Equal(t, 1, svc.LiveTickets())
}

func TestLogin_CredencialesIncorrectas(t *testing.T) {
	svc := newService(t)
	status, doc := post(t, svc.App(), call("login", "loginRequest",
		"<accountId>"+testAccount+"</accountId><secret>otra</secret>"))

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "1", result(t, doc))
	assert.Nil(t, doc.FindElement("//return/ticket"))
	assert.Zero(t, svc.LiveTickets())
}

func TestLogout_OlvidaElTicket(t *testing.T) {
	svc := newService(t)
	ticket := login(t, svc.App())

	_, doc := post(t, svc.App(), call("logout", "logoutRequest", "<ticket>"+ticket+"</ticket>"))
	assert.Equal(t, "0", result(t, doc))
	assert.Zero(t, svc.LiveTickets())

	_, doc = post(t, svc.App(), call("logout", "logoutRequest", "<ticket>"+ticket+"</ticket>"))
	assert.Equal(t, "2", result(t, doc), "un ticket cerrado ya no es válido")
}

func TestTicketDeOtroServicio(t *testing.T) {
	other := newService(t)
	foreign := login(t, other.App())

	svc := newService(t)
	_, doc := post(t, svc.App(), call("signDigest", "signingRequest",
		"<ticket>"+foreign+"</ticket><pin>"+testPIN+"</pin><data>"+b64([]byte{1})+"</data>"))
	assert.Equal(t, "2", result(t, doc))
}

// ──────────────────────────────────────────────────────────────────────────────
// Firma
// ──────────────────────────────────────────────────────────────────────────────

func TestSignDigest_PINIncorrecto(t *testing.T) {
	svc := newService(t)
	ticket := login(t, svc.App())

	_, doc := post(t, svc.App(), call("signDigest", "signingRequest",
		"<ticket>"+ticket+"</ticket><pin>0000</pin><data>"+b64([]byte{1, 2, 3})+"</data>"))
	assert.Equal(t, "3", result(t, doc))
	assert.Nil(t, doc.FindElement("//return/signature"))
}

func TestVerifyDigest_FirmaAjena(t *testing.T) {
	svc := newService(t)
	ticket := login(t, svc.App())

	_, doc := post(t, svc.App(), call("verifyDigest", "verifyingRequest",
		"<ticket>"+ticket+"</ticket><data>"+b64([]byte{1})+"</data><signature>"+b64([]byte("no-es-firma"))+"</signature>"))
	assert.Equal(t, "4", result(t, doc))
	assert.Nil(t, doc.FindElement("//return/signatureInfos"))
}

// ──────────────────────────────────────────────────────────────────────────────
// Peticiones malformadas → SOAP Fault
// ──────────────────────────────────────────────────────────────────────────────

func TestPeticionesMalformadas(t *testing.T) {
	svc := newService(t)
	ticket := login(t, svc.App())

	cases := []struct {
		name string
		body string
	}{
		{"no es XML", "hola"},
		{"sin envelope", "<login/>"},
		{"body vacío", `<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/"><s:Body/></s:Envelope>`},
		{"operación desconocida", call("deleteAccount", "deleteRequest", "")},
		{"sin wrapper", call("login", "otroRequest", "")},
		{"data ausente", call("signDigest", "signingRequest", "<ticket>"+ticket+"</ticket><pin>"+testPIN+"</pin>")},
		{"data no base64", call("signDigest", "signingRequest", "<ticket>"+ticket+"</ticket><pin>"+testPIN+"</pin><data>***</data>")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, doc := post(t, svc.App(), tc.body)
			assert.Equal(t, http.StatusInternalServerError, status)
			fault := doc.FindElement("//Body/Fault")
			require.NotNil(t, fault)
			assert.Equal(t, "S:Client", fault.SelectElement("faultcode").Text())
		})
	}
}

func TestHealth(t *testing.T) {
	svc := newService(t)
	resp, err := svc.App().Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
