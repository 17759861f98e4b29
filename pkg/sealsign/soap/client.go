// Package soap implementa sealsign.RPC sobre el WS SOAP 1.1 (BrokerClient) del
// servicio de firma y validación.
package soap

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/beevik/etree"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/sealsign-pades/pkg/sealsign"
)

const (
	// DefaultEndpoint URL del BrokerClient en producción.
	DefaultEndpoint = "https://services.sealsignportal.com/sealsign/ws/BrokerClient"
	// DefaultNamespace targetNamespace de las operaciones del BrokerClient.
	DefaultNamespace = "http://broker.ws.sealsign.com/"
	// DefaultTimeout timeout por llamada si Options.Timeout es 0.
	DefaultTimeout = 60 * time.Second

	soapNS          = "http://schemas.xmlsoap.org/soap/envelope/"
	maxResponseSize = 8 << 20 // 8 MiB: las respuestas de verificación incluyen cadenas y CRLs
)

// Options configuración del cliente SOAP.
type Options struct {
	Endpoint  string
	Namespace string
	Timeout   time.Duration
	TLS       TLSOptions
	Logger    *zerolog.Logger
}

// Client implementa sealsign.RPC. Cada llamada abre un transporte HTTP nuevo
// (sin keep-alive) a partir de la configuración TLS fijada en la construcción.
type Client struct {
	endpoint  string
	namespace string
	timeout   time.Duration
	tlsConfig *tls.Config
	log       zerolog.Logger
}

// NewClient valida el endpoint y carga CA y certificado cliente.
func NewClient(opts Options) (*Client, error) {
	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return nil, fmt.Errorf("soap: endpoint inválido %q", endpoint)
	}

	tlsConfig, err := buildTLSConfig(opts.TLS)
	if err != nil {
		return nil, err
	}

	c := &Client{
		endpoint:  endpoint,
		namespace: opts.Namespace,
		timeout:   opts.Timeout,
		tlsConfig: tlsConfig,
		log:       zerolog.Nop(),
	}
	if c.namespace == "" {
		c.namespace = DefaultNamespace
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if opts.Logger != nil {
		c.log = *opts.Logger
	}
	return c, nil
}

// ── sealsign.RPC ──────────────────────────────────────────────────────────────

// Login implementa sealsign.RPC.
func (c *Client) Login(ctx context.Context, req sealsign.LoginRequest) (*sealsign.LoginResult, error) {
	ret, err := c.call(ctx, sealsign.OpLogin, &loginCall{Request: loginRequest{
		AccountID: req.AccountID,
		Secret:    req.Secret,
		ClientID:  req.ClientID,
		Profile:   req.Profile,
	}})
	if err != nil {
		return nil, err
	}
	code, err := resultOf(ret)
	if err != nil {
		return nil, transportErr(sealsign.OpLogin, err)
	}
	return &sealsign.LoginResult{Result: code, Ticket: textOf(ret, "ticket")}, nil
}

// SignDigest implementa sealsign.RPC.
func (c *Client) SignDigest(ctx context.Context, req sealsign.SignRequest) (*sealsign.SignResult, error) {
	ret, err := c.call(ctx, sealsign.OpSignDigest, &signDigestCall{Request: signingRequest{
		Ticket: req.Ticket,
		PIN:    req.PIN,
		Data:   base64.StdEncoding.EncodeToString(req.Data),
	}})
	if err != nil {
		return nil, err
	}
	code, err := resultOf(ret)
	if err != nil {
		return nil, transportErr(sealsign.OpSignDigest, err)
	}
	sig, err := binaryOf(ret, "signature")
	if err != nil {
		return nil, transportErr(sealsign.OpSignDigest, err)
	}
	return &sealsign.SignResult{Result: code, Signature: sig}, nil
}

// VerifyDigest implementa sealsign.RPC.
func (c *Client) VerifyDigest(ctx context.Context, req sealsign.VerifyRequest) (*sealsign.VerificationRecord, error) {
	return c.verify(ctx, sealsign.OpVerifyDigest, req)
}

// TimestampDigest implementa sealsign.RPC.
func (c *Client) TimestampDigest(ctx context.Context, req sealsign.TimestampRequest) (*sealsign.TimestampResult, error) {
	ret, err := c.call(ctx, sealsign.OpTimestampDigest, &timestampDigestCall{Request: timestampingRequest{
		Ticket: req.Ticket,
		Data:   base64.StdEncoding.EncodeToString(req.Data),
	}})
	if err != nil {
		return nil, err
	}
	code, err := resultOf(ret)
	if err != nil {
		return nil, transportErr(sealsign.OpTimestampDigest, err)
	}
	tok, err := binaryOf(ret, "timestampToken")
	if err != nil {
		return nil, transportErr(sealsign.OpTimestampDigest, err)
	}
	return &sealsign.TimestampResult{Result: code, TimestampToken: tok}, nil
}

// VerifyTimestamp implementa sealsign.RPC.
func (c *Client) VerifyTimestamp(ctx context.Context, req sealsign.VerifyRequest) (*sealsign.VerificationRecord, error) {
	return c.verify(ctx, sealsign.OpVerifyTimestamp, req)
}

// Logout implementa sealsign.RPC.
func (c *Client) Logout(ctx context.Context, req sealsign.LogoutRequest) (*sealsign.LogoutResult, error) {
	ret, err := c.call(ctx, sealsign.OpLogout, &logoutCall{Request: logoutRequest{Ticket: req.Ticket}})
	if err != nil {
		return nil, err
	}
	code, err := resultOf(ret)
	if err != nil {
		return nil, transportErr(sealsign.OpLogout, err)
	}
	return &sealsign.LogoutResult{Result: code}, nil
}

func (c *Client) verify(ctx context.Context, op string, req sealsign.VerifyRequest) (*sealsign.VerificationRecord, error) {
	ret, err := c.call(ctx, op, &verifyCall{
		XMLName: xml.Name{Local: "tns:" + op},
		Request: verifyingRequest{
			Ticket:    req.Ticket,
			Data:      base64.StdEncoding.EncodeToString(req.Data),
			Signature: base64.StdEncoding.EncodeToString(req.Signature),
		},
	})
	if err != nil {
		return nil, err
	}
	rec, err := parseVerificationRecord(ret)
	if err != nil {
		return nil, transportErr(op, err)
	}
	return rec, nil
}

// ── Transporte ────────────────────────────────────────────────────────────────

// newHTTPClient crea un cliente de vida corta para una sola llamada.
func (c *Client) newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: c.timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			TLSClientConfig:     c.tlsConfig.Clone(),
			TLSHandshakeTimeout: 10 * time.Second,
			DisableKeepAlives:   true,
		},
	}
}

// call serializa el envelope, lo envía y devuelve el elemento <return> de la respuesta.
// Todos los errores salen como *sealsign.TransportError.
func (c *Client) call(ctx context.Context, op string, payload interface{}) (*etree.Element, error) {
	requestID := uuid.NewString()
	start := time.Now()

	envelope := soapEnvelope{
		XmlnsS:   soapNS,
		XmlnsTns: c.namespace,
		Body:     soapBody{Content: payload},
	}
	xmlPayload, err := xml.Marshal(envelope)
	if err != nil {
		return nil, transportErr(op, fmt.Errorf("serializar envelope: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint,
		bytes.NewReader(append([]byte(xml.Header), xmlPayload...)))
	if err != nil {
		return nil, transportErr(op, fmt.Errorf("crear request: %w", err))
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", `""`)
	req.Header.Set("X-Request-ID", requestID)

	resp, err := c.newHTTPClient().Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, transportErr(op, fmt.Errorf("timeout o cancelación: %w", ctx.Err()))
		}
		return nil, transportErr(op, fmt.Errorf("llamada HTTP fallida: %w", err))
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize+1))
	if err != nil {
		return nil, transportErr(op, fmt.Errorf("leer respuesta: %w", err))
	}
	if len(rawBody) > maxResponseSize {
		return nil, transportErr(op, fmt.Errorf("respuesta excede %d MiB", maxResponseSize>>20))
	}

	ret, err := parseResponse(rawBody, op, resp.StatusCode)

	c.log.Debug().
		Str("operation", op).
		Str("request_id", requestID).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Err(err).
		Msg("llamada SOAP")

	if err != nil {
		return nil, transportErr(op, err)
	}
	return ret, nil
}

func transportErr(op string, err error) error {
	var te *sealsign.TransportError
	if errors.As(err, &te) {
		return err
	}
	return &sealsign.TransportError{Operation: op, Err: err}
}

var _ sealsign.RPC = (*Client)(nil)
