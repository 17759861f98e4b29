package sealsign

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/sealsign-pades/pkg/pades"
)

// closeTimeout límite del logout de mejor esfuerzo en Close.
const closeTimeout = 15 * time.Second

// Module implementa pades.SignatureModule y pades.TimestampModule sobre una sesión
// del servicio remoto. Mantiene un único ticket activo.
//
// Module no es seguro para uso concurrente: serializar el acceso o crear una
// instancia por sesión concurrente.
type Module struct {
	rpc   RPC
	creds Credentials
	log   zerolog.Logger

	ticket                  string
	collectVerificationData bool
	verificationData        *VerificationRecord
	lastResult              *RemoteResult
}

// Option configura un Module.
type Option func(*Module)

// WithLogger inyecta el logger (por defecto zerolog.Nop()).
func WithLogger(l zerolog.Logger) Option {
	return func(m *Module) { m.log = l }
}

// WithCollectVerificationData activa verify* después de cada firma o sello.
func WithCollectVerificationData(collect bool) Option {
	return func(m *Module) { m.collectVerificationData = collect }
}

// NewModule construye el módulo. rpc es obligatorio.
func NewModule(rpc RPC, creds Credentials, opts ...Option) *Module {
	if creds.Profile == "" {
		creds.Profile = DefaultProfile
	}
	m := &Module{
		rpc:   rpc,
		creds: creds,
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Ticket devuelve el ticket de la sesión actual.
func (m *Module) Ticket() (string, error) {
	if m.ticket == "" {
		return "", ErrNotAuthenticated
	}
	return m.ticket, nil
}

// LastResult último resultado recibido del servicio (nil si no hubo llamadas).
func (m *Module) LastResult() *RemoteResult {
	return m.lastResult
}

// SetCollectVerificationData define si se recolectan datos de verificación al firmar.
func (m *Module) SetCollectVerificationData(collect bool) {
	m.collectVerificationData = collect
}

// VerificationData datos de la última verificación exitosa (nil si no hay).
func (m *Module) VerificationData() *VerificationRecord {
	return m.verificationData
}

// ── Sesión ────────────────────────────────────────────────────────────────────

// Login autentica la cuenta y guarda el ticket. Llamarlo de nuevo re-autentica.
func (m *Module) Login(ctx context.Context) error {
	res, err := m.rpc.Login(ctx, LoginRequest{
		AccountID: m.creds.AccountID,
		Secret:    m.creds.Password,
		ClientID:  m.creds.ClientID,
		Profile:   m.creds.Profile,
	})
	if err != nil {
		return transportError(OpLogin, err)
	}
	if err := m.record(OpLogin, res.Result); err != nil {
		return err
	}
	if res.Ticket == "" {
		return &TransportError{Operation: OpLogin, Err: errors.New("respuesta sin ticket")}
	}

	m.ticket = res.Ticket
	m.log.Info().Str("account_id", m.creds.AccountID).Str("profile", m.creds.Profile).Msg("sesión iniciada")
	return nil
}

// Logout cierra la sesión remota. Sin ticket no hace nada y devuelve false.
func (m *Module) Logout(ctx context.Context) (bool, error) {
	if m.ticket == "" {
		return false, nil
	}
	res, err := m.rpc.Logout(ctx, LogoutRequest{Ticket: m.ticket})
	if err != nil {
		return false, transportError(OpLogout, err)
	}
	if err := m.record(OpLogout, res.Result); err != nil {
		return false, err
	}

	m.ticket = ""
	m.log.Info().Str("account_id", m.creds.AccountID).Msg("sesión cerrada")
	return true, nil
}

// Close hace un logout de mejor esfuerzo. Los fallos se registran y no se devuelven,
// para no ocultar el error que originó el cierre.
func (m *Module) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	if _, err := m.Logout(ctx); err != nil {
		m.log.Warn().Err(err).Msg("logout al cerrar la sesión falló")
	}
	return nil
}

// ── Firma y sello de tiempo ───────────────────────────────────────────────────

// CreateSignature implementa pades.SignatureModule.
func (m *Module) CreateSignature(ctx context.Context, src pades.DigestSource) ([]byte, error) {
	ticket, err := m.Ticket()
	if err != nil {
		return nil, err
	}
	digest, err := digestOf(src)
	if err != nil {
		return nil, err
	}

	res, err := m.rpc.SignDigest(ctx, SignRequest{Ticket: ticket, PIN: m.creds.PIN, Data: digest})
	if err != nil {
		return nil, transportError(OpSignDigest, err)
	}
	if err := m.record(OpSignDigest, res.Result); err != nil {
		return nil, err
	}
	m.log.Debug().Int("digest_len", len(digest)).Int("signature_len", len(res.Signature)).Msg("digest firmado")

	if m.collectVerificationData {
		rec, err := m.rpc.VerifyDigest(ctx, VerifyRequest{Ticket: ticket, Data: digest, Signature: res.Signature})
		if err != nil {
			return nil, transportError(OpVerifyDigest, err)
		}
		if err := m.record(OpVerifyDigest, rec.Result); err != nil {
			return nil, err
		}
		m.verificationData = rec
	}

	return res.Signature, nil
}

// CreateTimestamp implementa pades.TimestampModule.
func (m *Module) CreateTimestamp(ctx context.Context, src pades.DigestSource) ([]byte, error) {
	ticket, err := m.Ticket()
	if err != nil {
		return nil, err
	}
	digest, err := digestOf(src)
	if err != nil {
		return nil, err
	}

	res, err := m.rpc.TimestampDigest(ctx, TimestampRequest{Ticket: ticket, Data: digest})
	if err != nil {
		return nil, transportError(OpTimestampDigest, err)
	}
	if err := m.record(OpTimestampDigest, res.Result); err != nil {
		return nil, err
	}
	m.log.Debug().Int("digest_len", len(digest)).Int("token_len", len(res.TimestampToken)).Msg("sello de tiempo emitido")

	if m.collectVerificationData {
		rec, err := m.rpc.VerifyTimestamp(ctx, VerifyRequest{Ticket: ticket, Data: digest, Signature: res.TimestampToken})
		if err != nil {
			return nil, transportError(OpVerifyTimestamp, err)
		}
		if err := m.record(OpVerifyTimestamp, rec.Result); err != nil {
			return nil, err
		}
		m.verificationData = rec
	}

	return res.TimestampToken, nil
}

// record guarda el último resultado y lo traduce a error si no es 0.
func (m *Module) record(op string, code int) error {
	m.lastResult = &RemoteResult{Operation: op, Code: code}
	if code != ResultOK {
		m.log.Warn().Str("operation", op).Int("result", code).Msg("el servicio rechazó la operación")
		return &RemoteServiceError{Code: code, Operation: op}
	}
	return nil
}

func digestOf(src pades.DigestSource) ([]byte, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: fuente de digest nula", ErrInvalidInput)
	}
	d, err := src.Digest()
	if err != nil {
		return nil, err
	}
	if len(d) == 0 {
		return nil, fmt.Errorf("%w: digest vacío", ErrInvalidInput)
	}
	return d, nil
}

func transportError(op string, err error) error {
	var te *TransportError
	if errors.As(err, &te) {
		return err
	}
	return &TransportError{Operation: op, Err: err}
}

var (
	_ pades.SignatureModule = (*Module)(nil)
	_ pades.TimestampModule = (*Module)(nil)
)
