// Package sandbox implementa un servicio de firma local compatible con el
// BrokerClient SOAP, para desarrollo y pruebas de extremo a extremo sin
// credenciales reales.
package sandbox

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"
)

// Path ruta del BrokerClient.
const Path = "/sealsign/ws/BrokerClient"

// Códigos de resultado que devuelve el sandbox.
const (
	ResultOK             = 0
	ResultBadCredentials = 1
	ResultUnknownTicket  = 2
	ResultBadPIN         = 3
	ResultBadSignature   = 4
)

const (
	defaultNamespace = "http://broker.ws.sealsign.com/"
	defaultTicketTTL = 30 * time.Minute
	ticketIssuer     = "sealsign-sandbox"
)

// Config credenciales aceptadas y parámetros de emisión de tickets.
type Config struct {
	AccountID    string
	Password     string
	PIN          string
	TicketSecret string
	TicketTTL    time.Duration
	Namespace    string
	Logger       zerolog.Logger
}

// Service servicio de firma en memoria.
type Service struct {
	cfg  Config
	ca   *authority
	app  *fiber.App
	log  zerolog.Logger
	now  func() time.Time
	mu   sync.Mutex
	live map[string]struct{}
}

// New genera el material criptográfico y registra las rutas.
func New(cfg Config) (*Service, error) {
	if cfg.AccountID == "" || cfg.TicketSecret == "" {
		return nil, errors.New("sandbox: AccountID y TicketSecret son obligatorios")
	}
	if cfg.TicketTTL <= 0 {
		cfg.TicketTTL = defaultTicketTTL
	}
	if cfg.Namespace == "" {
		cfg.Namespace = defaultNamespace
	}

	ca, err := newAuthority("SealSign Sandbox " + cfg.AccountID)
	if err != nil {
		return nil, err
	}

	s := &Service{
		cfg:  cfg,
		ca:   ca,
		log:  cfg.Logger,
		now:  time.Now,
		live: make(map[string]struct{}),
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "sealsign-sandbox",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		IdleTimeout:           60 * time.Second,
	})
	s.app.Use(recover.New())
	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": "sealsign-sandbox"})
	})
	s.app.Post(Path, s.handle)
	return s, nil
}

// App devuelve la aplicación fiber (para app.Test o montaje externo).
func (s *Service) App() *fiber.App { return s.app }

// Certificate certificado autofirmado del sandbox.
func (s *Service) Certificate() *x509.Certificate { return s.ca.cert }

// Listen sirve en addr hasta Shutdown.
func (s *Service) Listen(addr string) error { return s.app.Listen(addr) }

// Serve sirve sobre un listener ya abierto.
func (s *Service) Serve(ln net.Listener) error { return s.app.Listener(ln) }

// Shutdown detiene el servidor esperando las peticiones en curso.
func (s *Service) Shutdown(ctx context.Context) error { return s.app.ShutdownWithContext(ctx) }

// LiveTickets número de sesiones abiertas.
func (s *Service) LiveTickets() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live)
}

// ── HTTP ──────────────────────────────────────────────────────────────────────

func (s *Service) handle(c *fiber.Ctx) error {
	req, err := parseRequest(c.Body())
	if err != nil {
		return s.fault(c, "Client", err.Error())
	}

	res, err := s.dispatch(req)
	if err != nil {
		if errors.Is(err, errMalformed) {
			return s.fault(c, "Client", err.Error())
		}
		s.log.Error().Err(err).Str("operation", req.op).Msg("sandbox: error interno")
		return s.fault(c, "Server", "error interno del servicio")
	}

	out, err := res.bytes()
	if err != nil {
		return s.fault(c, "Server", "serializar respuesta")
	}
	c.Set(fiber.HeaderContentType, "text/xml; charset=utf-8")
	return c.Status(fiber.StatusOK).Send(out)
}

func (s *Service) fault(c *fiber.Ctx, code, message string) error {
	s.log.Warn().Str("faultcode", code).Str("request_id", c.Get("X-Request-ID")).Msg(message)
	out, err := faultBody(code, message)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, message)
	}
	c.Set(fiber.HeaderContentType, "text/xml; charset=utf-8")
	return c.Status(fiber.StatusInternalServerError).Send(out)
}

func (s *Service) dispatch(req *request) (*response, error) {
	var (
		res *response
		err error
	)
	switch req.op {
	case "login":
		res, err = s.login(req)
	case "signDigest":
		res, err = s.signDigest(req)
	case "verifyDigest":
		res, err = s.verifyDigest(req)
	case "timestampDigest":
		res, err = s.timestampDigest(req)
	case "verifyTimestamp":
		res, err = s.verifyTimestamp(req)
	case "logout":
		res, err = s.logout(req)
	default:
		return nil, fmt.Errorf("%w: operación %q", errMalformed, req.op)
	}
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("operation", req.op).Str("result", res.ret.SelectElement("result").Text()).Msg("sandbox")
	return res, nil
}
