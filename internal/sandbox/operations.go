package sandbox

import (
	"crypto/subtle"

	"github.com/jhoicas/sealsign-pades/pkg/jwt"
)

func (s *Service) reply(op string, code int) *response {
	return newResponse(s.cfg.Namespace, op, code)
}

// ── Sesión ────────────────────────────────────────────────────────────────────

func (s *Service) login(req *request) (*response, error) {
	account, secret := req.text("accountId"), req.text("secret")
	if account != s.cfg.AccountID || subtle.ConstantTimeCompare([]byte(secret), []byte(s.cfg.Password)) != 1 {
		return s.reply(req.op, ResultBadCredentials), nil
	}

	ticket, err := jwt.Generate(s.cfg.TicketSecret, account, req.text("clientId"), req.text("profile"),
		ticketIssuer, s.cfg.TicketTTL)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.live[ticket] = struct{}{}
	s.mu.Unlock()

	res := s.reply(req.op, ResultOK)
	res.text(nil, "ticket", ticket)
	return res, nil
}

func (s *Service) logout(req *request) (*response, error) {
	ticket := req.text("ticket")
	if !s.valid(ticket) {
		return s.reply(req.op, ResultUnknownTicket), nil
	}
	s.mu.Lock()
	delete(s.live, ticket)
	s.mu.Unlock()
	return s.reply(req.op, ResultOK), nil
}

// valid exige ticket emitido por este servicio, no cerrado y no expirado.
func (s *Service) valid(ticket string) bool {
	if ticket == "" {
		return false
	}
	s.mu.Lock()
	_, ok := s.live[ticket]
	s.mu.Unlock()
	if !ok {
		return false
	}
	if _, err := jwt.Parse(s.cfg.TicketSecret, ticket); err != nil {
		s.mu.Lock()
		delete(s.live, ticket)
		s.mu.Unlock()
		return false
	}
	return true
}

// ── Firma ─────────────────────────────────────────────────────────────────────

func (s *Service) signDigest(req *request) (*response, error) {
	if !s.valid(req.text("ticket")) {
		return s.reply(req.op, ResultUnknownTicket), nil
	}
	if subtle.ConstantTimeCompare([]byte(req.text("pin")), []byte(s.cfg.PIN)) != 1 {
		return s.reply(req.op, ResultBadPIN), nil
	}
	digest, err := req.binary("data")
	if err != nil {
		return nil, err
	}
	sig, err := s.ca.sign(digest)
	if err != nil {
		return nil, err
	}
	res := s.reply(req.op, ResultOK)
	res.binary(nil, "signature", sig)
	return res, nil
}

func (s *Service) verifyDigest(req *request) (*response, error) {
	if !s.valid(req.text("ticket")) {
		return s.reply(req.op, ResultUnknownTicket), nil
	}
	digest, err := req.binary("data")
	if err != nil {
		return nil, err
	}
	sig, err := req.binary("signature")
	if err != nil {
		return nil, err
	}
	if !s.ca.verify(digest, sig) {
		return s.reply(req.op, ResultBadSignature), nil
	}

	res := s.reply(req.op, ResultOK)
	infos := res.ret.CreateElement("signatureInfos")
	basic := infos.CreateElement("basicInfo")
	res.binary(basic, "signerCertificate", s.ca.cert.Raw)
	res.binary(infos.CreateElement("chain"), "encoded", s.ca.cert.Raw)
	revocation := infos.CreateElement("revocationInfo")
	res.binary(revocation.CreateElement("crlInfo"), "encoded", s.ca.crl)
	ocsp := revocation.CreateElement("basicOcspInfo")
	res.binary(ocsp, "encoded", s.ca.ocsp)
	res.binary(ocsp, "endCertificate", s.ca.cert.Raw)
	res.binary(ocsp, "issuerCertificate", s.ca.cert.Raw)
	return res, nil
}

// ── Sellado de tiempo ─────────────────────────────────────────────────────────

func (s *Service) timestampDigest(req *request) (*response, error) {
	if !s.valid(req.text("ticket")) {
		return s.reply(req.op, ResultUnknownTicket), nil
	}
	digest, err := req.binary("data")
	if err != nil {
		return nil, err
	}
	token, err := newTimestamp(digest, s.now())
	if err != nil {
		return nil, err
	}
	res := s.reply(req.op, ResultOK)
	res.binary(nil, "timestampToken", token)
	return res, nil
}

func (s *Service) verifyTimestamp(req *request) (*response, error) {
	if !s.valid(req.text("ticket")) {
		return s.reply(req.op, ResultUnknownTicket), nil
	}
	digest, err := req.binary("data")
	if err != nil {
		return nil, err
	}
	token, err := req.binary("signature")
	if err != nil {
		return nil, err
	}
	if !checkTimestamp(token, digest) {
		return s.reply(req.op, ResultBadSignature), nil
	}
	res := s.reply(req.op, ResultOK)
	res.binary(res.ret.CreateElement("timestampInfo"), "signerCertificate", s.ca.cert.Raw)
	return res, nil
}
