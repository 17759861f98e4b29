package soap

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/jhoicas/sealsign-pades/pkg/sealsign"
)

// parseResponse desempaqueta el envelope y devuelve <{op}Response>/<return>.
// Un SOAP Fault llega normalmente con HTTP 500: se revisa antes que el status.
func parseResponse(rawBody []byte, op string, status int) (*etree.Element, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(rawBody); err != nil {
		if status < 200 || status > 299 {
			return nil, fmt.Errorf("HTTP %d: %s", status, snippet(rawBody))
		}
		return nil, fmt.Errorf("respuesta SOAP ilegible: %w", err)
	}

	root := doc.Root()
	if root == nil || root.Tag != "Envelope" {
		return nil, fmt.Errorf("HTTP %d: respuesta sin envelope SOAP: %s", status, snippet(rawBody))
	}
	body := root.SelectElement("Body")
	if body == nil {
		return nil, errors.New("envelope SOAP sin Body")
	}

	if fault := body.SelectElement("Fault"); fault != nil {
		return nil, fmt.Errorf("SOAP Fault [%s]: %s", textOf(fault, "faultcode"), textOf(fault, "faultstring"))
	}
	if status < 200 || status > 299 {
		return nil, fmt.Errorf("HTTP %d inesperado", status)
	}

	resp := body.SelectElement(op + "Response")
	if resp == nil {
		return nil, fmt.Errorf("respuesta SOAP vacía o inesperada: falta %sResponse", op)
	}
	ret := resp.SelectElement("return")
	if ret == nil {
		return nil, fmt.Errorf("%sResponse sin elemento return", op)
	}
	return ret, nil
}

// parseVerificationRecord lee el resultado de verifyDigest / verifyTimestamp.
func parseVerificationRecord(ret *etree.Element) (*sealsign.VerificationRecord, error) {
	code, err := resultOf(ret)
	if err != nil {
		return nil, err
	}
	rec := &sealsign.VerificationRecord{Result: code}

	fields := []struct {
		path string
		dst  *[]byte
	}{
		{"signatureInfos/basicInfo/signerCertificate", &rec.SignerCertificate},
		{"signatureInfos/basicInfo/basicOcspResponse", &rec.BasicOCSPResponse},
		{"signatureInfos/revocationInfo/crlInfo/encoded", &rec.CRL},
		{"timestampInfo/signerCertificate", &rec.TimestampSignerCertificate},
	}
	for _, f := range fields {
		if *f.dst, err = binaryOf(ret, f.path); err != nil {
			return nil, err
		}
	}

	for _, el := range ret.FindElements("signatureInfos/chain") {
		cert, err := binaryOf(el, "encoded")
		if err != nil {
			return nil, err
		}
		if len(cert) > 0 {
			rec.Chain = append(rec.Chain, cert)
		}
	}

	if ocsp := ret.FindElement("signatureInfos/revocationInfo/basicOcspInfo"); ocsp != nil {
		info := &sealsign.OCSPInfo{}
		if info.Encoded, err = binaryOf(ocsp, "encoded"); err != nil {
			return nil, err
		}
		if info.EndCertificate, err = binaryOf(ocsp, "endCertificate"); err != nil {
			return nil, err
		}
		if info.IssuerCertificate, err = binaryOf(ocsp, "issuerCertificate"); err != nil {
			return nil, err
		}
		rec.OCSP = info
	}

	return rec, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func resultOf(ret *etree.Element) (int, error) {
	raw := textOf(ret, "result")
	if raw == "" {
		return 0, errors.New("respuesta sin código de resultado")
	}
	code, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("código de resultado no numérico %q", raw)
	}
	return code, nil
}

func textOf(e *etree.Element, path string) string {
	if x := e.FindElement(path); x != nil {
		return strings.TrimSpace(x.Text())
	}
	return ""
}

// binaryOf decodifica un campo base64Binary; ausente = nil.
func binaryOf(e *etree.Element, path string) ([]byte, error) {
	raw := textOf(e, path)
	if raw == "" {
		return nil, nil
	}
	raw = strings.Join(strings.Fields(raw), "")
	b, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("campo %s no es base64 válido: %w", path, err)
	}
	return b, nil
}

func snippet(b []byte) string {
	const limit = 256
	if len(b) > limit {
		return string(b[:limit]) + "..."
	}
	return string(b)
}
