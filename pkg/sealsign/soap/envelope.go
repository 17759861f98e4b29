package soap

import (
	"encoding/xml"
)

// ── Estructuras SOAP ──────────────────────────────────────────────────────────

type soapEnvelope struct {
	XMLName  xml.Name   `xml:"s:Envelope"`
	XmlnsS   string     `xml:"xmlns:s,attr"`
	XmlnsTns string     `xml:"xmlns:tns,attr"`
	Header   soapHeader `xml:"s:Header"`
	Body     soapBody   `xml:"s:Body"`
}

type soapHeader struct{}

type soapBody struct {
	Content interface{}
}

func (b soapBody) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Name.Local = "s:Body"
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	if err := e.Encode(b.Content); err != nil {
		return err
	}
	return e.EncodeToken(start.End())
}

// ── Operaciones (document/literal; hijos sin calificar) ───────────────────────

type loginCall struct {
	XMLName xml.Name     `xml:"tns:login"`
	Request loginRequest `xml:"loginRequest"`
}

type loginRequest struct {
	AccountID string `xml:"accountId"`
	Secret    string `xml:"secret"`
	ClientID  string `xml:"clientId"`
	Profile   string `xml:"profile"`
}

type signDigestCall struct {
	XMLName xml.Name       `xml:"tns:signDigest"`
	Request signingRequest `xml:"signingRequest"`
}

type signingRequest struct {
	Ticket string `xml:"ticket"`
	PIN    string `xml:"pin"`
	Data   string `xml:"data"` // base64Binary
}

type timestampDigestCall struct {
	XMLName xml.Name            `xml:"tns:timestampDigest"`
	Request timestampingRequest `xml:"timestampingRequest"`
}

type timestampingRequest struct {
	Ticket string `xml:"ticket"`
	Data   string `xml:"data"`
}

// verifyCall sirve para verifyDigest y verifyTimestamp; XMLName se fija al construirlo.
type verifyCall struct {
	XMLName xml.Name
	Request verifyingRequest `xml:"verifyingRequest"`
}

type verifyingRequest struct {
	Ticket    string `xml:"ticket"`
	Data      string `xml:"data"`
	Signature string `xml:"signature"`
}

type logoutCall struct {
	XMLName xml.Name      `xml:"tns:logout"`
	Request logoutRequest `xml:"logoutRequest"`
}

type logoutRequest struct {
	Ticket string `xml:"ticket"`
}
