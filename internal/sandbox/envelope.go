package sandbox

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

const soapNS = "http://schemas.xmlsoap.org/soap/envelope/"

// errMalformed peticiones que el servicio contesta con SOAP Fault de cliente.
var errMalformed = errors.New("petición SOAP malformada")

// request operación recibida: nombre y su elemento {op}Request.
type request struct {
	op   string
	args *etree.Element
}

var requestWrappers = map[string]string{
	"login":           "loginRequest",
	"signDigest":      "signingRequest",
	"verifyDigest":    "verifyingRequest",
	"timestampDigest": "timestampingRequest",
	"verifyTimestamp": "verifyingRequest",
	"logout":          "logoutRequest",
}

func parseRequest(raw []byte) (*request, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformed, err)
	}
	root := doc.Root()
	if root == nil || root.Tag != "Envelope" {
		return nil, fmt.Errorf("%w: falta Envelope", errMalformed)
	}
	body := root.SelectElement("Body")
	if body == nil || len(body.ChildElements()) == 0 {
		return nil, fmt.Errorf("%w: Body vacío", errMalformed)
	}
	call := body.ChildElements()[0]
	wrapper, ok := requestWrappers[call.Tag]
	if !ok {
		return nil, fmt.Errorf("%w: operación desconocida %q", errMalformed, call.Tag)
	}
	args := call.SelectElement(wrapper)
	if args == nil {
		return nil, fmt.Errorf("%w: %s sin %s", errMalformed, call.Tag, wrapper)
	}
	return &request{op: call.Tag, args: args}, nil
}

func (r *request) text(name string) string {
	if el := r.args.SelectElement(name); el != nil {
		return strings.TrimSpace(el.Text())
	}
	return ""
}

// binary lee un campo base64Binary obligatorio.
func (r *request) binary(name string) ([]byte, error) {
	raw := strings.Join(strings.Fields(r.text(name)), "")
	if raw == "" {
		return nil, fmt.Errorf("%w: falta %s", errMalformed, name)
	}
	b, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s no es base64", errMalformed, name)
	}
	return b, nil
}

// ── Respuestas ────────────────────────────────────────────────────────────────

// response construye <S:Envelope><S:Body><ns2:{op}Response><return>.
type response struct {
	doc *etree.Document
	ret *etree.Element
}

func newResponse(namespace, op string, code int) *response {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	env := doc.CreateElement("S:Envelope")
	env.CreateAttr("xmlns:S", soapNS)
	body := env.CreateElement("S:Body")
	wrapper := body.CreateElement("ns2:" + op + "Response")
	wrapper.CreateAttr("xmlns:ns2", namespace)
	ret := wrapper.CreateElement("return")
	ret.CreateElement("result").SetText(strconv.Itoa(code))
	return &response{doc: doc, ret: ret}
}

func (r *response) text(parent *etree.Element, name, value string) *etree.Element {
	if parent == nil {
		parent = r.ret
	}
	el := parent.CreateElement(name)
	el.SetText(value)
	return el
}

func (r *response) binary(parent *etree.Element, name string, value []byte) *etree.Element {
	return r.text(parent, name, base64.StdEncoding.EncodeToString(value))
}

func (r *response) bytes() ([]byte, error) {
	return r.doc.WriteToBytes()
}

func faultBody(code, message string) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	env := doc.CreateElement("S:Envelope")
	env.CreateAttr("xmlns:S", soapNS)
	fault := env.CreateElement("S:Body").CreateElement("S:Fault")
	fault.CreateElement("faultcode").SetText("S:" + code)
	fault.CreateElement("faultstring").SetText(message)
	return doc.WriteToBytes()
}
