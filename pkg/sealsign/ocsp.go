package sealsign

import (
	"encoding/asn1"
	"fmt"

	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"
)

// OIDPKIXOCSPBasic id-pkix-ocsp-basic (RFC 6960).
var OIDPKIXOCSPBasic = asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 48, 1, 1}

// ocspSuccessful OCSPResponseStatus successful(0).
const ocspSuccessful = 0

// WrapOCSPResponse encapsula un BasicOCSPResponse en el sobre OCSPResponse que
// esperan los consumidores del DSS:
//
//	OCSPResponse ::= SEQUENCE {
//	   responseStatus  ENUMERATED { successful (0) },
//	   responseBytes   [0] EXPLICIT SEQUENCE {
//	       responseType  OBJECT IDENTIFIER (id-pkix-ocsp-basic),
//	       response      OCTET STRING } }
//
// encoded debe ser exactamente un elemento DER; su contenido no se interpreta.
func WrapOCSPResponse(encoded []byte) ([]byte, error) {
	in := cryptobyte.String(encoded)
	var element cryptobyte.String
	var tag cbasn1.Tag
	if !in.ReadAnyASN1Element(&element, &tag) {
		return nil, fmt.Errorf("%w: la respuesta OCSP no es un elemento DER válido", ErrEncoding)
	}
	if !in.Empty() {
		return nil, fmt.Errorf("%w: %d bytes sobrantes tras la respuesta OCSP", ErrEncoding, len(in))
	}

	var b cryptobyte.Builder
	b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1Enum(ocspSuccessful)
		b.AddASN1(cbasn1.Tag(0).Constructed().ContextSpecific(), func(b *cryptobyte.Builder) {
			b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
				b.AddASN1ObjectIdentifier(OIDPKIXOCSPBasic)
				b.AddASN1OctetString(element)
			})
		})
	})

	out, err := b.Bytes()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	return out, nil
}
