// Package pades: contratos que el firmador PDF anfitrión espera de un módulo de firma.
//
// El anfitrión calcula el digest del rango de bytes del documento, pide la firma
// (o el sello de tiempo) al módulo y la incrusta en el placeholder /Contents.
package pades

import "context"

// DigestSource entrega el digest ya calculado sobre los bytes del documento.
type DigestSource interface {
	Digest() ([]byte, error)
}

// SignatureModule produce los bytes crudos de una firma sobre un digest.
type SignatureModule interface {
	CreateSignature(ctx context.Context, src DigestSource) ([]byte, error)
}

// TimestampModule produce un token de sello de tiempo sobre un digest.
type TimestampModule interface {
	CreateTimestamp(ctx context.Context, src DigestSource) ([]byte, error)
}
