package pades

import "context"

// ValidationRelatedInfo datos de validación a largo plazo (todos en DER).
type ValidationRelatedInfo struct {
	CRLs  [][]byte
	OCSPs [][]byte
	Certs [][]byte
}

// Empty indica si no hay nada que añadir al DSS.
func (v ValidationRelatedInfo) Empty() bool {
	return len(v.CRLs) == 0 && len(v.OCSPs) == 0 && len(v.Certs) == 0
}

// SecurityStore es el Document Security Store del documento anfitrión.
// La implementación concreta (diccionario /DSS y /VRI) pertenece a la librería PDF.
type SecurityStore interface {
	// AddValidationRelatedInfo añade certificados, CRLs y respuestas OCSP asociados
	// a la firma del campo fieldName.
	AddValidationRelatedInfo(ctx context.Context, fieldName string, info ValidationRelatedInfo) error
}
