package sealsign

import (
	"errors"
	"fmt"
)

// Errores del módulo. Usar errors.Is / errors.As para distinguirlos.
var (
	ErrNotAuthenticated   = errors.New("sealsign: no hay ticket disponible, se requiere login")
	ErrInvalidInput       = errors.New("sealsign: entrada inválida")
	ErrEncoding           = errors.New("sealsign: codificación ASN.1 inválida")
	ErrNoVerificationData = errors.New("sealsign: no se recolectaron datos de verificación")
)

// RemoteServiceError el servicio respondió con un código de resultado distinto de 0.
type RemoteServiceError struct {
	Code      int
	Operation string
}

func (e *RemoteServiceError) Error() string {
	return fmt.Sprintf("sealsign: %s falló con código de resultado %d", e.Operation, e.Code)
}

// TransportError fallo de red, timeout o respuesta SOAP ilegible.
type TransportError struct {
	Operation string
	Err       error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("sealsign: transporte en %s: %v", e.Operation, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
