package sealsign

import (
	"context"
	"fmt"

	"github.com/jhoicas/sealsign-pades/pkg/pades"
)

// UpdateSecurityStore vuelca en el DSS del documento los datos de verificación
// recolectados durante la última firma: certificados (firmante, cadena, OCSP y TSA),
// CRLs y respuestas OCSP (las de revocationInfo se re-encapsulan con WrapOCSPResponse).
func (m *Module) UpdateSecurityStore(ctx context.Context, store pades.SecurityStore, fieldName string) error {
	if store == nil {
		return fmt.Errorf("%w: DSS nulo", ErrInvalidInput)
	}
	if !m.collectVerificationData || m.verificationData == nil {
		return ErrNoVerificationData
	}

	info, err := ValidationInfo(m.verificationData)
	if err != nil {
		return err
	}
	if err := store.AddValidationRelatedInfo(ctx, fieldName, info); err != nil {
		return fmt.Errorf("sealsign: actualizar DSS del campo %q: %w", fieldName, err)
	}

	m.log.Info().
		Str("field", fieldName).
		Int("certs", len(info.Certs)).
		Int("ocsps", len(info.OCSPs)).
		Int("crls", len(info.CRLs)).
		Msg("DSS actualizado")
	return nil
}

// ValidationInfo arma la información de validación a partir de un registro de verificación.
func ValidationInfo(rec *VerificationRecord) (pades.ValidationRelatedInfo, error) {
	var info pades.ValidationRelatedInfo
	if rec == nil {
		return info, ErrNoVerificationData
	}

	info.Certs = appendBlob(info.Certs, rec.SignerCertificate)
	info.OCSPs = appendBlob(info.OCSPs, rec.BasicOCSPResponse)
	for _, c := range rec.Chain {
		info.Certs = appendBlob(info.Certs, c)
	}

	info.CRLs = appendBlob(info.CRLs, rec.CRL)

	if rec.OCSP != nil && len(rec.OCSP.Encoded) > 0 {
		wrapped, err := WrapOCSPResponse(rec.OCSP.Encoded)
		if err != nil {
			return pades.ValidationRelatedInfo{}, err
		}
		info.OCSPs = append(info.OCSPs, wrapped)
		info.Certs = appendBlob(info.Certs, rec.OCSP.EndCertificate)
		info.Certs = appendBlob(info.Certs, rec.OCSP.IssuerCertificate)
	}

	info.Certs = appendBlob(info.Certs, rec.TimestampSignerCertificate)
	return info, nil
}

func appendBlob(dst [][]byte, b []byte) [][]byte {
	if len(b) == 0 {
		return dst
	}
	return append(dst, b)
}
