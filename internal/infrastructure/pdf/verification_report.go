// Package pdf genera el informe de verificación de una firma o sello de tiempo
// a partir del registro devuelto por el servicio remoto.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Título + documento  │  Operación + Fecha + Result. │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FIRMANTE: Sujeto / Emisor / Vigencia / Serie  │  QR huella │
//	│  ─────────────────────────────────────────────────────────  │
//	│  CADENA: un renglón por certificado                          │
//	│  ─────────────────────────────────────────────────────────  │
//	│  REVOCACIÓN: CRL / OCSP presentes                            │
//	│  SELLO DE TIEMPO: certificado TSA                            │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/sealsign-pades/pkg/sealsign"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorRed     = &props.Color{Red: 170, Green: 20, Blue: 20}
)

// Undecodable texto para certificados que no se pueden parsear.
const Undecodable = "no decodificable"

// ReportMeta datos de cabecera del informe.
type ReportMeta struct {
	Document    string // nombre del archivo firmado
	Operation   string // sealsign.OpVerifyDigest o sealsign.OpVerifyTimestamp
	GeneratedAt time.Time
}

// CertificateSummary campos del certificado mostrados en el informe.
type CertificateSummary struct {
	Subject     string
	Issuer      string
	Validity    string
	Serial      string
	Fingerprint string // SHA-256 en hex
}

// DescribeCertificate resume un certificado DER. Si no se puede parsear, Subject
// queda como Undecodable y solo se informa la huella.
func DescribeCertificate(der []byte) CertificateSummary {
	sum := sha256.Sum256(der)
	s := CertificateSummary{Fingerprint: strings.ToUpper(hex.EncodeToString(sum[:]))}

	cert, err := x509.ParseCertificate(der)
	if err != nil {
		s.Subject = Undecodable
		return s
	}
	s.Subject = cert.Subject.String()
	s.Issuer = cert.Issuer.String()
	s.Validity = cert.NotBefore.UTC().Format("02/01/2006 15:04") + " – " + cert.NotAfter.UTC().Format("02/01/2006 15:04") + " UTC"
	s.Serial = strings.ToUpper(cert.SerialNumber.Text(16))
	return s
}

// ── Generator ─────────────────────────────────────────────────────────────────

// VerificationReport genera el informe con Maroto v2.
type VerificationReport struct{}

// NewVerificationReport construye el generador.
func NewVerificationReport() *VerificationReport { return &VerificationReport{} }

// Generate genera el PDF y devuelve sus bytes.
func (g *VerificationReport) Generate(_ context.Context, meta ReportMeta, rec *sealsign.VerificationRecord) ([]byte, error) {
	if rec == nil {
		return nil, errors.New("pdf: registro de verificación nulo")
	}
	if meta.GeneratedAt.IsZero() {
		meta.GeneratedAt = time.Now()
	}

	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Informe de verificación de firma", true).
		WithAuthor("sealsign", true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(meta, rec))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))

	if len(rec.SignerCertificate) > 0 {
		m.AddRows(sectionRow("CERTIFICADO DEL FIRMANTE"))
		m.AddRows(certificateRows(rec.SignerCertificate, true)...)
		m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	}

	if len(rec.Chain) > 0 {
		m.AddRows(sectionRow(fmt.Sprintf("CADENA DE CERTIFICACIÓN (%d)", len(rec.Chain))))
		for i, der := range rec.Chain {
			m.AddRows(chainRow(i+1, der))
		}
		m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	}

	m.AddRows(sectionRow("INFORMACIÓN DE REVOCACIÓN"))
	m.AddRows(revocationRows(rec)...)

	if len(rec.TimestampSignerCertificate) > 0 {
		m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
		m.AddRows(sectionRow("SELLO DE TIEMPO: CERTIFICADO TSA"))
		m.AddRows(certificateRows(rec.TimestampSignerCertificate, false)...)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: título + documento (izq) y operación, fecha y resultado (der).
func headerRow(meta ReportMeta, rec *sealsign.VerificationRecord) core.Row {
	status, statusColor := "VÁLIDA", colorPrimary
	if rec.Result != sealsign.ResultOK {
		status, statusColor = fmt.Sprintf("RECHAZADA (código %d)", rec.Result), colorRed
	}

	return row.New(18).Add(
		col.New(7).Add(
			text.New("INFORME DE VERIFICACIÓN", props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Documento: "+nonEmpty(meta.Document, "—"), props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New(nonEmpty(meta.Operation, sealsign.OpVerifyDigest), props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New(status, props.Text{
				Style: fontstyle.Bold, Size: 11, Align: align.Right, Color: statusColor, Top: 6,
			}),
			text.New("Fecha: "+meta.GeneratedAt.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 13, Color: colorGray,
			}),
		),
	)
}

func sectionRow(title string) core.Row {
	return row.New(7).Add(col.New(12).Add(
		text.New(title, props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 2}),
	))
}

// certificateRows: datos del certificado y, para el firmante, QR con la huella.
func certificateRows(der []byte, withQR bool) []core.Row {
	s := DescribeCertificate(der)

	details := []core.Component{
		text.New(s.Subject, props.Text{Style: fontstyle.Bold, Size: 9, Top: 1}),
	}
	if s.Subject != Undecodable {
		details = append(details,
			text.New("Emisor: "+s.Issuer, props.Text{Size: 8, Top: 7, Color: colorGray}),
			text.New("Vigencia: "+s.Validity, props.Text{Size: 8, Top: 12, Color: colorGray}),
			text.New("Serie: "+s.Serial, props.Text{Size: 8, Top: 17, Color: colorGray}),
		)
	}

	var rows []core.Row
	if withQR {
		rows = append(rows, row.New(30).Add(
			col.New(9).Add(details...),
			col.New(3).Add(code.NewQr(s.Fingerprint, props.Rect{Percent: 90, Center: true})),
		))
	} else {
		rows = append(rows, row.New(23).Add(col.New(12).Add(details...)))
	}

	rows = append(rows, row.New(4).Add(col.New(12).Add(
		text.New("Huella SHA-256:", props.Text{Style: fontstyle.Bold, Size: 7, Top: 0.5}),
	)))
	for _, chunk := range splitEvery(s.Fingerprint, 64) {
		rows = append(rows, row.New(4).Add(col.New(12).Add(
			text.New(chunk, props.Text{Size: 6.5, Color: colorGray, Top: 0.5, Left: 2}),
		)))
	}
	return rows
}

func chainRow(n int, der []byte) core.Row {
	s := DescribeCertificate(der)
	return row.New(6).Add(
		col.New(1).Add(text.New(fmt.Sprintf("%d.", n), props.Text{Size: 8, Align: align.Center, Top: 1})),
		col.New(11).Add(text.New(s.Subject, props.Text{Size: 8, Top: 1, Left: 1})),
	)
}

func revocationRows(rec *sealsign.VerificationRecord) []core.Row {
	item := func(label string, present bool) core.Row {
		value, c := "no incluida", colorGray
		if present {
			value, c = "incluida", colorPrimary
		}
		return row.New(5).Add(
			col.New(6).Add(text.New(label, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(6).Add(text.New(value, props.Text{Size: 8, Top: 1, Align: align.Right, Color: c})),
		)
	}

	rows := []core.Row{
		item("CRL", len(rec.CRL) > 0),
		item("Respuesta OCSP básica", len(rec.BasicOCSPResponse) > 0),
		item("Respuesta OCSP de revocación", rec.OCSP != nil && len(rec.OCSP.Encoded) > 0),
	}
	if rec.OCSP != nil && len(rec.OCSP.EndCertificate) > 0 {
		rows = append(rows, row.New(5).Add(col.New(12).Add(
			text.New("Certificado evaluado por OCSP: "+DescribeCertificate(rec.OCSP.EndCertificate).Subject,
				props.Text{Size: 7, Top: 1, Left: 2, Color: colorGray}),
		)))
	}
	return rows
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// splitEvery divide s en trozos de max n caracteres.
func splitEvery(s string, n int) []string {
	var parts []string
	for len(s) > n {
		parts = append(parts, s[:n])
		s = s[n:]
	}
	if s != "" {
		parts = append(parts, s)
	}
	return parts
}
