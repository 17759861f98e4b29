package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jhoicas/sealsign-pades/internal/infrastructure/pdf"
	"github.com/jhoicas/sealsign-pades/pkg/pades"
	"github.com/jhoicas/sealsign-pades/pkg/sealsign"
)

// remoteFlags flags comunes de sign y timestamp.
type remoteFlags struct {
	byteRange string
	out       string
	verify    bool
	report    string
}

func (f *remoteFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.byteRange, "byte-range", "", "segmentos /ByteRange a,b,c,d (por defecto el archivo completo)")
	cmd.Flags().StringVar(&f.out, "out", "", "archivo de salida binario (por defecto base64 en stdout)")
	cmd.Flags().BoolVar(&f.verify, "verify", false, "verificar el resultado y recoger datos de validación")
	cmd.Flags().StringVar(&f.report, "report", "", "escribir informe de verificación PDF en esta ruta (implica --verify)")
}

func newSignCmd(a *app) *cobra.Command {
	var flags remoteFlags
	cmd := &cobra.Command{
		Use:   "sign <file>",
		Short: "Firma el digest SHA-256 del archivo en el servicio remoto",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runRemote(cmd, args[0], flags, sealsign.OpVerifyDigest,
				func(ctx context.Context, m *sealsign.Module, src pades.DigestSource) ([]byte, error) {
					return m.CreateSignature(ctx, src)
				})
		},
	}
	flags.register(cmd)
	return cmd
}

func newTimestampCmd(a *app) *cobra.Command {
	var flags remoteFlags
	cmd := &cobra.Command{
		Use:   "timestamp <file>",
		Short: "Obtiene un sello de tiempo sobre el digest SHA-256 del archivo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runRemote(cmd, args[0], flags, sealsign.OpVerifyTimestamp,
				func(ctx context.Context, m *sealsign.Module, src pades.DigestSource) ([]byte, error) {
					return m.CreateTimestamp(ctx, src)
				})
		},
	}
	flags.register(cmd)
	return cmd
}

type remoteOp func(ctx context.Context, m *sealsign.Module, src pades.DigestSource) ([]byte, error)

func (a *app) runRemote(cmd *cobra.Command, path string, flags remoteFlags, verifyOp string, op remoteOp) error {
	src, err := digestSource(path, flags.byteRange)
	if err != nil {
		return err
	}
	m, err := a.newModule()
	if err != nil {
		return err
	}
	if flags.verify || flags.report != "" {
		m.SetCollectVerificationData(true)
	}

	var blob []byte
	err = sealsign.WithSession(cmd.Context(), m, func(ctx context.Context, m *sealsign.Module) error {
		var err error
		blob, err = op(ctx, m, src)
		return err
	})
	if err != nil {
		return err
	}

	if rec := m.VerificationData(); rec != nil {
		info, err := sealsign.ValidationInfo(rec)
		if err != nil {
			return err
		}
		a.log.Info().
			Str("operation", verifyOp).
			Int("certs", len(info.Certs)).
			Int("crls", len(info.CRLs)).
			Int("ocsps", len(info.OCSPs)).
			Msg("datos de validación recogidos")

		if flags.report != "" {
			if err := writeReport(cmd.Context(), flags.report, path, verifyOp, rec); err != nil {
				return err
			}
		}
	}

	return writeBlob(cmd, flags.out, blob)
}

// digestSource elige entre el archivo completo y los segmentos /ByteRange.
func digestSource(path, byteRange string) (pades.DigestSource, error) {
	if byteRange == "" {
		return sealsign.FileDigest{Path: path}, nil
	}
	ranges, err := parseByteRange(byteRange)
	if err != nil {
		return nil, err
	}
	return sealsign.ByteRangeDigest{Path: path, ByteRange: ranges}, nil
}

// parseByteRange acepta "a,b,c,d" o "[a b c d]".
func parseByteRange(s string) ([]int64, error) {
	s = strings.Trim(strings.TrimSpace(s), "[]")
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
	if len(fields) == 0 || len(fields)%2 != 0 {
		return nil, fmt.Errorf("--byte-range: se esperan pares offset,longitud: %q", s)
	}
	out := make([]int64, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("--byte-range: valor inválido %q", f)
		}
		out = append(out, n)
	}
	return out, nil
}

func writeBlob(cmd *cobra.Command, out string, blob []byte) error {
	if out == "" {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), base64.StdEncoding.EncodeToString(blob))
		return err
	}
	if err := os.WriteFile(out, blob, 0o644); err != nil {
		return fmt.Errorf("escribir %s: %w", out, err)
	}
	return nil
}

func writeReport(ctx context.Context, out, document, op string, rec *sealsign.VerificationRecord) error {
	data, err := pdf.NewVerificationReport().Generate(ctx, pdf.ReportMeta{
		Document:    document,
		Operation:   op,
		GeneratedAt: time.Now(),
	}, rec)
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("escribir informe %s: %w", out, err)
	}
	return nil
}
