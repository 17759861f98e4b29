package main

import (
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jhoicas/sealsign-pades/pkg/sealsign/soap"
)

// newCertCheckCmd diagnostica el certificado cliente configurado para mTLS:
// primero que el archivo exista, luego que la contraseña/llave sean correctas.
func newCertCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cert-check",
		Short: "Verifica que el certificado cliente (SEALSIGN_CLIENT_CERT_PATH) se pueda cargar",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sc := a.cfg.SealSign
			if sc.ClientCertPath == "" {
				return errors.New("SEALSIGN_CLIENT_CERT_PATH no está configurado")
			}

			info, err := os.Stat(sc.ClientCertPath)
			if err != nil {
				return fmt.Errorf("no se puede abrir el archivo: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "archivo: %s (%d bytes)\n", sc.ClientCertPath, info.Size())

			cert, err := soap.LoadClientCertificate(sc.ClientCertPath, sc.ClientKeyPath, sc.ClientCertPassword)
			if err != nil {
				return fmt.Errorf("contraseña, llave o formato incorrectos: %w", err)
			}
			leaf := cert.Leaf
			if leaf == nil {
				if leaf, err = x509.ParseCertificate(cert.Certificate[0]); err != nil {
					return fmt.Errorf("parsear certificado: %w", err)
				}
			}

			fmt.Fprintf(out, "sujeto:  %s\n", leaf.Subject)
			fmt.Fprintf(out, "emisor:  %s\n", leaf.Issuer)
			fmt.Fprintf(out, "vigente: %s a %s\n", leaf.NotBefore.Format(time.RFC3339), leaf.NotAfter.Format(time.RFC3339))
			if time.Now().After(leaf.NotAfter) {
				return errors.New("el certificado cliente está vencido")
			}
			return nil
		},
	}
}
