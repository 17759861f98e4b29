package main

import (
	"context"
	"encoding/pem"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jhoicas/sealsign-pades/internal/sandbox"
)

func newSandboxCmd(a *app) *cobra.Command {
	var addr, certOut string
	cmd := &cobra.Command{
		Use:   "sandbox",
		Short: "Levanta un servicio de firma local compatible con el BrokerClient",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				addr = a.cfg.Sandbox.Addr
			}
			secret := a.cfg.Sandbox.TicketSecret
			if secret == "" {
				secret = uuid.NewString()
				a.log.Warn().Msg("SANDBOX_TICKET_SECRET vacío: se usa un secreto aleatorio")
			}

			svc, err := sandbox.New(sandbox.Config{
				AccountID:    a.cfg.SealSign.AccountID,
				Password:     a.cfg.SealSign.Password,
				PIN:          a.cfg.SealSign.PIN,
				TicketSecret: secret,
				Namespace:    a.cfg.SealSign.Namespace,
				Logger:       a.log.Component("sandbox"),
			})
			if err != nil {
				return err
			}

			if certOut != "" {
				block := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: svc.Certificate().Raw})
				if err := os.WriteFile(certOut, block, 0o644); err != nil {
					return fmt.Errorf("escribir certificado: %w", err)
				}
			}

			errCh := make(chan error, 1)
			go func() { errCh <- svc.Listen(addr) }()
			a.log.Info().
				Str("addr", addr).
				Str("path", sandbox.Path).
				Str("account_id", a.cfg.SealSign.AccountID).
				Msg("sandbox escuchando")

			select {
			case err := <-errCh:
				return err
			case <-cmd.Context().Done():
			}

			a.log.Info().Msg("señal de apagado recibida, cerrando sandbox...")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return svc.Shutdown(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "dirección de escucha (por defecto SANDBOX_ADDR)")
	cmd.Flags().StringVar(&certOut, "cert-out", "", "escribir el certificado del sandbox en PEM")
	return cmd
}
