package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jhoicas/sealsign-pades/pkg/sealsign"
)

func newOCSPWrapCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ocsp-wrap <in> <out>",
		Short: "Envuelve un BasicOCSPResponse DER como OCSPResponse completo",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("leer %s: %w", args[0], err)
			}
			wrapped, err := sealsign.WrapOCSPResponse(in)
			if err != nil {
				return err
			}
			if err := os.WriteFile(args[1], wrapped, 0o644); err != nil {
				return fmt.Errorf("escribir %s: %w", args[1], err)
			}
			return nil
		},
	}
}
