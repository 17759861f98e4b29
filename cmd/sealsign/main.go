package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jhoicas/sealsign-pades/pkg/config"
	"github.com/jhoicas/sealsign-pades/pkg/logger"
	"github.com/jhoicas/sealsign-pades/pkg/sealsign"
	"github.com/jhoicas/sealsign-pades/pkg/sealsign/soap"
)

// app estado compartido por los subcomandos; se completa en PersistentPreRunE.
type app struct {
	cfg *config.Config
	log *logger.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "sealsign",
		Short:         "Firma y sellado de tiempo remoto de digests PAdES",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("cargar configuración: %w", err)
			}
			a.cfg = cfg
			a.log = logger.New(logger.Config{
				Env:   cfg.App.Env,
				Level: cfg.App.LogLevel,
				Out:   cmd.ErrOrStderr(),
			})
			return nil
		},
	}
	root.AddCommand(
		newSignCmd(a),
		newTimestampCmd(a),
		newOCSPWrapCmd(),
		newSandboxCmd(a),
		newCertCheckCmd(a),
	)
	return root
}

// newModule arma el cliente SOAP y la sesión a partir de la configuración.
func (a *app) newModule() (*sealsign.Module, error) {
	sc := a.cfg.SealSign
	soapLog := a.log.Component("soap")
	client, err := soap.NewClient(soap.Options{
		Endpoint:  sc.Endpoint,
		Namespace: sc.Namespace,
		Timeout:   sc.Timeout,
		TLS: soap.TLSOptions{
			InsecureSkipVerify: !sc.VerifyPeer,
			CAFile:             sc.CAFile,
			ServerName:         sc.PeerName,
			ClientCertPath:     sc.ClientCertPath,
			ClientKeyPath:      sc.ClientKeyPath,
			ClientCertPassword: sc.ClientCertPassword,
		},
		Logger: &soapLog,
	})
	if err != nil {
		return nil, err
	}
	return sealsign.NewModule(client, sealsign.Credentials{
		AccountID: sc.AccountID,
		Password:  sc.Password,
		ClientID:  sc.ClientID,
		PIN:       sc.PIN,
		Profile:   sc.Profile,
	},
		sealsign.WithLogger(a.log.Component("sealsign")),
		sealsign.WithCollectVerificationData(sc.CollectVerification),
	), nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
