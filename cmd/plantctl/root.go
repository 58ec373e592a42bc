package main

import (
	"fmt"
	"time"

	authremote "plant-shop/internal/auth/adapter/remote"
	"plant-shop/internal/catalog/adapter/remote"
	"plant-shop/internal/shared/logger"

	"github.com/caarlos0/env/v6"
	"github.com/spf13/cobra"
)

// cliConfig is read from the environment; flags override it.
type cliConfig struct {
	BaseURL  string        `env:"PLANTSHOP_URL" envDefault:"http://localhost:5000"`
	Token    string        `env:"PLANTSHOP_TOKEN"`
	Timeout  time.Duration `env:"PLANTSHOP_TIMEOUT" envDefault:"10s"`
	LogLevel string        `env:"PLANTSHOP_LOG_LEVEL" envDefault:"warn"`
}

// app carries what every command needs once flags are parsed.
type app struct {
	cfg cliConfig
	log logger.Logger
}

func (a *app) client() *remote.Client {
	return remote.NewClient(a.cfg.BaseURL, a.log, remote.WithToken(a.cfg.Token), remote.WithTimeout(a.cfg.Timeout))
}

func (a *app) store() *remote.DocumentStore {
	return remote.NewDocumentStore(a.client())
}

func (a *app) feed() *remote.ChangeFeed {
	return remote.NewChangeFeed(a.client())
}

func (a *app) identity() *authremote.IdentityClient {
	return authremote.NewIdentityClient(a.cfg.BaseURL, a.log)
}

func newRootCmd() *cobra.Command {
	a := &app{}
	if err := env.Parse(&a.cfg); err != nil {
		// unparsable values fall back to the defaults below and can be fixed with flags
		a.cfg = cliConfig{BaseURL: "http://localhost:5000", Timeout: 10 * time.Second, LogLevel: "warn"}
	}

	root := &cobra.Command{
		Use:           "plantctl",
		Short:         "Browse and manage the plant shop from a terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.BaseURL == "" {
				return fmt.Errorf("--url must not be empty")
			}
			a.log = logger.NewLoggerWithWriter(cmd.ErrOrStderr(), a.cfg.LogLevel, "text")
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfg.BaseURL, "url", a.cfg.BaseURL, "plant shop server address (PLANTSHOP_URL)")
	flags.StringVar(&a.cfg.Token, "token", a.cfg.Token, "access token from signin (PLANTSHOP_TOKEN)")
	flags.DurationVar(&a.cfg.Timeout, "timeout", a.cfg.Timeout, "per-request timeout")
	flags.StringVar(&a.cfg.LogLevel, "log-level", a.cfg.LogLevel, "debug, info, warn or error")

	root.AddCommand(
		newProductsCmd(a),
		newCategoriesCmd(a),
		newShopCmd(a),
		newSignInCmd(a),
		newSignUpCmd(a),
		newFederatedCmd(a),
	)
	return root
}
