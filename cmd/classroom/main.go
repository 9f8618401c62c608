package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/classroom-assistant/classroom-go/internal/account"
	"github.com/classroom-assistant/classroom-go/internal/apiclient"
	"github.com/classroom-assistant/classroom-go/internal/config"
	apperrors "github.com/classroom-assistant/classroom-go/internal/errors"
	"github.com/classroom-assistant/classroom-go/internal/localstore"
)

// app holds what every subcommand needs; it is filled in by the root
// command's PersistentPreRunE.
type app struct {
	cfg      *config.ClientConfig
	api      *apiclient.Client
	store    localstore.Store
	accounts *account.Manager
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", userMessage(err))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "classroom",
		Short:         "Join live classes and follow translated speech",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}

	root.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newJoinCmd(a),
		newTranslateCmd(a),
		newTeacherCmd(a),
	)
	return root
}

func (a *app) setup() error {
	cfg, err := config.LoadClient()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	setLogLevel(cfg.LogLevel)

	path := cfg.SessionFile
	if path == "" {
		if path, err = localstore.DefaultPath(); err != nil {
			return err
		}
	}

	a.cfg = cfg
	a.api = apiclient.New(cfg.APIURL, cfg.RequestTimeout())
	a.store = localstore.NewFileStore(path)
	a.accounts = account.NewManager(a.api, a.store)
	return nil
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	}
}

func userMessage(err error) string {
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr.Message
	}
	return err.Error()
}
