package cmds

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/parlorchat/parlor/pkg/api"
	"github.com/parlorchat/parlor/pkg/config"
	"github.com/parlorchat/parlor/pkg/session"
)

var (
	flagServer   string
	flagLogLevel string
	flagLogFile  string
	flagConfig   string
)

// NewRootCmd builds the parlor command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "parlor",
		Short:         "Terminal client for room-based chat",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&flagServer, "server", "", "chat server base URL (overrides config and PARLOR_SERVER)")
	flags.StringVar(&flagLogLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	flags.StringVar(&flagLogFile, "log-file", "", "write logs to this file instead of stderr")
	flags.StringVar(&flagConfig, "config", "", "config file path")

	root.AddCommand(
		newLoginCmd(),
		newRegisterCmd(),
		newLogoutCmd(),
		newRoomsCmd(),
		newHistoryCmd(),
		newChatCmd(),
		newVersionCmd(),
	)
	return root
}

// env is the shared wiring every subcommand needs.
type env struct {
	cfg    *config.Config
	store  *session.Store
	client *api.Client
}

func buildEnv() (*env, error) {
	cfgPath := flagConfig
	if cfgPath == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return nil, err
		}
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	if flagServer != "" {
		cfg.Server = flagServer
	}

	level := cfg.LogLevel
	if flagLogLevel != "" {
		level = flagLogLevel
	}
	if err := config.SetupLogging(level, flagLogFile); err != nil {
		return nil, err
	}

	tokenPath, err := session.DefaultPath()
	if err != nil {
		return nil, err
	}
	store, err := session.Open(tokenPath)
	if err != nil {
		return nil, errors.Wrap(err, "open session store")
	}

	client, err := api.New(cfg.Server, store)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, store: store, client: client}, nil
}
