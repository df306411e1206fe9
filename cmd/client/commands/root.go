package commands

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/socialnet/internal/client/config"
	"github.com/dmitrijs2005/socialnet/internal/logging"
)

var (
	configPath string
	logLevel   string
	flagsCfg   config.Config

	cfg    *config.Config
	logger logging.Logger

	// logOutput receives client diagnostics; stdout belongs to the REPL.
	logOutput io.Writer = os.Stderr
)

func newRoot() *cobra.Command {
	root := &cobra.Command{
		Use:          "snclient",
		Short:        "Social network client",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.Load(configPath, &flagsCfg, cmd.Flags().Changed)
			if err != nil {
				return err
			}
			cfg = c
			logger = logging.NewJSONLogger(logOutput, logLevel)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runREPL(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&configPath, "config", "c", "", "config file (JSON or YAML)")
	pf.StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	pf.StringVarP(&flagsCfg.ServerAddr, config.FlagServer, "a", "127.0.0.1:8000", "server address")
	pf.StringVar(&flagsCfg.DiagnosticsAddr, config.FlagDiagnostics, "127.0.0.1:50051", "diagnostics gRPC address")
	pf.StringVar(&flagsCfg.DataDir, config.FlagDataDir, "client_data", "directory for downloaded photos")
	pf.DurationVar(&flagsCfg.ReadTimeout, config.FlagTimeout, 30*time.Second, "wait bound for server replies")
	pf.StringVarP(&flagsCfg.SecretKey, config.FlagSecret, "k", "secretKey", "shared secret for operator tokens")
	pf.BoolVar(&flagsCfg.InjectFaults, config.FlagFaults, true, "inject acknowledgement faults during downloads")

	root.AddCommand(replCmd(), clientsCmd())
	return root
}

// Execute builds the command tree and runs it.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return newRoot().ExecuteContext(ctx)
}
