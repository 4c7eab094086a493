// Package cli implements the keyload command-line interface using Cobra.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/majorcontext/keyload/internal/config"
	"github.com/majorcontext/keyload/internal/log"
	"github.com/majorcontext/keyload/internal/ui"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	jsonOut    bool
	configPath string

	// globalCfg is loaded before every command runs.
	globalCfg = config.DefaultGlobalConfig()
)

var rootCmd = &cobra.Command{
	Use:   "keyload",
	Short: "Load an RSA private key and hand it to ssh-agent",
	Long: `keyload reads an RSA private key in PEM form, prints its fingerprint and
OpenSSH public-key line, and registers the key with the running ssh-agent
found through SSH_AUTH_SOCK.

If no agent is reachable the key is still loaded and its public line printed;
the agent failure is reported as a warning.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		log.Init(log.Options{
			Verbose:    verbose,
			JSONFormat: jsonOut,
			Stderr:     cmd.ErrOrStderr(),
		})
		ui.SetWriter(cmd.ErrOrStderr())

		var err error
		if configPath != "" {
			globalCfg, err = config.LoadGlobalFrom(configPath)
		} else {
			globalCfg, err = config.LoadGlobal()
		}
		if err != nil {
			// Config problems are non-fatal; defaults are in place.
			ui.Warnf("failed to load config, using defaults: %v", err)
		}
		return nil
	},
}

// Execute runs the root command. Errors are printed here.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		ui.Errorf("%v", err)
		return err
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.keyload/config.yaml)")
}
