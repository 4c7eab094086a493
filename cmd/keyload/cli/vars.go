package cli

import (
	"fmt"
	"os"

	"github.com/majorcontext/keyload/internal/config"
	"github.com/majorcontext/keyload/internal/keyload"
	"github.com/majorcontext/keyload/internal/log"
	"github.com/spf13/cobra"
)

var varsCmd = &cobra.Command{
	Use:   "vars FILE",
	Short: "Load the key named in a play vars file",
	Long: `Load the private key stored under creds_ssh_private_key in a YAML vars file
and print a vars document with creds_ssh_public_key set.

Agent registration follows creds_ssh_agent (default true). A file without
creds_ssh_private_key produces no output.

Examples:
  keyload vars group_vars/all.yml > group_vars/all/public_key.yml`,
	Args: cobra.ExactArgs(1),
	RunE: runVars,
}

var varsFlags agentFlags

func init() {
	rootCmd.AddCommand(varsCmd)
	addAgentFlags(varsCmd, &varsFlags)
}

func runVars(cmd *cobra.Command, args []string) error {
	vars, err := config.LoadVars(args[0])
	if err != nil {
		return err
	}
	if vars.PrivateKey == "" {
		log.Debug("no creds_ssh_private_key set", "path", args[0])
		return nil
	}

	opts := resolveOptions(globalCfg, varsFlags, cmd.Flags().Changed, os.Getenv)
	opts.Agent = opts.Agent && vars.AgentEnabled()
	if !opts.Agent {
		opts.Endpoint = ""
	}

	res, err := keyload.Load(cmd.Context(), vars.PrivateKey, opts)
	if err != nil {
		return fmt.Errorf("loading creds_ssh_private_key from %s: %w", args[0], err)
	}
	if jsonOut {
		return printResult(cmd.OutOrStdout(), res, true)
	}
	reportLoad(res)

	out, err := config.PublicKeyVars{PublicKey: res.PublicKey}.Marshal()
	if err != nil {
		return fmt.Errorf("encoding public key vars: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(out)
	return err
}
