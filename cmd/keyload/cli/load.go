package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/majorcontext/keyload/internal/config"
	"github.com/majorcontext/keyload/internal/keyload"
	"github.com/majorcontext/keyload/internal/log"
	"github.com/majorcontext/keyload/internal/sshagent"
	"github.com/majorcontext/keyload/internal/ui"
	"github.com/spf13/cobra"
)

var loadCmd = &cobra.Command{
	Use:   "load [FILE]",
	Short: "Load a private key, print its public line and add it to ssh-agent",
	Long: `Load an unencrypted RSA private key in PEM form (PKCS#1, PKCS#8 or OpenSSH).

The public-key line is written to stdout. The fingerprint and agent status go
to stderr. With no FILE, or when FILE is -, the key is read from stdin.

Examples:
  # Load a key and add it to the running agent
  keyload load ~/.ssh/deploy_rsa

  # Only print the public line
  keyload load --no-agent ~/.ssh/deploy_rsa > deploy_rsa.pub

  # Pipe a key from a secret store and confirm the agent accepted it
  vault read -field=key secret/deploy | keyload load --wait-reply`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLoad,
}

// agentFlags are shared by commands that may register a key.
type agentFlags struct {
	comment   string
	noAgent   bool
	socket    string
	timeout   time.Duration
	waitReply bool
}

var loadFlags agentFlags

func init() {
	rootCmd.AddCommand(loadCmd)
	addAgentFlags(loadCmd, &loadFlags)
}

func addAgentFlags(cmd *cobra.Command, f *agentFlags) {
	cmd.Flags().StringVar(&f.comment, "comment", "", "comment for the public line and agent identity (default from config)")
	cmd.Flags().BoolVar(&f.noAgent, "no-agent", false, "do not add the key to ssh-agent")
	cmd.Flags().StringVar(&f.socket, "socket", "", "agent socket path (default $"+sshagent.AuthSockEnv+")")
	cmd.Flags().DurationVar(&f.timeout, "timeout", sshagent.DefaultTimeout, "timeout for the agent connection")
	cmd.Flags().BoolVar(&f.waitReply, "wait-reply", false, "wait for the agent to confirm the key was added")
}

func runLoad(cmd *cobra.Command, args []string) error {
	path := "-"
	if len(args) == 1 {
		path = args[0]
	}

	pemText, err := readKeyInput(path, cmd.InOrStdin())
	if err != nil {
		return err
	}

	opts := resolveOptions(globalCfg, loadFlags, cmd.Flags().Changed, os.Getenv)
	res, err := keyload.Load(cmd.Context(), pemText, opts)
	if err != nil {
		return err
	}
	return printResult(cmd.OutOrStdout(), res, jsonOut)
}

var errTerminalInput = errors.New("refusing to read a private key from a terminal\n\n" +
	"Pass a key file, or pipe the key on stdin.")

// readKeyInput reads the key from path, or from stdin when path is "-".
func readKeyInput(path string, stdin io.Reader) (string, error) {
	if path != "-" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading private key: %w", err)
		}
		return string(data), nil
	}

	if f, ok := stdin.(*os.File); ok && ui.IsTerminal(f) {
		return "", errTerminalInput
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("reading private key from stdin: %w", err)
	}
	return string(data), nil
}

// resolveOptions merges flags over the config file. changed reports whether
// a flag was set on the command line.
func resolveOptions(cfg *config.GlobalConfig, f agentFlags, changed func(string) bool, getenv func(string) string) keyload.Options {
	opts := keyload.Options{
		Comment: cfg.Comment,
		Agent:   cfg.Agent.Enabled && !f.noAgent,
		Client: &sshagent.Client{
			Timeout:      cfg.Agent.Timeout,
			WaitForReply: cfg.Agent.WaitForReply,
		},
	}
	if changed("comment") {
		opts.Comment = f.comment
	}
	if changed("timeout") {
		opts.Client.Timeout = f.timeout
	}
	if changed("wait-reply") {
		opts.Client.WaitForReply = f.waitReply
	}
	if !opts.Agent {
		return opts
	}

	if f.socket != "" {
		opts.Endpoint = f.socket
		return opts
	}
	endpoint, ok := sshagent.DiscoverEndpoint(getenv)
	if !ok && endpoint != "" {
		log.Debug("agent socket does not exist", "socket", endpoint)
	}
	// A stale path still goes to the dial so the warning names it.
	opts.Endpoint = endpoint
	return opts
}

type loadOutput struct {
	Fingerprint       string `json:"fingerprint"`
	FingerprintSHA256 string `json:"fingerprint_sha256"`
	PublicKey         string `json:"public_key"`
	Registered        bool   `json:"registered"`
	AgentError        string `json:"agent_error,omitempty"`
}

// printResult writes the public line (or the JSON document) to w. Status
// and agent warnings go to stderr through ui.
func printResult(w io.Writer, res *keyload.Result, asJSON bool) error {
	if asJSON {
		warnAgent(res)
		out := loadOutput{
			Fingerprint:       res.Fingerprint.String(),
			FingerprintSHA256: res.FingerprintSHA256,
			PublicKey:         res.PublicKey,
			Registered:        res.Registered,
		}
		if res.AgentErr != nil {
			out.AgentError = res.AgentErr.Error()
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	reportLoad(res)
	_, err := fmt.Fprintln(w, res.PublicKey)
	return err
}

// reportLoad prints the fingerprint and the agent outcome.
func reportLoad(res *keyload.Result) {
	ui.Infof("Loading SSH private key %s", res.Fingerprint)
	if res.Registered {
		ui.Infof("Added key to ssh-agent")
	}
	warnAgent(res)
}

func warnAgent(res *keyload.Result) {
	if res.AgentErr == nil {
		return
	}
	var unavailable *sshagent.UnavailableError
	if errors.As(res.AgentErr, &unavailable) {
		ui.Warnf("Failed to connect to ssh-agent: %v", res.AgentErr)
		return
	}
	ui.Warnf("Failed to add key to ssh-agent: %v", res.AgentErr)
}
