// Package cli implements the deployseal command tree.
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/deployseal/deployseal/pkg/color"
	"github.com/deployseal/deployseal/pkg/config"
	"github.com/deployseal/deployseal/pkg/deployseal"
)

var (
	jsonOutput   bool
	noColor      bool
	configPath   string
	operatorFlag string

	rootCmd = &cobra.Command{
		Use:   "deployseal",
		Short: "DeploySeal - deployment integrity certification",
		Long: `DeploySeal certifies deployments across the configured repositories.
It wraps version control in an atomic commit-push-certify workflow, keeps a
tamper-evident hash-chained audit log, and exports working trees as
integrity-stamped backup archives.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			color.Init(noColor)
		},
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "deployseal.yaml", "configuration file")
	rootCmd.PersistentFlags().StringVar(&operatorFlag, "operator", "", "operator name recorded on certificates and audit entries")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

// requireClient loads the configuration and wires the client, or exits.
func requireClient() *deployseal.Client {
	cfg, err := config.Load(configPath)
	if err != nil {
		fmtErr("cannot load configuration: %v", err)
		os.Exit(1)
	}
	return deployseal.New(cfg, nil)
}

func fmtErr(format string, args ...any) {
	prefix := "deployseal: "
	if color.Enabled() {
		prefix = color.Error("deployseal:") + " "
	}
	fmt.Fprintf(os.Stderr, prefix+format+"\n", args...)
}

// outputJSON prints v as JSON if --json flag is set, otherwise does nothing.
func outputJSON(v any) error {
	if !jsonOutput {
		return nil
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
