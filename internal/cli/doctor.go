package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/deployseal/deployseal/pkg/color"
)

var doctorStrict bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose the environment and local state",
	Long: `Check that git is available, configured repository paths exist, the
state directory is writable and the certificate log is readable.
With --strict the full audit chain is verified as well.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		c := requireClient()

		res, err := c.Doctor(doctorStrict)
		if err != nil {
			fmtErr("doctor: %v", err)
			os.Exit(1)
		}

		if jsonOutput {
			outputJSON(res)
		} else {
			for _, f := range res.Findings {
				switch f.Severity {
				case "critical", "error":
					fmt.Printf("%s [%s] %s\n", color.Error(f.Severity), f.Category, f.Description)
				case "warning":
					fmt.Printf("%s [%s] %s\n", color.Warning(f.Severity), f.Category, f.Description)
				default:
					fmt.Printf("%s [%s] %s\n", color.Dim(f.Severity), f.Category, f.Description)
				}
			}
			if res.Healthy {
				fmt.Println(color.Success("healthy"))
			} else {
				fmt.Println(color.Error("unhealthy"))
			}
		}

		if !res.Healthy {
			os.Exit(1)
		}
	},
}

func init() {
	doctorCmd.Flags().BoolVar(&doctorStrict, "strict", false, "also verify the full audit chain")
	rootCmd.AddCommand(doctorCmd)
}
