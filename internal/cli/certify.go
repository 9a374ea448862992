package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/deployseal/deployseal/pkg/color"
	"github.com/deployseal/deployseal/pkg/model"
)

var certifyCmd = &cobra.Command{
	Use:   "certify",
	Short: "Issue an on-demand integrity certificate",
	Long: `Query every configured repository and issue one integrity bundle
classifying each as CLEAN, MODIFIED or UNAVAILABLE. A repository that
cannot be queried is reported inside the bundle, never fails it.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		c := requireClient()

		bundle, err := c.Certify(cmd.Context(), operatorFlag)
		if err != nil {
			fmtErr("certify: %v", err)
			os.Exit(1)
		}

		if jsonOutput {
			outputJSON(bundle)
			return
		}

		fmt.Printf("Integrity certificate  %s  %s\n",
			bundle.Timestamp.Format(time.RFC3339), color.Dim(bundle.MachineID))
		for _, e := range bundle.Entries {
			switch e.Class {
			case model.RepoClean:
				fmt.Printf("  %-20s %s", e.Repository, color.Success("CLEAN"))
			case model.RepoModified:
				fmt.Printf("  %-20s %s", e.Repository, color.Warning("MODIFIED"))
			default:
				fmt.Printf("  %-20s %s", e.Repository, color.Error("UNAVAILABLE"))
			}
			if e.CommitHash != "" {
				fmt.Printf("  %s", color.Hash(shortHash(e.CommitHash)))
			}
			if e.Error != "" {
				fmt.Printf("  %s", color.Dim(e.Error))
			}
			fmt.Println()
		}
	},
}

var certificatesCmd = &cobra.Command{
	Use:   "certificates [<repository>]",
	Short: "List issued deployment certificates",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		c := requireClient()

		repo := ""
		if len(args) == 1 {
			repo = args[0]
		}
		certs, err := c.Certificates(repo, time.Time{}, time.Time{})
		if err != nil {
			fmtErr("certificates: %v", err)
			os.Exit(1)
		}

		if jsonOutput {
			outputJSON(certs)
			return
		}
		for _, cert := range certs {
			fmt.Printf("%s  %-12s %-10s %s  %s\n",
				color.Hash(cert.CertificateID), cert.Repository, cert.Action,
				shortHash(cert.CommitHash), color.Dim(cert.OperatorName))
		}
	},
}

func init() {
	rootCmd.AddCommand(certifyCmd)
	rootCmd.AddCommand(certificatesCmd)
}
