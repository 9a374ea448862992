package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/deployseal/deployseal/pkg/color"
	"github.com/deployseal/deployseal/pkg/errclass"
)

var deployMessage string

var deployCmd = &cobra.Command{
	Use:   "deploy <repository>",
	Short: "Commit, push and certify in one workflow",
	Long: `Commit all local changes, push them and issue a deployment certificate.

The operator is taken from an "[Author: Name]" tag in the commit message;
without one the configured identity is recorded.

If the push fails the commit is kept locally and no certificate is issued;
retry with "deployseal push".

Examples:
  deployseal deploy backend -m "[Author: Jane] fix pump label"`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		c := requireClient()

		res, err := c.CommitAndPush(cmd.Context(), args[0], deployMessage)
		if err != nil {
			if errors.Is(err, errclass.ErrPartialWorkflow) {
				fmtErr("%v", err)
				fmt.Fprintf(os.Stderr, "the commit is retained locally; retry with: deployseal push %s\n", args[0])
				outputJSON(res)
				os.Exit(1)
			}
			fmtErr("deploy: %v", err)
			os.Exit(1)
		}

		if jsonOutput {
			outputJSON(res)
			return
		}
		fmt.Printf("Pushed %s (%s)\n", color.Hash(shortHash(res.CommitHash)), args[0])
		if res.CertificateError != "" {
			fmt.Println(color.Warning("push succeeded but certification failed: " + res.CertificateError))
			return
		}
		fmt.Printf("Certificate: %s\n", color.Hash(res.CertificateID))
	},
}

func init() {
	deployCmd.Flags().StringVarP(&deployMessage, "message", "m", "", "commit message (required)")
	deployCmd.MarkFlagRequired("message")
	rootCmd.AddCommand(deployCmd)
}
