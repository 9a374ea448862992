package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/deployseal/deployseal/pkg/color"
)

var pushCmd = &cobra.Command{
	Use:   "push <repository>",
	Short: "Push already-committed work and certify",
	Long: `Push commits that are already recorded locally and issue a deployment
certificate on success. This is the recovery path after a failed push;
it never creates a commit.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		c := requireClient()

		res, err := c.RetryPush(cmd.Context(), args[0], operatorFlag)
		if err != nil {
			fmtErr("push: %v", err)
			os.Exit(1)
		}

		if jsonOutput {
			outputJSON(res)
			return
		}
		fmt.Printf("Pushed %s\n", args[0])
		if res.CertificateError != "" {
			fmt.Println(color.Warning("push succeeded but certification failed: " + res.CertificateError))
			return
		}
		fmt.Printf("Certificate: %s\n", color.Hash(res.CertificateID))
	},
}

func init() {
	rootCmd.AddCommand(pushCmd)
}
