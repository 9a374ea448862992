package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/deployseal/deployseal/pkg/color"
)

var discardCmd = &cobra.Command{
	Use:   "discard <repository>",
	Short: "Throw away all local modifications",
	Long: `Discard every local modification and untracked file in the repository
working tree. The action is recorded on the audit chain.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		c := requireClient()

		if err := c.Discard(cmd.Context(), args[0], operatorFlag); err != nil {
			fmtErr("discard: %v", err)
			os.Exit(1)
		}
		if !jsonOutput {
			fmt.Printf("%s local changes discarded in %s\n", color.Success("done:"), args[0])
		}
	},
}

var revertCmd = &cobra.Command{
	Use:   "revert <repository> <commit>",
	Short: "Create a commit undoing the given commit",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		c := requireClient()

		if err := c.Revert(cmd.Context(), args[0], args[1], operatorFlag); err != nil {
			fmtErr("revert: %v", err)
			os.Exit(1)
		}
		if !jsonOutput {
			fmt.Printf("%s reverted %s in %s\n", color.Success("done:"), shortHash(args[1]), args[0])
		}
	},
}

func init() {
	rootCmd.AddCommand(discardCmd)
	rootCmd.AddCommand(revertCmd)
}
