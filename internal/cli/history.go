package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/deployseal/deployseal/pkg/color"
)

var historyCount int

var historyCmd = &cobra.Command{
	Use:   "history <repository>",
	Short: "Show recent commits",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		c := requireClient()

		commits, err := c.History(cmd.Context(), args[0], historyCount)
		if err != nil {
			fmtErr("history: %v", err)
			os.Exit(1)
		}

		if jsonOutput {
			outputJSON(commits)
			return
		}
		for _, commit := range commits {
			fmt.Printf("%s  %s  %-20s %s\n",
				color.Hash(shortHash(commit.Hash)),
				commit.Timestamp.Format("2006-01-02 15:04"),
				commit.Author, commit.Message)
		}
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyCount, "count", "n", 20, "number of commits")
	rootCmd.AddCommand(historyCmd)
}
