package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/deployseal/deployseal/pkg/color"
	"github.com/deployseal/deployseal/pkg/model"
)

var statusCmd = &cobra.Command{
	Use:   "status [<repository>]",
	Short: "Show repository state",
	Long: `Show repository state: branch, last commit, working-tree changes and
commits not yet on the remote.

Examples:
  deployseal status            # all configured repositories
  deployseal status backend    # one repository`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		c := requireClient()
		ctx := cmd.Context()

		if len(args) == 1 {
			state, err := c.Status(ctx, args[0])
			if err != nil {
				fmtErr("status: %v", err)
				os.Exit(1)
			}
			if jsonOutput {
				outputJSON(state)
				return
			}
			printState(state)
			return
		}

		states, err := c.StatusAll(ctx)
		if err != nil {
			fmtErr("status: %v", err)
			os.Exit(1)
		}
		if jsonOutput {
			outputJSON(states)
			return
		}
		for _, state := range states {
			printState(state)
			fmt.Println()
		}
	},
}

func printState(s *model.RepositoryState) {
	fmt.Printf("%s\n", color.Header(s.Name))
	if !s.IsValid {
		fmt.Printf("  %s\n", color.Error("UNAVAILABLE"))
		return
	}
	fmt.Printf("  Branch: %s\n", s.CurrentBranch)
	if s.LastCommit != nil {
		fmt.Printf("  Last commit: %s %s\n", color.Hash(shortHash(s.LastCommit.Hash)), s.LastCommit.Message)
	}
	switch {
	case s.HasChanges():
		fmt.Printf("  Working tree: %s\n", color.Warningf("%d modified files", len(s.ModifiedFiles)))
		for _, ch := range s.ModifiedFiles {
			fmt.Printf("    %-10s %s\n", ch.Kind, ch.Path)
		}
	default:
		fmt.Printf("  Working tree: %s\n", color.Success("clean"))
	}
	if s.CommitsAhead > 0 {
		fmt.Printf("  Remote: %s\n", color.Warningf("%d commits ahead", s.CommitsAhead))
	} else {
		fmt.Printf("  Remote: %s\n", color.Success("in sync"))
	}
}

func shortHash(h string) string {
	if len(h) > 8 {
		return h[:8]
	}
	return h
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
