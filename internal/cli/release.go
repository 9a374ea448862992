package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/deployseal/deployseal/pkg/color"
)

var releasePreview bool

var releaseCmd = &cobra.Command{
	Use:   "release <repository>",
	Short: "Tag the next calendar version",
	Long: `Allocate the next calendar version (YYYY.MM.NN) from the repository's
existing tags and create an annotated tag on HEAD. The two-digit counter
resets each month; exhausting it at 99 requires operator intervention.

Examples:
  deployseal release backend            # tag the next version
  deployseal release backend --preview  # show it without tagging`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		c := requireClient()

		if releasePreview {
			version, err := c.NextVersion(cmd.Context(), args[0])
			if err != nil {
				fmtErr("release: %v", err)
				os.Exit(1)
			}
			if jsonOutput {
				outputJSON(map[string]string{"repository": args[0], "next_version": version})
				return
			}
			fmt.Printf("Next version: %s\n", color.Hash(version))
			return
		}

		release, err := c.Release(cmd.Context(), args[0], operatorFlag)
		if err != nil {
			fmtErr("release: %v", err)
			os.Exit(1)
		}
		if jsonOutput {
			outputJSON(release)
			return
		}
		fmt.Printf("Tagged %s at %s\n", color.Hash(release.Version), shortHash(release.CommitHash))
	},
}

func init() {
	releaseCmd.Flags().BoolVar(&releasePreview, "preview", false, "show the next version without tagging")
	rootCmd.AddCommand(releaseCmd)
}
