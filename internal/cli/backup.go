package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/deployseal/deployseal/pkg/color"
)

var backupDest string

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Export working trees as archives",
}

var backupCreateCmd = &cobra.Command{
	Use:   "create <repository>",
	Short: "Export a working tree as a zip archive",
	Long: `Export the repository working tree as a zip archive with an embedded
integrity summary. Build outputs and oversized files are skipped per the
configured filters. Works offline: unreachable remotes never block an
export.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		c := requireClient()

		res, err := c.CreateBackup(cmd.Context(), args[0], backupDest, operatorFlag)
		if err != nil {
			fmtErr("backup: %v", err)
			os.Exit(1)
		}

		if jsonOutput {
			outputJSON(res)
			return
		}
		fmt.Printf("Archived %d files to %s\n", res.FilesArchived, color.Hash(res.ArchivePath))
		if res.FilesSkipped > 0 {
			fmt.Println(color.Dim(fmt.Sprintf("%d files skipped (filters, size ceiling or unreadable)", res.FilesSkipped)))
		}
		fmt.Printf("Reason: %s\n", res.Reason)
	},
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded exports, newest first",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		c := requireClient()

		entries, err := c.Backups()
		if err != nil {
			fmtErr("backup list: %v", err)
			os.Exit(1)
		}

		if jsonOutput {
			outputJSON(entries)
			return
		}
		for _, e := range entries {
			fmt.Printf("%s  %-12s %s  %s\n",
				e.Timestamp.Format("2006-01-02 15:04:05"), e.Repository,
				e.FileName, color.Dim(e.Reason))
		}
	},
}

func init() {
	backupCreateCmd.Flags().StringVar(&backupDest, "dest", "", "destination directory (defaults to the state dir)")
	backupCmd.AddCommand(backupCreateCmd)
	backupCmd.AddCommand(backupListCmd)
	rootCmd.AddCommand(backupCmd)
}
