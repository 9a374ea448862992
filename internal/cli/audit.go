package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/deployseal/deployseal/internal/audit"
	"github.com/deployseal/deployseal/pkg/color"
	"github.com/deployseal/deployseal/pkg/errclass"
	"github.com/deployseal/deployseal/pkg/model"
)

var (
	auditCategory string
	auditAction   string
	auditResult   string
	auditUser     string
	auditRepo     string
	auditSince    string
	auditUntil    string
	auditLimit    int
	auditOffset   int

	auditExportOut  string
	auditExportGzip bool
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect and verify the audit chain",
}

var auditVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the hash chain end to end",
	Long: `Recompute every audit entry signature from the genesis constant forward.
The first broken link is reported by entry ID. A broken chain exits
non-zero and is itself recorded on the chain.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		c := requireClient()

		res, err := c.VerifyAuditChain(operatorFlag)
		if err != nil && !errors.Is(err, errclass.ErrChainBroken) {
			fmtErr("audit verify: %v", err)
			os.Exit(1)
		}

		if jsonOutput {
			outputJSON(res)
		} else if res.Valid {
			fmt.Printf("%s  %d entries checked\n", color.Success("chain intact"), res.Checked)
		} else {
			fmt.Printf("%s  broken at entry %s (%d entries verified before it)\n",
				color.Error("CHAIN BROKEN"), res.BrokenAt, res.Checked)
		}

		if !res.Valid {
			os.Exit(1)
		}
	},
}

var auditQueryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query audit entries",
	Long: `Query audit entries, newest first. All filters combine; zero values
match everything.

Examples:
  deployseal audit query --repository backend --limit 20
  deployseal audit query --category git --result failure
  deployseal audit query --since 2025-12-01T00:00:00Z`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		c := requireClient()

		filter, err := buildFilter()
		if err != nil {
			fmtErr("audit query: %v", err)
			os.Exit(1)
		}

		entries, total, err := c.QueryAudit(filter)
		if err != nil {
			fmtErr("audit query: %v", err)
			os.Exit(1)
		}

		if jsonOutput {
			outputJSON(map[string]any{"total": total, "entries": entries})
			return
		}
		for _, e := range entries {
			line := fmt.Sprintf("%s  %-14s %-20s %-8s %s",
				e.Timestamp.Format("2006-01-02 15:04:05"),
				e.Category, e.Action, e.Result, e.Details)
			switch e.Result {
			case model.ResultFailure, model.ResultError:
				fmt.Println(color.Error(line))
			case model.ResultWarning:
				fmt.Println(color.Warning(line))
			default:
				fmt.Println(line)
			}
		}
		fmt.Println(color.Dim(fmt.Sprintf("%d of %d entries", len(entries), total)))
	},
}

var auditExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export audit entries as JSON",
	Long: `Export matching audit entries as a JSON document in chain order,
optionally gzip-compressed, for external retention or review.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		c := requireClient()

		filter, err := buildFilter()
		if err != nil {
			fmtErr("audit export: %v", err)
			os.Exit(1)
		}

		out := os.Stdout
		if auditExportOut != "" {
			f, err := os.Create(auditExportOut)
			if err != nil {
				fmtErr("audit export: %v", err)
				os.Exit(1)
			}
			defer f.Close()
			out = f
		}

		if err := c.ExportAudit(out, filter, auditExportGzip); err != nil {
			fmtErr("audit export: %v", err)
			os.Exit(1)
		}
		if auditExportOut != "" && !jsonOutput {
			fmt.Printf("Exported to %s\n", auditExportOut)
		}
	},
}

func buildFilter() (audit.Filter, error) {
	f := audit.Filter{
		Category:   model.AuditCategory(auditCategory),
		Action:     model.AuditAction(auditAction),
		Result:     model.AuditResult(auditResult),
		UserName:   auditUser,
		Repository: auditRepo,
		Limit:      auditLimit,
		Offset:     auditOffset,
	}
	if auditSince != "" {
		ts, err := time.Parse(time.RFC3339, auditSince)
		if err != nil {
			return f, fmt.Errorf("--since: %w", err)
		}
		f.Since = ts
	}
	if auditUntil != "" {
		ts, err := time.Parse(time.RFC3339, auditUntil)
		if err != nil {
			return f, fmt.Errorf("--until: %w", err)
		}
		f.Until = ts
	}
	return f, nil
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&auditCategory, "category", "", "filter by category")
	cmd.Flags().StringVar(&auditAction, "action", "", "filter by action")
	cmd.Flags().StringVar(&auditResult, "result", "", "filter by result")
	cmd.Flags().StringVar(&auditUser, "user", "", "filter by operator name")
	cmd.Flags().StringVar(&auditRepo, "repository", "", "filter by repository")
	cmd.Flags().StringVar(&auditSince, "since", "", "only entries at or after this RFC 3339 time")
	cmd.Flags().StringVar(&auditUntil, "until", "", "only entries at or before this RFC 3339 time")
}

func init() {
	addFilterFlags(auditQueryCmd)
	auditQueryCmd.Flags().IntVar(&auditLimit, "limit", 50, "maximum entries to print")
	auditQueryCmd.Flags().IntVar(&auditOffset, "offset", 0, "entries to skip")

	addFilterFlags(auditExportCmd)
	auditExportCmd.Flags().StringVarP(&auditExportOut, "out", "o", "", "output file (defaults to stdout)")
	auditExportCmd.Flags().BoolVar(&auditExportGzip, "gzip", false, "gzip-compress the export")

	auditCmd.AddCommand(auditVerifyCmd)
	auditCmd.AddCommand(auditQueryCmd)
	auditCmd.AddCommand(auditExportCmd)
	rootCmd.AddCommand(auditCmd)
}
