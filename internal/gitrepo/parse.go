package gitrepo

import (
	"strings"
	"time"

	"github.com/deployseal/deployseal/pkg/model"
)

const (
	fieldSep  = "\x1f"
	recordSep = "\x1e"
)

// parseLog converts the custom-format log output into commit summaries.
// Malformed records are skipped rather than failing the whole query.
func parseLog(out string) []model.CommitInfo {
	var commits []model.CommitInfo
	for _, record := range strings.Split(out, recordSep) {
		record = strings.TrimLeft(record, "\n")
		if record == "" {
			continue
		}
		fields := strings.Split(record, fieldSep)
		if len(fields) < 5 {
			continue
		}
		ci := model.CommitInfo{
			Hash:    fields[0],
			Author:  fields[1],
			Email:   fields[2],
			Message: fields[3],
		}
		if ts, err := time.Parse(time.RFC3339, strings.TrimSpace(fields[4])); err == nil {
			ci.Timestamp = ts
		}
		commits = append(commits, ci)
	}
	return commits
}

// parsePorcelain converts `git status --porcelain` output into ordered
// file changes. The two-letter XY code maps to a single ChangeKind; for
// renames the new path is reported.
func parsePorcelain(out string) []model.FileChange {
	var changes []model.FileChange
	for _, line := range strings.Split(out, "\n") {
		if len(line) < 4 {
			continue
		}
		code := line[:2]
		path := strings.TrimSpace(line[3:])

		kind := classifyPorcelain(code)
		if kind == model.ChangeRenamed || kind == model.ChangeCopied {
			if idx := strings.Index(path, " -> "); idx >= 0 {
				path = path[idx+4:]
			}
		}
		path = strings.Trim(path, `"`)

		changes = append(changes, model.FileChange{Path: path, Kind: kind})
	}
	return changes
}

func classifyPorcelain(code string) model.ChangeKind {
	switch {
	case code == "??":
		return model.ChangeUntracked
	case strings.ContainsAny(code, "U"):
		return model.ChangeConflict
	case strings.ContainsAny(code, "R"):
		return model.ChangeRenamed
	case strings.ContainsAny(code, "C"):
		return model.ChangeCopied
	case strings.ContainsAny(code, "A"):
		return model.ChangeAdded
	case strings.ContainsAny(code, "D"):
		return model.ChangeDeleted
	default:
		return model.ChangeModified
	}
}
