package audit

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"

	"github.com/deployseal/deployseal/pkg/model"
)

// Export writes the matching entries as a JSON document in chain order,
// optionally gzip-compressed. Export is read-only: it never touches the
// tip or the segments.
func (c *Chain) Export(w io.Writer, f Filter, compress bool) error {
	all, err := c.All()
	if err != nil {
		return err
	}

	var matched []model.AuditLogEntry
	for i := range all {
		if f.matches(&all[i]) {
			matched = append(matched, all[i])
		}
	}
	if matched == nil {
		matched = []model.AuditLogEntry{}
	}

	out := w
	var gz *gzip.Writer
	if compress {
		gz = gzip.NewWriter(w)
		out = gz
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(matched); err != nil {
		return fmt.Errorf("encode audit export: %w", err)
	}

	if gz != nil {
		if err := gz.Close(); err != nil {
			return fmt.Errorf("close gzip export: %w", err)
		}
	}
	return nil
}
