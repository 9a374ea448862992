package audit

import (
	"path/filepath"
	"time"

	"github.com/deployseal/deployseal/pkg/model"
)

// Filter selects audit entries. Zero values match everything.
type Filter struct {
	Category   model.AuditCategory
	Action     model.AuditAction
	Result     model.AuditResult
	UserName   string
	Repository string // matches additional_data.repository
	Since      time.Time
	Until      time.Time
	Limit      int
	Offset     int
}

func (f Filter) matches(e *model.AuditLogEntry) bool {
	if f.Category != "" && e.Category != f.Category {
		return false
	}
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	if f.Result != "" && e.Result != f.Result {
		return false
	}
	if f.UserName != "" && e.UserName != f.UserName {
		return false
	}
	if f.Repository != "" {
		repo, _ := e.AdditionalData["repository"].(string)
		if repo != f.Repository {
			return false
		}
	}
	if !f.Since.IsZero() && e.Timestamp.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && e.Timestamp.After(f.Until) {
		return false
	}
	return true
}

// All returns every entry across all segments in chain order.
func (c *Chain) All() ([]model.AuditLogEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.allLocked()
}

func (c *Chain) allLocked() ([]model.AuditLogEntry, error) {
	segments, err := c.segmentsLocked()
	if err != nil {
		return nil, err
	}

	var all []model.AuditLogEntry
	for _, name := range segments {
		entries, err := readSegment(filepath.Join(c.dir, name))
		if err != nil {
			return nil, err
		}
		all = append(all, entries...)
	}
	return all, nil
}

// Query returns the matching entries newest first, plus the total match
// count before pagination. Reads see either the pre- or post-append
// state, never a torn entry: appends fsync whole lines and share the lock.
func (c *Chain) Query(f Filter) ([]model.AuditLogEntry, int, error) {
	all, err := c.All()
	if err != nil {
		return nil, 0, err
	}

	var matched []model.AuditLogEntry
	// Walk backwards so the result is newest first.
	for i := len(all) - 1; i >= 0; i-- {
		if f.matches(&all[i]) {
			matched = append(matched, all[i])
		}
	}

	total := len(matched)
	if f.Offset > 0 {
		if f.Offset >= total {
			return nil, total, nil
		}
		matched = matched[f.Offset:]
	}
	if f.Limit > 0 && len(matched) > f.Limit {
		matched = matched[:f.Limit]
	}
	return matched, total, nil
}
