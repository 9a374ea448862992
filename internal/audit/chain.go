// Package audit implements the hash-chained, append-only audit log.
// Entries are JSONL lines across dated segment files; every entry's
// signature covers its canonical serialization plus the previous entry's
// signature, so any rewrite, insertion or removal is detectable.
package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/deployseal/deployseal/internal/integrity"
	"github.com/deployseal/deployseal/pkg/jsonutil"
	"github.com/deployseal/deployseal/pkg/model"
	"github.com/deployseal/deployseal/pkg/uuidutil"
)

const (
	segmentPrefix = "audit-"
	segmentSuffix = ".jsonl"
)

// Chain is the tamper-evident audit log. All appends across all
// repositories and categories share this one chain and are totally
// ordered: the mutex is the single-writer discipline, and the cached tip
// signature is owned exclusively by Append.
type Chain struct {
	dir        string
	maxEntries int
	maxAge     time.Duration

	mu          sync.Mutex
	loaded      bool
	tip         model.HashValue
	activeName  string
	activeCount int
	activeStart time.Time
}

// NewChain creates a chain persisting segments under dir. A segment is
// rotated once it holds maxEntries entries or is older than maxAge;
// zero disables the respective threshold.
func NewChain(dir string, maxEntries int, maxAge time.Duration) *Chain {
	return &Chain{
		dir:        dir,
		maxEntries: maxEntries,
		maxAge:     maxAge,
	}
}

// Append persists the entry with PrevSignature and Signature populated
// and returns it. Reading the tip, signing, persisting and advancing the
// cached tip happen under one lock: two interleaved appends reading the
// same previous signature would both produce valid-looking but
// contradictory chains.
func (c *Chain) Append(entry *model.AuditLogEntry) (*model.AuditLogEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.loadLocked(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := c.maybeRotateLocked(now); err != nil {
		return nil, err
	}

	if entry.ID == "" {
		entry.ID = uuidutil.NewV4()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = now
	}
	entry.PrevSignature = c.tip

	sig, err := Signature(entry)
	if err != nil {
		return nil, fmt.Errorf("sign audit entry: %w", err)
	}
	entry.Signature = sig

	if err := c.writeLocked(entry); err != nil {
		return nil, err
	}

	c.tip = entry.Signature
	c.activeCount++
	return entry, nil
}

// Tip returns the signature of the last entry, or the genesis constant
// when the log is empty.
func (c *Chain) Tip() (model.HashValue, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.loadLocked(); err != nil {
		return "", err
	}
	return c.tip, nil
}

// Signature computes an entry's chain signature: the SHA-256 digest of
// the canonical JSON of every field except Signature, concatenated with
// the previous entry's signature.
func Signature(entry *model.AuditLogEntry) (model.HashValue, error) {
	unsigned := *entry
	unsigned.Signature = ""

	canon, err := jsonutil.CanonicalMarshal(&unsigned)
	if err != nil {
		return "", fmt.Errorf("canonical marshal: %w", err)
	}
	return integrity.Digest(string(canon) + string(entry.PrevSignature)), nil
}

// loadLocked discovers the segments on disk and caches the tip signature.
func (c *Chain) loadLocked() error {
	if c.loaded {
		return nil
	}

	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("create audit dir: %w", err)
	}

	segments, err := c.segmentsLocked()
	if err != nil {
		return err
	}

	c.tip = model.ChainGenesis
	if len(segments) == 0 {
		c.loaded = true
		return nil
	}

	active := segments[len(segments)-1]
	c.activeName = active
	c.activeStart = segmentStart(active)

	entries, err := readSegment(filepath.Join(c.dir, active))
	if err != nil {
		return err
	}
	c.activeCount = len(entries)
	if len(entries) > 0 {
		c.tip = entries[len(entries)-1].Signature
	} else if len(segments) > 1 {
		// Empty active segment after a crash: the tip lives in the
		// previous segment.
		prev, err := readSegment(filepath.Join(c.dir, segments[len(segments)-2]))
		if err != nil {
			return err
		}
		if len(prev) > 0 {
			c.tip = prev[len(prev)-1].Signature
		}
	}

	c.loaded = true
	return nil
}

// maybeRotateLocked starts a fresh segment when the active one exceeds the
// entry-count or age threshold. The chain continues across the boundary:
// the first entry of the new segment still references the cached tip.
func (c *Chain) maybeRotateLocked(now time.Time) error {
	needNew := c.activeName == ""
	if !needNew && c.maxEntries > 0 && c.activeCount >= c.maxEntries {
		needNew = true
	}
	if !needNew && c.maxAge > 0 && !c.activeStart.IsZero() && now.Sub(c.activeStart) > c.maxAge {
		needNew = true
	}
	if !needNew {
		return nil
	}

	c.activeName = segmentName(now)
	c.activeStart = now
	c.activeCount = 0
	return nil
}

func (c *Chain) writeLocked(entry *model.AuditLogEntry) error {
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal audit entry: %w", err)
	}

	path := filepath.Join(c.dir, c.activeName)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open audit segment: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write audit entry: %w", err)
	}
	if err := file.Sync(); err != nil {
		return fmt.Errorf("sync audit segment: %w", err)
	}
	return nil
}

// segmentsLocked lists segment file names in chain order. Names embed a
// zero-padded unix-millisecond start stamp, so lexical order is
// chronological order.
func (c *Chain) segmentsLocked() ([]string, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read audit dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, segmentPrefix) && strings.HasSuffix(name, segmentSuffix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func segmentName(ts time.Time) string {
	return fmt.Sprintf("%s%013d%s", segmentPrefix, ts.UnixMilli(), segmentSuffix)
}

func segmentStart(name string) time.Time {
	stamp := strings.TrimSuffix(strings.TrimPrefix(name, segmentPrefix), segmentSuffix)
	ms, err := strconv.ParseInt(stamp, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

// readSegment parses one segment file. A malformed line is a corruption
// signal, not something to skip: the verifier needs to see it.
func readSegment(path string) ([]model.AuditLogEntry, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open audit segment: %w", err)
	}
	defer file.Close()

	var entries []model.AuditLogEntry
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var entry model.AuditLogEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			return nil, fmt.Errorf("parse audit entry in %s: %w", filepath.Base(path), err)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan audit segment: %w", err)
	}
	return entries, nil
}
