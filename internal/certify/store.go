package certify

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/deployseal/deployseal/pkg/errclass"
	"github.com/deployseal/deployseal/pkg/fsutil"
	"github.com/deployseal/deployseal/pkg/model"
)

// Store is the deployment-certificate log: append-only JSONL, capped at
// the configured number of most-recent certificates with oldest-first
// eviction. Certificates are never mutated; eviction rewrites the file
// atomically.
type Store struct {
	path string
	max  int
	mu   sync.Mutex
}

// NewStore creates a store at path keeping at most max certificates.
// Zero max means unbounded.
func NewStore(path string, max int) *Store {
	return &Store{path: path, max: max}
}

// Append adds a certificate, evicting the oldest entries beyond the cap.
func (s *Store) Append(cert *model.DeploymentCertificate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	certs, err := s.readLocked()
	if err != nil {
		return err
	}

	certs = append(certs, *cert)
	if s.max > 0 && len(certs) > s.max {
		certs = certs[len(certs)-s.max:]
	}

	return s.writeLocked(certs)
}

// List returns all stored certificates, newest first.
func (s *Store) List() ([]model.DeploymentCertificate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	certs, err := s.readLocked()
	if err != nil {
		return nil, err
	}

	out := make([]model.DeploymentCertificate, 0, len(certs))
	for i := len(certs) - 1; i >= 0; i-- {
		out = append(out, certs[i])
	}
	return out, nil
}

// Find returns certificates for a repository within a time range,
// newest first. Zero times match everything.
func (s *Store) Find(repository string, since, until time.Time) ([]model.DeploymentCertificate, error) {
	all, err := s.List()
	if err != nil {
		return nil, err
	}

	var out []model.DeploymentCertificate
	for _, c := range all {
		if repository != "" && c.Repository != repository {
			continue
		}
		if !since.IsZero() && c.Timestamp.Before(since) {
			continue
		}
		if !until.IsZero() && c.Timestamp.After(until) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *Store) readLocked() ([]model.DeploymentCertificate, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errclass.ErrCertStoreCorrupt.WithMessagef("read certificate log: %v", err)
	}

	var certs []model.DeploymentCertificate
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var c model.DeploymentCertificate
		if err := json.Unmarshal([]byte(line), &c); err != nil {
			return nil, errclass.ErrCertStoreCorrupt.WithMessagef("parse certificate log: %v", err)
		}
		certs = append(certs, c)
	}
	return certs, nil
}

func (s *Store) writeLocked(certs []model.DeploymentCertificate) error {
	var b strings.Builder
	for i := range certs {
		line, err := json.Marshal(&certs[i])
		if err != nil {
			return errclass.ErrCertStoreCorrupt.WithMessagef("marshal certificate: %v", err)
		}
		b.Write(line)
		b.WriteByte('\n')
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return errclass.ErrCertStoreCorrupt.WithMessagef("create state dir: %v", err)
	}
	return fsutil.AtomicWrite(s.path, []byte(b.String()), 0644)
}
