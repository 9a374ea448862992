// Package doctor performs deployment-host health checks.
package doctor

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/deployseal/deployseal/internal/audit"
	"github.com/deployseal/deployseal/internal/certify"
	"github.com/deployseal/deployseal/pkg/config"
)

// Finding represents a detected issue.
type Finding struct {
	Category    string `json:"category"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
	Path        string `json:"path,omitempty"`
}

// Result contains doctor check results.
type Result struct {
	Healthy  bool      `json:"healthy"`
	Findings []Finding `json:"findings"`
}

// Doctor performs environment and state diagnostics.
type Doctor struct {
	cfg   *config.Config
	chain *audit.Chain
	store *certify.Store
}

// NewDoctor creates a new doctor.
func NewDoctor(cfg *config.Config, chain *audit.Chain, store *certify.Store) *Doctor {
	return &Doctor{cfg: cfg, chain: chain, store: store}
}

// Check runs all diagnostic checks. strict additionally verifies the
// full audit chain, which reads every segment.
func (d *Doctor) Check(strict bool) (*Result, error) {
	result := &Result{Healthy: true}

	d.checkGitBinary(result)
	d.checkRepositories(result)
	d.checkStateDir(result)
	d.checkCertificateLog(result)
	if strict {
		d.checkChainIntegrity(result)
	}
	d.checkOrphanTmp(result)

	return result, nil
}

func (d *Doctor) checkGitBinary(result *Result) {
	if _, err := exec.LookPath("git"); err != nil {
		result.Findings = append(result.Findings, Finding{
			Category:    "git",
			Description: "git binary not found on PATH",
			Severity:    "critical",
		})
		result.Healthy = false
	}
}

func (d *Doctor) checkRepositories(result *Result) {
	for _, r := range d.cfg.Repositories {
		if _, err := os.Stat(r.Path); err != nil {
			result.Findings = append(result.Findings, Finding{
				Category:    "repository",
				Description: fmt.Sprintf("repository '%s' path missing", r.Name),
				Severity:    "error",
				Path:        r.Path,
			})
			result.Healthy = false
			continue
		}
		gitDir := filepath.Join(r.Path, ".git")
		if _, err := os.Stat(gitDir); err != nil {
			result.Findings = append(result.Findings, Finding{
				Category:    "repository",
				Description: fmt.Sprintf("repository '%s' has no .git directory", r.Name),
				Severity:    "error",
				Path:        gitDir,
			})
			result.Healthy = false
		}
	}
}

func (d *Doctor) checkStateDir(result *Result) {
	if err := os.MkdirAll(d.cfg.StateDir, 0755); err != nil {
		result.Findings = append(result.Findings, Finding{
			Category:    "state",
			Description: fmt.Sprintf("state directory not creatable: %v", err),
			Severity:    "critical",
			Path:        d.cfg.StateDir,
		})
		result.Healthy = false
		return
	}

	probe := filepath.Join(d.cfg.StateDir, ".doctor-probe")
	if err := os.WriteFile(probe, []byte("ok"), 0644); err != nil {
		result.Findings = append(result.Findings, Finding{
			Category:    "state",
			Description: fmt.Sprintf("state directory not writable: %v", err),
			Severity:    "critical",
			Path:        d.cfg.StateDir,
		})
		result.Healthy = false
		return
	}
	os.Remove(probe)
}

func (d *Doctor) checkCertificateLog(result *Result) {
	if d.store == nil {
		return
	}
	if _, err := d.store.List(); err != nil {
		result.Findings = append(result.Findings, Finding{
			Category:    "certificate",
			Description: fmt.Sprintf("certificate log unreadable: %v", err),
			Severity:    "error",
			Path:        d.cfg.CertificateLogPath(),
		})
		result.Healthy = false
	}
}

func (d *Doctor) checkChainIntegrity(result *Result) {
	if d.chain == nil {
		return
	}
	verify, err := d.chain.Verify()
	if err != nil {
		result.Findings = append(result.Findings, Finding{
			Category:    "audit",
			Description: fmt.Sprintf("audit chain verification failed: %v", err),
			Severity:    "error",
		})
		result.Healthy = false
		return
	}
	if !verify.Valid {
		result.Findings = append(result.Findings, Finding{
			Category:    "audit",
			Description: fmt.Sprintf("audit chain broken at entry %s", verify.BrokenAt),
			Severity:    "critical",
		})
		result.Healthy = false
	}
}

func (d *Doctor) checkOrphanTmp(result *Result) {
	filepath.Walk(d.cfg.StateDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if strings.HasPrefix(info.Name(), ".deployseal-tmp-") {
			result.Findings = append(result.Findings, Finding{
				Category:    "tmp",
				Description: fmt.Sprintf("orphan temp file: %s", info.Name()),
				Severity:    "info",
				Path:        path,
			})
		}
		return nil
	})
}
