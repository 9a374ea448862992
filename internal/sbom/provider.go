// Package sbom defines the read-only collaborators consulted for
// certificate metadata. Their absence or failure never blocks
// certificate issuance.
package sbom

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/deployseal/deployseal/pkg/model"
)

// Provider supplies component/vulnerability summaries per repository.
type Provider interface {
	Components(ctx context.Context, repository string) ([]model.ComponentSummary, error)
}

// FileProvider reads summaries from <dir>/<repository>.json documents
// produced by the external SBOM/scan tooling. Unknown fields in the
// documents are ignored.
type FileProvider struct {
	dir string
}

// NewFileProvider creates a provider reading from dir.
func NewFileProvider(dir string) *FileProvider {
	return &FileProvider{dir: dir}
}

type sbomDocument struct {
	Components []model.ComponentSummary `json:"components"`
}

// Components returns the summaries for a repository. A missing document
// means no data, not an error.
func (p *FileProvider) Components(_ context.Context, repository string) ([]model.ComponentSummary, error) {
	data, err := os.ReadFile(filepath.Join(p.dir, repository+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read sbom document: %w", err)
	}

	var doc sbomDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse sbom document: %w", err)
	}
	return doc.Components, nil
}
