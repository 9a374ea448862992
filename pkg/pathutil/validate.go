// Package pathutil provides name validation for repositories and tags.
package pathutil

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/deployseal/deployseal/pkg/errclass"
)

var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// ValidateRepoName checks a configured repository name. Names end up in
// certificate IDs and archive file names, so they must be plain.
func ValidateRepoName(name string) error {
	if name == "" {
		return errclass.ErrNameInvalid.WithMessage("repository name must not be empty")
	}

	// NFC normalize before matching; a visually identical name must not
	// produce a different certificate ID.
	name = norm.NFC.String(name)

	if strings.Contains(name, "..") {
		return errclass.ErrNameInvalid.WithMessagef("name must not contain '..': %s", name)
	}
	if strings.ContainsAny(name, "/\\") {
		return errclass.ErrNameInvalid.WithMessagef("name must not contain separators: %s", name)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return errclass.ErrNameInvalid.WithMessagef("name must not contain control characters: %q", name)
		}
	}
	if !nameRegex.MatchString(name) {
		return errclass.ErrNameInvalid.WithMessagef("name must match [a-zA-Z0-9._-]+: %s", name)
	}
	return nil
}

// NormalizeRepoName returns the NFC-normalized form used for IDs and paths.
func NormalizeRepoName(name string) string {
	return norm.NFC.String(name)
}
