// Package calver allocates calendar-based release versions (YYYY.MM.NN).
package calver

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/deployseal/deployseal/pkg/errclass"
)

var versionRegex = regexp.MustCompile(`^(\d{4})\.(\d{2})\.(\d{2})$`)

// maxIncrement is the bound of the two-digit counter. Reaching it is an
// operator-intervention condition, not a silent rollover.
const maxIncrement = 99

// NextVersion computes the next release version for the given month.
// Tags not matching YYYY.MM.NN are ignored. The call is a pure preview:
// calling it twice with the same tag set returns the same value.
func NextVersion(now time.Time, existingTags []string) (string, error) {
	prefix := now.UTC().Format("2006.01")

	maxNN := 0
	for _, tag := range existingTags {
		m := versionRegex.FindStringSubmatch(tag)
		if m == nil {
			continue
		}
		if m[1]+"."+m[2] != prefix {
			continue
		}
		nn, err := strconv.Atoi(m[3])
		if err != nil {
			continue
		}
		if nn > maxNN {
			maxNN = nn
		}
	}

	if maxNN >= maxIncrement {
		return "", errclass.ErrVersionExhausted.WithMessagef(
			"increment %02d reached in %s", maxIncrement, prefix)
	}

	return fmt.Sprintf("%s.%02d", prefix, maxNN+1), nil
}

// IsVersion reports whether tag is a well-formed calendar version.
func IsVersion(tag string) bool {
	return versionRegex.MatchString(tag)
}

// SortVersions orders well-formed versions ascending; callers filter first.
func SortVersions(tags []string) {
	sort.Strings(tags)
}
