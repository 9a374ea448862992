package pathutil_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deployseal/deployseal/pkg/errclass"
	"github.com/deployseal/deployseal/pkg/pathutil"
)

func TestValidateRepoName_Valid(t *testing.T) {
	for _, name := range []string{"backend", "hmi-panels", "line_3", "plc.io", "A1"} {
		assert.NoError(t, pathutil.ValidateRepoName(name), name)
	}
}

func TestValidateRepoName_Invalid(t *testing.T) {
	cases := []string{
		"",
		"..",
		"a/../b",
		"a/b",
		"a\\b",
		"name with spaces",
		"tab\tname",
		"emoji\U0001F525",
	}
	for _, name := range cases {
		err := pathutil.ValidateRepoName(name)
		require.Error(t, err, "%q should be rejected", name)
		assert.ErrorIs(t, err, errclass.ErrNameInvalid)
	}
}

func TestNormalizeRepoName_NFC(t *testing.T) {
	// U+0065 U+0301 (combining acute) vs precomposed U+00E9.
	decomposed := "café"
	precomposed := "café"
	require.NotEqual(t, precomposed, decomposed)
	assert.Equal(t, pathutil.NormalizeRepoName(precomposed), pathutil.NormalizeRepoName(decomposed))
}
