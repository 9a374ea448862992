package calver_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deployseal/deployseal/internal/calver"
	"github.com/deployseal/deployseal/pkg/errclass"
)

var december = time.Date(2025, 12, 15, 12, 0, 0, 0, time.UTC)

func TestNextVersion_IncrementsWithinMonth(t *testing.T) {
	tags := []string{"2025.12.01", "2025.12.02", "2025.11.05"}
	v, err := calver.NextVersion(december, tags)
	require.NoError(t, err)
	assert.Equal(t, "2025.12.03", v)
}

func TestNextVersion_FirstOfMonth(t *testing.T) {
	tags := []string{"2025.11.05", "2025.10.12"}
	v, err := calver.NextVersion(december, tags)
	require.NoError(t, err)
	assert.Equal(t, "2025.12.01", v)
}

func TestNextVersion_NoTags(t *testing.T) {
	v, err := calver.NextVersion(december, nil)
	require.NoError(t, err)
	assert.Equal(t, "2025.12.01", v)
}

func TestNextVersion_IgnoresForeignTags(t *testing.T) {
	tags := []string{"v1.2.3", "release-5", "2025.12.7", "2025.12.02-rc1", "2025.12.02"}
	v, err := calver.NextVersion(december, tags)
	require.NoError(t, err)
	assert.Equal(t, "2025.12.03", v)
}

func TestNextVersion_IdempotentPreview(t *testing.T) {
	tags := []string{"2025.12.04"}
	v1, err := calver.NextVersion(december, tags)
	require.NoError(t, err)
	v2, err := calver.NextVersion(december, tags)
	require.NoError(t, err)
	assert.Equal(t, v1, v2, "preview must not advance state")

	// Once the allocated tag is persisted, the next call advances.
	v3, err := calver.NextVersion(december, append(tags, v1))
	require.NoError(t, err)
	assert.Equal(t, "2025.12.06", v3)
}

func TestNextVersion_ExhaustedAt99(t *testing.T) {
	tags := []string{"2025.12.99"}
	_, err := calver.NextVersion(december, tags)
	require.Error(t, err)
	assert.ErrorIs(t, err, errclass.ErrVersionExhausted)
}

func TestNextVersion_ZeroPadded(t *testing.T) {
	tags := []string{"2025.12.09"}
	v, err := calver.NextVersion(december, tags)
	require.NoError(t, err)
	assert.Equal(t, "2025.12.10", v)
}

func TestIsVersion(t *testing.T) {
	assert.True(t, calver.IsVersion("2025.12.01"))
	assert.False(t, calver.IsVersion("2025.12.1"))
	assert.False(t, calver.IsVersion("v2025.12.01"))
	assert.False(t, calver.IsVersion("2025.12.01-rc1"))
}
