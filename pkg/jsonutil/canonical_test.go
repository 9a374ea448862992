package jsonutil_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deployseal/deployseal/pkg/jsonutil"
)

func TestCanonicalMarshal_SortsKeys(t *testing.T) {
	out, err := jsonutil.CanonicalMarshal(map[string]any{
		"zebra": 1,
		"alpha": 2,
		"mid":   3,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":2,"mid":3,"zebra":1}`, string(out))
}

func TestCanonicalMarshal_NestedAndArrays(t *testing.T) {
	out, err := jsonutil.CanonicalMarshal(map[string]any{
		"b": []any{map[string]any{"y": 1, "x": 2}},
		"a": nil,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"a":null,"b":[{"x":2,"y":1}]}`, string(out))
}

func TestCanonicalMarshal_StructTagsApply(t *testing.T) {
	type payload struct {
		Name  string `json:"name"`
		Skip  string `json:"skip,omitempty"`
		Count int    `json:"count"`
	}
	out, err := jsonutil.CanonicalMarshal(payload{Name: "backend", Count: 2})
	require.NoError(t, err)
	assert.Equal(t, `{"count":2,"name":"backend"}`, string(out))
}

func TestCanonicalMarshal_Deterministic(t *testing.T) {
	v := map[string]any{"k1": "v1", "k2": []any{1.0, 2.0}, "k3": true}
	a, err := jsonutil.CanonicalMarshal(v)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		b, err := jsonutil.CanonicalMarshal(v)
		require.NoError(t, err)
		assert.Equal(t, string(a), string(b))
	}
}
