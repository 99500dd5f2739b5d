package docstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeInto(t *testing.T) {
	dst := Document{
		"a": 1,
		"nested": map[string]any{
			"keep":  true,
			"inner": map[string]any{"x": 1},
		},
		"list": []any{1, 2},
	}
	src := Document{
		"b": 2,
		"nested": map[string]any{
			"inner": map[string]any{"y": 2},
		},
		"list": []any{3},
	}

	got := mergeInto(dst, src)

	assert.Equal(t, Document{
		"a": 1,
		"b": 2,
		"nested": map[string]any{
			"keep":  true,
			"inner": map[string]any{"x": 1, "y": 2},
		},
		"list": []any{3},
	}, got)
	assert.NotContains(t, dst, "b", "dst must not be modified")
	assert.NotContains(t, dst["nested"].(map[string]any)["inner"], "y")
}

func TestMergeInto_ScalarReplacesMap(t *testing.T) {
	got := mergeInto(Document{"k": map[string]any{"x": 1}}, Document{"k": "flat"})
	assert.Equal(t, "flat", got["k"])
}

func TestClone_IsDeep(t *testing.T) {
	orig := Document{"m": map[string]any{"l": []any{map[string]any{"v": 1}}}}
	c := Clone(orig)
	c["m"].(map[string]any)["l"].([]any)[0].(map[string]any)["v"] = 2

	assert.Equal(t, 1, orig["m"].(map[string]any)["l"].([]any)[0].(map[string]any)["v"])
	assert.Nil(t, Clone(nil))
}
