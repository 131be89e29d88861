package pointer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleTree() map[string]any {
	return map[string]any{
		"name": "Jane",
		"list": []any{"a", map[string]any{"k": "v"}},
		"nil":  nil,
	}
}

func TestLookup(t *testing.T) {
	tests := []struct {
		path     string
		expected any
		found    bool
	}{
		{"", sampleTree(), true},
		{"/name", "Jane", true},
		{"/list/1/k", "v", true},
		{"/nil", nil, true},
		{"/list/5", nil, false},
		{"/list/x", nil, false},
		{"/name/deeper", nil, false},
		{"/missing", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := Lookup(sampleTree(), MustParse(tt.path))
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestReplace(t *testing.T) {
	t.Run("existing key", func(t *testing.T) {
		tree := sampleTree()
		_, ok := Replace(tree, MustParse("/name"), "TEMP")
		assert.True(t, ok)
		assert.Equal(t, "TEMP", tree["name"])
	})

	t.Run("existing index", func(t *testing.T) {
		tree := sampleTree()
		_, ok := Replace(tree, MustParse("/list/0"), "TEMP")
		assert.True(t, ok)
		assert.Equal(t, "TEMP", tree["list"].([]any)[0])
	})

	t.Run("absent key is not created", func(t *testing.T) {
		tree := sampleTree()
		_, ok := Replace(tree, MustParse("/other"), "TEMP")
		assert.False(t, ok)
		_, present := tree["other"]
		assert.False(t, present)
	})

	t.Run("out of range index", func(t *testing.T) {
		_, ok := Replace(sampleTree(), MustParse("/list/2"), "TEMP")
		assert.False(t, ok)
	})

	t.Run("root", func(t *testing.T) {
		root, ok := Replace(sampleTree(), Root(), "whole")
		assert.True(t, ok)
		assert.Equal(t, "whole", root)
	})
}
