package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayloadSchema(t *testing.T) {
	schema := generateGroupSchema(groups()[0])
	defs, ok := schema["$defs"].(map[string]any)
	require.True(t, ok)
	for _, name := range []string{"Category", "Article", "Mapping", "Mime", "Feature", "Price"} {
		assert.Contains(t, defs, name)
	}
}

func TestWriteSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "admin.json")
	require.NoError(t, writeSchema(generateGroupSchema(groups()[1]), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var parsed map[string]any
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.Equal(t, "Admin Types", parsed["title"])
	assert.Contains(t, parsed["$defs"], "Run")
	assert.Contains(t, parsed["$defs"], "StatusResponse")
}
