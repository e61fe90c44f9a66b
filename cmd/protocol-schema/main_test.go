package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSchemaCoversEvents(t *testing.T) {
	schema := buildSchema()
	require.NotNil(t, schema)
	assert.Equal(t, "Arena Sync Protocol", schema.Title)
	for _, name := range []string{"PlayerMoved", "PlayerJump", "ChatMessageReceived", "PlayerRecord"} {
		assert.Contains(t, schema.Definitions, name)
	}
}

func TestWriteSchema(t *testing.T) {
	out := filepath.Join(t.TempDir(), "nested", "protocol.schema.json")
	require.NoError(t, writeSchema(out, buildSchema()))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "Arena Sync Protocol", doc["title"])
	assert.NoFileExists(t, out+".tmp")
}
