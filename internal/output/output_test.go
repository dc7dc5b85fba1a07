package output_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/fivetwenty-io/kcadmin/internal/constants"
	"github.com/fivetwenty-io/kcadmin/internal/output"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

var users = []any{
	map[string]any{"username": "alice", "enabled": true, "attributes": map[string]any{"team": []any{"ops"}}},
	map[string]any{"username": "bob", "enabled": false},
}

func TestWrite_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, output.Write(&buf, constants.FormatJSON, users))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Len(t, decoded, 2)
	assert.Equal(t, "alice", decoded[0]["username"])
	assert.Contains(t, buf.String(), "\n  {")
}

func TestWrite_YAML(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, output.Write(&buf, constants.FormatYAML, users))

	var decoded []map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "bob", decoded[1]["username"])
	assert.Equal(t, false, decoded[1]["enabled"])
}

func TestWrite_Table(t *testing.T) {
	t.Parallel()

	t.Run("selected columns", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		require.NoError(t, output.Write(&buf, constants.FormatTable, users, "username", "enabled"))

		out := buf.String()
		assert.Contains(t, out, "alice")
		assert.Contains(t, out, "bob")
		assert.Contains(t, out, "true")
		assert.Contains(t, out, "false")
		assert.NotContains(t, out, "ops")
	})

	t.Run("all columns of a single object", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		require.NoError(t, output.Write(&buf, constants.FormatTable, users[0]))

		out := buf.String()
		assert.Contains(t, out, "alice")
		assert.Contains(t, out, "ops")
	})

	t.Run("scalars", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		require.NoError(t, output.Write(&buf, constants.FormatTable, []any{"master", "acme"}))

		assert.Contains(t, buf.String(), "master")
		assert.Contains(t, buf.String(), "acme")
	})
}

func TestWrite_UnknownFormat(t *testing.T) {
	t.Parallel()

	err := output.Write(&bytes.Buffer{}, "xml", users)
	require.ErrorIs(t, err, constants.ErrUnknownOutputFormat)
}
