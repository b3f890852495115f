package markdown

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `Intro text before any heading.

# Combat

Each round is **six seconds** long.
Turns follow initiative order.

### Surprise

A surprised creature cannot act on its first turn.

## Movement

- Walk
- Dash

` + "```" + `
speed = 30
` + "```" + `
`

func TestLoad_Sections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.md")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	units, err := New().Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, units, 3)

	assert.Equal(t, 1, units[0].Page)
	assert.Equal(t, "Intro text before any heading.", units[0].Text)
	assert.Nil(t, units[0].Metadata["heading"])

	assert.Equal(t, 2, units[1].Page)
	assert.Equal(t, "Combat", units[1].Metadata["heading"])
	assert.Contains(t, units[1].Text, "Each round is six seconds long.\nTurns follow initiative order.")
	assert.Contains(t, units[1].Text, "Surprise")
	assert.NotContains(t, units[1].Text, "**")

	assert.Equal(t, 3, units[2].Page)
	assert.Equal(t, "Movement", units[2].Metadata["heading"])
	assert.Contains(t, units[2].Text, "Walk\nDash")
	assert.Contains(t, units[2].Text, "speed = 30")

	for _, u := range units {
		assert.Equal(t, path, u.Source)
		assert.Equal(t, "markdown", u.Metadata["format"])
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := New().Load(context.Background(), filepath.Join(t.TempDir(), "nope.md"))
	assert.Error(t, err)
}

func TestLoad_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.md")
	require.NoError(t, os.WriteFile(path, []byte("\n\n"), 0o600))
	units, err := New().Load(context.Background(), path)
	require.NoError(t, err)
	assert.Empty(t, units)
}

func TestExtensions(t *testing.T) {
	assert.Equal(t, []string{".md", ".markdown"}, New().Extensions())
	assert.Equal(t, "markdown", New().Name())
}
