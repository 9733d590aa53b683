package knowledge

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmbedded(t *testing.T) {
	kb, err := Load("")
	require.NoError(t, err)
	assert.Contains(t, kb.Content(), "BuildMart")
	assert.Contains(t, kb.Content(), "TMT Steel")
}

func TestLoadFileOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kb.md")
	require.NoError(t, os.WriteFile(path, []byte("# Custom base\ncustom content"), 0o600))

	kb, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "# Custom base\ncustom content", kb.Content())
}

func TestLoadRejectsEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.md")
	require.NoError(t, os.WriteFile(path, []byte("  \n"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSystemPromptLanguageHint(t *testing.T) {
	kb, err := Load("")
	require.NoError(t, err)

	assert.NotContains(t, kb.SystemPrompt("en"), "language code")
	assert.Contains(t, kb.SystemPrompt("hi"), "language code hi")
}
