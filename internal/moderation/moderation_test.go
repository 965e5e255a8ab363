package moderation

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWordList(t *testing.T) {
	classifier := NewWordList("spam", "lottery")

	assert.True(t, classifier.IsSpam("this is spam"))
	assert.True(t, classifier.IsSpam("WIN THE LOTTERY NOW"))
	assert.False(t, classifier.IsSpam("hello everyone"))
	assert.False(t, classifier.IsSpam(""))
}

func TestWordList_Defaults(t *testing.T) {
	classifier := NewWordList()
	assert.True(t, classifier.IsSpam("free money inside"))
	assert.False(t, classifier.IsSpam("lecture notes for week 3"))
}

func TestScriptClassifier(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.tengo")

	script := `
text := import("text")
spam := text.contains(text.to_lower(input), "buy now")
`
	require.NoError(t, os.WriteFile(path, []byte(script), 0o644))

	classifier, err := NewScriptClassifier(path, NewWordList())
	require.NoError(t, err)
	defer classifier.Close()

	assert.True(t, classifier.IsSpam("BUY NOW limited offer"))
	assert.False(t, classifier.IsSpam("this is spam")) // script replaces the word list entirely
}

func TestScriptClassifier_Reload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.tengo")

	require.NoError(t, os.WriteFile(path, []byte(`spam := false`), 0o644))

	classifier, err := NewScriptClassifier(path, NewWordList())
	require.NoError(t, err)
	defer classifier.Close()

	assert.False(t, classifier.IsSpam("anything goes"))

	require.NoError(t, os.WriteFile(path, []byte(`spam := true`), 0o644))

	// The watcher applies the rewrite asynchronously.
	assert.Eventually(t, func() bool {
		return classifier.IsSpam("anything goes")
	}, 2*time.Second, 20*time.Millisecond)
}

func TestScriptClassifier_FallsBackOnBrokenScript(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.tengo")

	require.NoError(t, os.WriteFile(path, []byte(`this is not tengo ((`), 0o644))

	classifier, err := NewScriptClassifier(path, NewWordList("spam"))
	require.NoError(t, err)
	defer classifier.Close()

	assert.True(t, classifier.IsSpam("this is spam"))
	assert.False(t, classifier.IsSpam("hello"))
}
