package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aloha-corp/aloha-rag/internal/connectors/filesystem"
	"github.com/aloha-corp/aloha-rag/internal/core/domain"
)

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestIngest_Directory(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "a.md"), "# A")
	writeTestFile(t, filepath.Join(dir, "nested", "b.txt"), "B")
	writeTestFile(t, filepath.Join(dir, "skip.png"), "png")
	writeTestFile(t, filepath.Join(dir, ".private.md"), "hidden")

	out, err := runCommand(t, "", "ingest", dir)
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(dir, "a.md"),
		filepath.Join(dir, "nested", "b.txt"),
	}, ts.ingest.uris())
	assert.Contains(t, out, "Ingest complete: 2 added, 0 replaced, 0 unchanged, 2 chunks")

	for _, raw := range ts.ingest.ingested {
		assert.Equal(t, defaultLocalSource, raw.Source)
		assert.Equal(t, filesystem.FileURL(raw.URI), raw.Metadata["url"])
	}
}

func TestIngest_FlagsApplied(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	path := filepath.Join(t.TempDir(), "issue-12.txt")
	writeTestFile(t, path, "newsletter body")

	_, err := runCommand(t, "", "ingest", path, "--source", "weekly", "--type", "newsletter", "--force")
	require.NoError(t, err)

	require.Len(t, ts.ingest.ingested, 1)
	raw := ts.ingest.ingested[0]
	assert.Equal(t, "weekly", raw.Source)
	assert.Equal(t, "newsletter", raw.Metadata["source_type"])
	assert.True(t, ts.ingest.forced)
}

func TestIngest_UnchangedAndReplaced(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	dir := t.TempDir()
	same := filepath.Join(dir, "same.md")
	changed := filepath.Join(dir, "changed.md")
	writeTestFile(t, same, "same")
	writeTestFile(t, changed, "changed")
	writeTestFile(t, filepath.Join(dir, "fresh.md"), "fresh")
	ts.ingest.unchanged[same] = true
	ts.ingest.stored[filesystem.FileURL(changed)] = "doc-old"

	out, err := runCommand(t, "", "ingest", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "replaced "+changed)
	assert.Contains(t, out, "1 added, 1 replaced, 1 unchanged")
}

func TestIngest_Since(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	dir := t.TempDir()
	old := filepath.Join(dir, "old.md")
	writeTestFile(t, old, "old")
	writeTestFile(t, filepath.Join(dir, "new.md"), "new")
	past := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(old, past, past))

	_, err := runCommand(t, "", "ingest", dir, "--since", "2023-01-01")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "new.md")}, ts.ingest.uris())
}

func TestIngest_URL(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.fetcher.pages["https://blog.gamedev.io/post"] = "<html><title>Post</title></html>"

	out, err := runCommand(t, "", "ingest", "https://blog.gamedev.io/post", "https://blog.gamedev.io/missing")
	require.NoError(t, err)

	assert.Equal(t, []string{"https://blog.gamedev.io/post"}, ts.ingest.uris())
	assert.Contains(t, out, "https://blog.gamedev.io/missing")
	assert.Contains(t, out, "1 added, 0 replaced, 0 unchanged, 1 chunks, 1 failed")
}

func TestIngest_NoSupportedFiles(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "photo.jpg"), "jpg")

	out, err := runCommand(t, "", "ingest", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "No supported files found. Supported extensions: .md, .txt")
}

func TestIngest_MissingPath(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := runCommand(t, "", "ingest", filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestIngest_NotConfigured(t *testing.T) {
	SetServices(nil)

	_, err := runCommand(t, "", "ingest", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ingest service not configured")
}

func TestApplyChange(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	resetFlags(rootCmd)

	dir := t.TempDir()
	path := filepath.Join(dir, "live.md")
	writeTestFile(t, path, "live")
	url := filesystem.FileURL(path)

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	out := new(testWriter)
	cmd.SetOut(out)
	cmd.SetErr(out)
	tally := &ingestTally{}

	created := filesystem.Change{
		Type: filesystem.ChangeCreated,
		Document: domain.RawDocument{
			URI:      path,
			Content:  []byte("live"),
			Metadata: map[string]any{"url": url},
		},
	}
	applyChange(cmd, created, tally)
	assert.Equal(t, 1, tally.added)
	assert.Contains(t, ts.ingest.stored, url)

	deleted := filesystem.Change{
		Type:     filesystem.ChangeDeleted,
		Document: domain.RawDocument{URI: path, Metadata: map[string]any{"url": url}},
	}
	applyChange(cmd, deleted, tally)
	assert.Equal(t, []string{url}, ts.ingest.removed)
	assert.Contains(t, out.String(), "removed "+path)

	// A second delete of an unknown file is silent.
	applyChange(cmd, deleted, tally)
	assert.Len(t, ts.ingest.removed, 1)
}

func TestWatchPaths_StopsOnCancel(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	resetFlags(rootCmd)

	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cmd := &cobra.Command{}
	cmd.SetContext(ctx)
	out := new(testWriter)
	cmd.SetOut(out)

	done := make(chan error, 1)
	go func() {
		done <- watchPaths(ctx, cmd, []*filesystem.Connector{filesystem.New("local", dir)})
	}()

	path := filepath.Join(dir, "late.md")
	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte("late"), 0o644)
		return len(ts.ingest.uris()) > 0
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
	assert.Contains(t, out.String(), "Stopped watching:")
}
