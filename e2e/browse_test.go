//go:build e2e && unix

package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func startBrowser(t *testing.T) *TUITestFramework {
	t.Helper()
	tf := NewTUITest(t)
	t.Cleanup(tf.Cleanup)

	workspace, err := tf.CreateTestTree()
	require.NoError(t, err, "Failed to create test tree")

	require.NoError(t, tf.StartApp("-d", workspace), "Failed to start app")
	if !tf.Ready() {
		tf.DumpTailOnFail(t, "not-ready", 4096)
		t.Fatal("Browser did not finish its first scan")
	}
	return tf
}

func TestBrowserShowsHierarchy(t *testing.T) {
	t.Parallel()
	tf := startBrowser(t)

	require.True(t, tf.SeePlain("filegrip"), "Should show filegrip title")
	require.True(t, tf.SeePlain("Found 6 files"), "Should report the scan")
	for _, name := range []string{"docs", "src", "notes.txt", "guide.md", "a.go"} {
		require.True(t, tf.SeePlain(name), "Should list %s", name)
	}
}

func TestKeyboardSelection(t *testing.T) {
	t.Parallel()
	tf := startBrowser(t)

	require.NoError(t, tf.Select())
	require.True(t, tf.SeePlain("1 selected in 1 groups"), "Space should select the focused file")

	// moving replaces, extending keeps
	require.NoError(t, tf.Down())
	require.NoError(t, tf.SendKeys(KeyExtendDown))
	require.True(t, tf.SeePlain("2 selected in 1 groups"), "Extending should keep the selection")
}

func TestExportManifest(t *testing.T) {
	t.Parallel()
	tf := startBrowser(t)

	// focus moves into docs, then select the whole group
	require.NoError(t, tf.Down())
	require.NoError(t, tf.SendKeys("a"))
	require.True(t, tf.SeePlain("2 selected in 1 groups"))

	require.NoError(t, tf.SendKeys(KeyExport))
	require.True(t, tf.WaitForStatusMessage("Wrote 2 rows", 3*time.Second), "Export should report its rows")

	data, err := os.ReadFile(filepath.Join(tf.workspace, "filegrip-manifest.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	require.Equal(t, "id,name,path,size,dir,ext,sizeclass,top", lines[0])
	require.Contains(t, lines[1], "guide.md")
	require.Contains(t, lines[2], "readme.md")
}

func TestDetailsPopup(t *testing.T) {
	t.Parallel()
	tf := startBrowser(t)

	require.NoError(t, tf.Down())
	require.NoError(t, tf.SendKeys("a"))
	require.NoError(t, tf.SendKeys(KeyDetails))
	require.True(t, tf.SeePlain("2 files, 90 B"), "Details should summarize the selection")
}

func TestFilterNarrowsGroups(t *testing.T) {
	t.Parallel()
	tf := startBrowser(t)

	require.NoError(t, tf.SendKeys(KeyFilter))
	require.True(t, tf.SeePlain("Filter:"), "Filter input should open")
	require.NoError(t, tf.SendKeys("docs"))
	require.NoError(t, tf.Enter())
	require.True(t, tf.SeePlain("[Filter: docs]"), "Filter should be shown in the title")
}

func TestRequestReplayedByManifestCommand(t *testing.T) {
	t.Parallel()
	tf := startBrowser(t)

	// select the src group (second group below the top level file)
	require.NoError(t, tf.SendKeys("]"))
	require.NoError(t, tf.SendKeys("]"))
	require.NoError(t, tf.SendKeys("a"))
	require.True(t, tf.SeePlain("3 selected in 1 groups"))
	require.NoError(t, tf.SendKeys(KeyRequest))
	require.True(t, tf.WaitForStatusMessage("filegrip-request.json", 3*time.Second))

	cmd := exec.Command(manifestBinPath, "-dir", tf.workspace, "-request", "filegrip-request.json")
	cmd.Dir = tf.workspace
	cmd.Env = append(os.Environ(), "FILEGRIP_LOG_FILE="+filepath.Join(t.TempDir(), "manifest.log"))
	out, err := cmd.Output()
	require.NoError(t, err, "manifest command should replay the request")

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 4)
	for i, name := range []string{"a.go", "b.go", "c.go"} {
		require.Contains(t, lines[i+1], name)
	}
}

func TestManifestCommandWholeGroup(t *testing.T) {
	t.Parallel()
	tf := NewTUITest(t)
	defer tf.Cleanup()

	workspace, err := tf.CreateTestTree()
	require.NoError(t, err)
	require.NoError(t, tf.WriteConfig("[catalog]\nhierarchy = [\"ext\"]\nsort = \"size\"\n"))

	cmd := exec.Command(manifestBinPath, "-dir", workspace, "-group", "/go")
	cmd.Env = append(os.Environ(), "FILEGRIP_LOG_FILE="+filepath.Join(t.TempDir(), "manifest.log"))
	out, err := cmd.Output()
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 4)
	require.Contains(t, lines[1], "b.go", "size order puts the largest file first")

	cmd = exec.Command(manifestBinPath, "-dir", workspace, "-group", "/rs")
	cmd.Env = append(os.Environ(), "FILEGRIP_LOG_FILE="+filepath.Join(t.TempDir(), "manifest.log"))
	out, err = cmd.CombinedOutput()
	require.Error(t, err)
	require.Contains(t, string(out), "unknown group /rs")
}

func TestHelpFlag(t *testing.T) {
	t.Parallel()

	if _, err := os.Stat(binPath); os.IsNotExist(err) {
		t.Skip("Test binary not found - TestMain may not have run yet")
	}

	// not through a PTY since it exits quickly
	out, _ := exec.Command(binPath, "--help").CombinedOutput()
	output := string(out)
	require.Contains(t, output, "Usage")
	require.Contains(t, output, "-group-by")
}
