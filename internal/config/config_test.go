package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"filegrip/internal/eventbus"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Parallel()
	cs := NewConfigService(t.TempDir())

	cfg, err := cs.Load()
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), cfg)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	cs := NewConfigService(dir)

	cfg := DefaultConfig()
	cfg.LogFile = "custom.log"
	cfg.Scan.Roots = []string{"/data", "/media"}
	cfg.Selection.FetchBatchSize = 50
	cfg.Catalog.Driver = "sqlite"
	cfg.Catalog.DSN = filepath.Join(dir, "catalog.db")
	cfg.Catalog.Hierarchy = []string{"ext"}
	cfg.Catalog.Sort = "size"
	cfg.UI.ShowCounts = false

	require.NoError(t, cs.Save(cfg))

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	require.Contains(t, string(data), "version = 1")
	require.Contains(t, string(data), "[catalog]")

	loaded, err := cs.Load()
	require.NoError(t, err)
	require.Equal(t, cfg, loaded)
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	content := "[catalog]\nsort = \"path\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644))

	cfg, err := NewConfigService(dir).Load()
	require.NoError(t, err)
	require.Equal(t, "path", cfg.Catalog.Sort)
	require.Equal(t, "memory", cfg.Catalog.Driver)
	require.Equal(t, 500, cfg.Selection.FetchBatchSize)
	require.Equal(t, []string{"top", "ext"}, cfg.Catalog.Hierarchy)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("FILEGRIP_CATALOG_DRIVER", "sqlite")
	t.Setenv("FILEGRIP_SELECTION_FETCH_CONCURRENCY", "9")

	cfg, err := NewConfigService(t.TempDir()).Load()
	require.NoError(t, err)
	require.Equal(t, "sqlite", cfg.Catalog.Driver)
	require.Equal(t, 9, cfg.Selection.FetchConcurrency)
}

func TestInvalidConfigIsRejected(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"driver":      "[catalog]\ndriver = \"postgres\"\n",
		"sort":        "[catalog]\nsort = \"status\"\n",
		"batch size":  "[selection]\nfetch_batch_size = 0\n",
		"concurrency": "[selection]\nfetch_concurrency = -1\n",
		"cache size":  "[selection]\ncount_cache_size = 0\n",
		"hierarchy":   "[catalog]\nhierarchy = [\"top\", \"\"]\n",
		"syntax":      "[catalog\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644))
			_, err := NewConfigService(dir).Load()
			require.Error(t, err)
		})
	}
}

func TestLoadFromPathRequiresFile(t *testing.T) {
	t.Parallel()
	cs := NewConfigService(t.TempDir())

	_, err := cs.LoadFromPath(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "nested", "other.toml")
	require.NoError(t, cs.SaveToPath(DefaultConfig(), path))
	cfg, err := cs.LoadFromPath(path)
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), cfg)
}

func TestConfigEventsArePublished(t *testing.T) {
	t.Parallel()
	bus := eventbus.New()
	defer bus.Close()

	events := make(chan eventbus.DomainEvent, 2)
	bus.Subscribe(eventbus.EventConfigLoaded, func(e eventbus.DomainEvent) { events <- e })
	bus.Subscribe(eventbus.EventConfigSaved, func(e eventbus.DomainEvent) { events <- e })

	dir := t.TempDir()
	cs := NewConfigServiceWithBus(dir, bus)
	_, err := cs.Load()
	require.NoError(t, err)
	require.NoError(t, cs.Save(DefaultConfig()))

	// handlers run on their own goroutines, so arrival order is not fixed
	path := filepath.Join(dir, FileName)
	var got []eventbus.DomainEvent
	for len(got) < 2 {
		select {
		case e := <-events:
			got = append(got, e)
		case <-time.After(time.Second):
			t.Fatalf("timed out after %d events", len(got))
		}
	}
	require.ElementsMatch(t, []eventbus.DomainEvent{
		eventbus.ConfigLoadedEvent{Path: path},
		eventbus.ConfigSavedEvent{Path: path},
	}, got)
}
