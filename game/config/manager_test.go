package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/mcp-training/trainprogram/game/engine"
)

func createValidCatalog() *engine.Catalog {
	return &engine.Catalog{
		Name:        "Test Catalog",
		Description: "Test catalog",
		Levels: []engine.Level{
			{
				ID:                1,
				Name:              "Straight",
				GridSize:          4,
				Start:             engine.Position{X: 0, Y: 3},
				StartDirection:    engine.North,
				Goal:              engine.Position{X: 0, Y: 1},
				PermittedCommands: []engine.Command{engine.CmdAdvance},
			},
		},
	}
}

func writeCatalogFile(t *testing.T, dir, filename string, catalog *engine.Catalog) {
	t.Helper()
	data, err := MarshalCatalog(catalog, FormatFromPath(filename))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, filename), data, 0644))
}

func writeRawFile(t *testing.T, dir, filename, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, filename), []byte(content), 0644))
}

const yamlCatalog = `
name: Yaml Catalog
description: loaded from yaml
levels:
  - id: 7
    name: Corner
    grid_size: 3
    start: {x: 0, y: 2}
    start_direction: east
    goal: {x: 2, y: 0}
    decorations:
      - position: {x: 2, y: 0}
        decoration: park
    permitted_commands: [advance, turn_left]
    hint: turn at the end
`

func TestNewManager(t *testing.T) {
	t.Run("missing directory", func(t *testing.T) {
		_, err := NewManager(filepath.Join(t.TempDir(), "nope"))
		assert.Error(t, err)
	})

	t.Run("empty directory falls back to built-in levels", func(t *testing.T) {
		m, err := NewManager(t.TempDir())
		require.NoError(t, err)
		assert.Equal(t, engine.DefaultCatalog(), m.GetDefault())
	})

	t.Run("classic is preferred", func(t *testing.T) {
		dir := t.TempDir()
		other := createValidCatalog()
		other.Name = "Another"
		writeCatalogFile(t, dir, "another.json", other)
		writeCatalogFile(t, dir, "classic.json", createValidCatalog())

		m, err := NewManager(dir)
		require.NoError(t, err)
		assert.Equal(t, "Test Catalog", m.GetDefault().Name)
	})

	t.Run("first valid catalog without classic", func(t *testing.T) {
		dir := t.TempDir()
		writeRawFile(t, dir, "aaa.json", `{"name": "broken"}`)
		writeCatalogFile(t, dir, "bbb.json", createValidCatalog())

		m, err := NewManager(dir)
		require.NoError(t, err)
		assert.Equal(t, "Test Catalog", m.GetDefault().Name)
	})
}

func TestManager_LoadCatalog(t *testing.T) {
	dir := t.TempDir()
	writeCatalogFile(t, dir, "classic.json", createValidCatalog())
	writeRawFile(t, dir, "corner.yaml", yamlCatalog)
	writeRawFile(t, dir, "bad.json", `{"name": "x", "levels": [{"id": 1}]}`)
	writeRawFile(t, dir, "garbage.yml", "levels: [unterminated")

	m, err := NewManager(dir)
	require.NoError(t, err)

	t.Run("by id", func(t *testing.T) {
		c, err := m.LoadCatalog("classic")
		require.NoError(t, err)
		assert.Equal(t, 1, c.Len())
	})

	t.Run("with extension", func(t *testing.T) {
		c, err := m.LoadCatalog("classic.json")
		require.NoError(t, err)
		assert.Equal(t, "Test Catalog", c.Name)
	})

	t.Run("yaml", func(t *testing.T) {
		c, err := m.LoadCatalog("corner")
		require.NoError(t, err)
		require.Equal(t, 1, c.Len())
		level := c.Levels[0]
		assert.Equal(t, 7, level.ID)
		assert.Equal(t, engine.East, level.StartDirection)
		assert.Equal(t, engine.Position{X: 2, Y: 0}, level.Goal)
		assert.Equal(t, []engine.Command{engine.CmdAdvance, engine.CmdTurnLeft}, level.PermittedCommands)
		assert.Equal(t, "turn at the end", level.Hint)
		decoration, ok := level.DecorationAt(level.Goal)
		assert.True(t, ok)
		assert.Equal(t, engine.Park, decoration)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := m.LoadCatalog("missing")
		assert.ErrorIs(t, err, ErrCatalogNotFound)
	})

	t.Run("path traversal", func(t *testing.T) {
		_, err := m.LoadCatalog("../classic")
		assert.ErrorIs(t, err, ErrCatalogNotFound)
	})

	t.Run("schema violation", func(t *testing.T) {
		_, err := m.LoadCatalog("bad")
		assert.ErrorIs(t, err, ErrInvalidCatalog)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := m.LoadCatalog("garbage")
		assert.ErrorIs(t, err, ErrInvalidCatalog)
	})
}

func TestParseCatalog(t *testing.T) {
	valid := createValidCatalog()
	data, err := json.Marshal(valid)
	require.NoError(t, err)

	c, err := ParseCatalog(data, FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, valid, c)

	tests := []struct {
		name    string
		content string
	}{
		{"not json", `{`},
		{"unknown field", `{"name":"x","levels":[],"extra":1}`},
		{"no levels", `{"name":"x","levels":[]}`},
		{"bad command", `{"name":"x","levels":[{"id":1,"name":"a","grid_size":3,"start":{"x":0,"y":0},"start_direction":"north","goal":{"x":1,"y":1},"permitted_commands":["jump"]}]}`},
		{"bad direction", `{"name":"x","levels":[{"id":1,"name":"a","grid_size":3,"start":{"x":0,"y":0},"start_direction":"up","goal":{"x":1,"y":1},"permitted_commands":["advance"]}]}`},
		{"grid too big", `{"name":"x","levels":[{"id":1,"name":"a","grid_size":99,"start":{"x":0,"y":0},"start_direction":"north","goal":{"x":1,"y":1},"permitted_commands":["advance"]}]}`},
		{"goal outside grid", `{"name":"x","levels":[{"id":1,"name":"a","grid_size":3,"start":{"x":0,"y":0},"start_direction":"north","goal":{"x":3,"y":1},"permitted_commands":["advance"]}]}`},
		{"duplicate ids", `{"name":"x","levels":[
			{"id":1,"name":"a","grid_size":3,"start":{"x":0,"y":0},"start_direction":"north","goal":{"x":1,"y":1},"permitted_commands":["advance"]},
			{"id":1,"name":"b","grid_size":3,"start":{"x":0,"y":0},"start_direction":"north","goal":{"x":1,"y":1},"permitted_commands":["advance"]}]}`},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(test.content), FormatJSON)
			assert.ErrorIs(t, err, ErrInvalidCatalog)
		})
	}
}

func TestParseCatalog_DefaultCatalogRoundTrip(t *testing.T) {
	for _, format := range []Format{FormatJSON, FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			data, err := MarshalCatalog(engine.DefaultCatalog(), format)
			require.NoError(t, err)
			c, err := ParseCatalog(data, format)
			require.NoError(t, err)
			assert.Equal(t, engine.DefaultCatalog(), c)
		})
	}
}

func TestLoadCatalogFile(t *testing.T) {
	dir := t.TempDir()
	writeRawFile(t, dir, "corner.yml", yamlCatalog)

	c, err := LoadCatalogFile(filepath.Join(dir, "corner.yml"))
	require.NoError(t, err)
	assert.Equal(t, "Yaml Catalog", c.Name)

	_, err = LoadCatalogFile(filepath.Join(dir, "absent.json"))
	assert.ErrorIs(t, err, ErrCatalogNotFound)
}

func TestManager_ListCatalogs(t *testing.T) {
	dir := t.TempDir()
	writeCatalogFile(t, dir, "classic.json", createValidCatalog())
	writeRawFile(t, dir, "corner.yaml", yamlCatalog)
	writeRawFile(t, dir, "broken.json", `{}`)
	writeRawFile(t, dir, "notes.txt", "not a catalog")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.json"), 0755))

	m, err := NewManager(dir)
	require.NoError(t, err)

	infos, err := m.ListCatalogs()
	require.NoError(t, err)
	require.Len(t, infos, 2)

	assert.Equal(t, "classic", infos[0].CatalogID)
	assert.Equal(t, "classic.json", infos[0].Filename)
	assert.Equal(t, "Test Catalog", infos[0].Name)
	assert.Equal(t, 1, infos[0].LevelCount)

	assert.Equal(t, "corner", infos[1].CatalogID)
	assert.Equal(t, "Yaml Catalog", infos[1].Name)
	assert.Equal(t, "loaded from yaml", infos[1].Description)
}

func TestManager_SaveCatalog(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir)
	require.NoError(t, err)

	require.NoError(t, m.SaveCatalog("custom", createValidCatalog()))
	assert.FileExists(t, filepath.Join(dir, "custom.json"))

	require.NoError(t, m.SaveCatalog("levels.yaml", engine.DefaultCatalog()))
	assert.FileExists(t, filepath.Join(dir, "levels.yaml"))

	// Reload from disk, bypassing the cache
	m.RefreshCache()
	c, err := m.LoadCatalog("levels")
	require.NoError(t, err)
	assert.Equal(t, engine.DefaultCatalog(), c)

	err = m.SaveCatalog("bad", &engine.Catalog{Name: "empty"})
	assert.ErrorIs(t, err, ErrInvalidCatalog)

	err = m.SaveCatalog("../escape", createValidCatalog())
	assert.ErrorIs(t, err, ErrInvalidCatalog)
}

func TestManager_SetDefault(t *testing.T) {
	dir := t.TempDir()
	writeRawFile(t, dir, "corner.yaml", yamlCatalog)
	m, err := NewManager(dir)
	require.NoError(t, err)

	require.NoError(t, m.SetDefault("corner"))
	assert.Equal(t, "Yaml Catalog", m.GetDefault().Name)

	assert.ErrorIs(t, m.SetDefault("missing"), ErrCatalogNotFound)
	assert.Equal(t, "Yaml Catalog", m.GetDefault().Name)
}

func TestManager_RefreshCacheKeepsChosenDefault(t *testing.T) {
	dir := t.TempDir()
	writeCatalogFile(t, dir, "classic.json", createValidCatalog())
	writeRawFile(t, dir, "corner.yaml", yamlCatalog)
	m, err := NewManager(dir)
	require.NoError(t, err)
	require.NoError(t, m.SetDefault("corner.yaml"))

	m.RefreshCache()
	assert.Equal(t, "Yaml Catalog", m.GetDefault().Name)

	// A removed default falls back to the first valid catalog
	require.NoError(t, os.Remove(filepath.Join(dir, "corner.yaml")))
	m.RefreshCache()
	assert.Equal(t, createValidCatalog().Name, m.GetDefault().Name)
}

func TestManager_ConcurrentAccess(t *testing.T) {
	dir := t.TempDir()
	writeCatalogFile(t, dir, "classic.json", createValidCatalog())
	writeRawFile(t, dir, "corner.yaml", yamlCatalog)
	m, err := NewManager(dir)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 40)
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := m.LoadCatalog("corner")
			errs <- err
		}()
		go func() {
			defer wg.Done()
			_, err := m.ListCatalogs()
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
}

func TestManager_CachingBehavior(t *testing.T) {
	dir := t.TempDir()
	writeCatalogFile(t, dir, "classic.json", createValidCatalog())
	m, err := NewManager(dir)
	require.NoError(t, err)

	first, err := m.LoadCatalog("classic")
	require.NoError(t, err)

	changed := createValidCatalog()
	changed.Name = "Changed"
	writeCatalogFile(t, dir, "classic.json", changed)

	cached, err := m.LoadCatalog("classic")
	require.NoError(t, err)
	assert.Same(t, first, cached)

	m.RefreshCache()
	reloaded, err := m.LoadCatalog("classic")
	require.NoError(t, err)
	assert.Equal(t, "Changed", reloaded.Name)
}
