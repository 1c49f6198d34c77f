package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"depthlens/internal/scene"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

const yamlCatalog = `
initialPatchSize: 300
smoothingEnabled: true
comparisonCount: 2
scenes:
  - name: room
    primaryImageUrl: images/room.png
    comparisonImageUrls: [images/room_d1.png, images/room_d2.png]
    labels: [Ours, Baseline]
    anchors:
      - {name: lamp, x: 0.25, y: 0.4}
`

func TestLoadYAML(t *testing.T) {
	p := writeFile(t, "scenes.yaml", yamlCatalog)
	cfg, err := Load(p)
	require.NoError(t, err)

	assert.Equal(t, 300.0, cfg.InitialPatchSize)
	assert.True(t, cfg.SmoothingEnabled)
	assert.Equal(t, 64.0, cfg.MinPatchSize, "unset fields keep defaults")
	require.Len(t, cfg.Scenes, 1)
	assert.Equal(t, filepath.Join(filepath.Dir(p), "images/room.png"), cfg.Scenes[0].PrimaryURL)
	assert.Equal(t, scene.Anchor{Name: "lamp", X: 0.25, Y: 0.4}, cfg.Scenes[0].Anchors[0])
}

func TestLoadJSON(t *testing.T) {
	p := writeFile(t, "scenes.json", `{
		"assetBase": "https://cdn.example.com/assets",
		"transitionDurationMs": 250,
		"scenes": [{"name": "a", "primaryImageUrl": "a.png",
			"comparisonImageUrls": ["https://other.example.com/d.png"], "labels": ["Ours"]}]
	}`)
	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, cfg.TransitionDuration())
	assert.Equal(t, "https://cdn.example.com/assets/a.png", cfg.Scenes[0].PrimaryURL)
	assert.Equal(t, "https://other.example.com/d.png", cfg.Scenes[0].ComparisonURLs[0])
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "bad.json", "{not json"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "empty.yaml", "initialPatchSize: 100\n"))
	assert.ErrorIs(t, err, ErrInvalid)
	assert.ErrorIs(t, err, scene.ErrInvalid)
}

func TestValidate(t *testing.T) {
	valid := Default()
	valid.Scenes = scene.Catalog{{PrimaryURL: "a", ComparisonURLs: []string{"b"}, Labels: []string{"c"}}}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"min not positive", func(c *Config) { c.MinPatchSize = 0 }},
		{"max below min", func(c *Config) { c.MaxPatchSize = 10 }},
		{"initial out of range", func(c *Config) { c.InitialPatchSize = 1000 }},
		{"zoom step", func(c *Config) { c.ZoomStep = 1 }},
		{"smoothing factor", func(c *Config) { c.SmoothingFactor = 0 }},
		{"comparison count", func(c *Config) { c.ComparisonCount = 5 }},
		{"lens color", func(c *Config) { c.LensColor = "blue" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			assert.ErrorIs(t, c.Validate(), ErrInvalid)
		})
	}
}

func TestResolveURLAssetMap(t *testing.T) {
	c := Config{
		AssetMap: map[string]string{
			"images/pub/":       "https://releases.example.com/v1/",
			"images/pub/depth/": "https://releases.example.com/v1/depth-comparison_",
		},
	}
	assert.Equal(t, "https://releases.example.com/v1/depth-comparison_d1.jpg", c.ResolveURL("images/pub/depth/d1.jpg"))
	assert.Equal(t, "https://releases.example.com/v1/rgb.jpg", c.ResolveURL("images/pub/rgb.jpg"))
	assert.Equal(t, "other/x.png", c.ResolveURL("other/x.png"))
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.Scenes = scene.Catalog{{Name: "a", PrimaryURL: "/abs/a.png", ComparisonURLs: []string{"/abs/d.png"}, Labels: []string{"Ours"}}}
	for _, name := range []string{"c.yaml", "c.json"} {
		p := filepath.Join(dir, "nested", name)
		require.NoError(t, cfg.Save(p))
		got, err := Load(p)
		require.NoError(t, err)
		assert.Equal(t, cfg.Scenes, got.Scenes)
	}
}

func TestDefaultPath(t *testing.T) {
	assert.Equal(t, "config.yaml", filepath.Base(DefaultPath()))
}
