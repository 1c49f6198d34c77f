// Package config loads the viewer configuration: the scene catalog plus
// magnifier, zoom and transition settings. Files may be JSON or YAML.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"depthlens/internal/asset"
	"depthlens/internal/lens"
	"depthlens/internal/scene"
	"depthlens/pkg/colorutil"

	"gopkg.in/yaml.v3"
)

const configFile = "config.yaml"

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid config")

// Config holds the viewer configuration.
type Config struct {
	Scenes scene.Catalog `json:"scenes" yaml:"scenes"`

	// Patch sizes in primary-image pixels
	InitialPatchSize float64 `json:"initialPatchSize" yaml:"initialPatchSize"`
	MinPatchSize     float64 `json:"minPatchSize" yaml:"minPatchSize"`
	MaxPatchSize     float64 `json:"maxPatchSize" yaml:"maxPatchSize"`

	// Zoom fractions per wheel tick and per key press
	ZoomStep    float64 `json:"zoomStep" yaml:"zoomStep"`
	KeyZoomStep float64 `json:"keyZoomStep" yaml:"keyZoomStep"`

	// Loupe
	LoupeDiameter float64 `json:"loupeDiameter" yaml:"loupeDiameter"`
	LensColor     string  `json:"lensColor" yaml:"lensColor"`
	LensOpacity   float64 `json:"lensOpacity" yaml:"lensOpacity"`

	// Pointer smoothing
	SmoothingEnabled bool    `json:"smoothingEnabled" yaml:"smoothingEnabled"`
	SmoothingFactor  float64 `json:"smoothingFactor" yaml:"smoothingFactor"`

	TransitionDurationMs int `json:"transitionDurationMs" yaml:"transitionDurationMs"`

	// Layout
	ComparisonCount int     `json:"comparisonCount" yaml:"comparisonCount"`
	GridGap         float64 `json:"gridGap" yaml:"gridGap"`

	// nearest, approx, bilinear or catmullrom
	Interpolation string `json:"interpolation" yaml:"interpolation"`

	// Asset locations. AssetMap rewrites URL prefixes; remaining relative
	// URLs are joined onto AssetBase.
	AssetBase string            `json:"assetBase,omitempty" yaml:"assetBase,omitempty"`
	AssetMap  map[string]string `json:"assetMap,omitempty" yaml:"assetMap,omitempty"`

	// Reload the catalog when the file changes on disk
	WatchCatalog bool `json:"watchCatalog" yaml:"watchCatalog"`
}

// Default returns a Config with the stock settings and no scenes.
func Default() Config {
	return Config{
		InitialPatchSize:     256,
		MinPatchSize:         64,
		MaxPatchSize:         512,
		ZoomStep:             0.1,
		KeyZoomStep:          0.04,
		LoupeDiameter:        200,
		LensColor:            "#6b9ac4",
		LensOpacity:          0.15,
		SmoothingEnabled:     false,
		SmoothingFactor:      0.3,
		TransitionDurationMs: 500,
		ComparisonCount:      4,
		GridGap:              10,
		Interpolation:        "catmullrom",
	}
}

// DefaultPath returns ~/.config/depthlens/config.yaml.
func DefaultPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(configDir, "depthlens", configFile)
}

// Load reads path over the defaults. The format follows the extension:
// .json is JSON, anything else is YAML.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := cfg.unmarshal(path, data); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if cfg.AssetBase == "" {
		cfg.AssetBase = filepath.Dir(path)
	}
	cfg.ResolveAssets()
	return cfg, cfg.Validate()
}

func (c *Config) unmarshal(path string, data []byte) error {
	if isJSON(path) {
		return json.Unmarshal(data, c)
	}
	return yaml.Unmarshal(data, c)
}

// Save writes the config to path in the format implied by its extension.
func (c Config) Save(path string) error {
	var (
		data []byte
		err  error
	)
	if isJSON(path) {
		data, err = json.MarshalIndent(c, "", "  ")
	} else {
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

// Validate checks ranges and the catalog.
func (c Config) Validate() error {
	switch {
	case c.MinPatchSize <= 0:
		return fmt.Errorf("%w: minPatchSize must be positive", ErrInvalid)
	case c.MaxPatchSize < c.MinPatchSize:
		return fmt.Errorf("%w: maxPatchSize %.1f below minPatchSize %.1f", ErrInvalid, c.MaxPatchSize, c.MinPatchSize)
	case c.InitialPatchSize < c.MinPatchSize || c.InitialPatchSize > c.MaxPatchSize:
		return fmt.Errorf("%w: initialPatchSize %.1f outside [%.1f, %.1f]", ErrInvalid, c.InitialPatchSize, c.MinPatchSize, c.MaxPatchSize)
	case c.ZoomStep <= 0 || c.ZoomStep >= 1:
		return fmt.Errorf("%w: zoomStep must be in (0, 1)", ErrInvalid)
	case c.KeyZoomStep < 0 || c.KeyZoomStep >= 1:
		return fmt.Errorf("%w: keyZoomStep must be in [0, 1)", ErrInvalid)
	case c.LoupeDiameter <= 0:
		return fmt.Errorf("%w: loupeDiameter must be positive", ErrInvalid)
	case c.SmoothingFactor <= 0 || c.SmoothingFactor > 1:
		return fmt.Errorf("%w: smoothingFactor must be in (0, 1]", ErrInvalid)
	case c.TransitionDurationMs < 0:
		return fmt.Errorf("%w: transitionDurationMs is negative", ErrInvalid)
	case c.ComparisonCount < 1 || c.ComparisonCount > lens.MaxComparisons:
		return fmt.Errorf("%w: comparisonCount must be 1-%d", ErrInvalid, lens.MaxComparisons)
	case c.GridGap < 0:
		return fmt.Errorf("%w: gridGap is negative", ErrInvalid)
	}
	if _, err := colorutil.ParseHex(c.LensColor); err != nil {
		return fmt.Errorf("%w: lensColor: %v", ErrInvalid, err)
	}
	if err := c.Scenes.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// TransitionDuration returns the per-phase scene transition time.
func (c Config) TransitionDuration() time.Duration {
	return time.Duration(c.TransitionDurationMs) * time.Millisecond
}

// Lens converts to the magnifier's settings.
func (c Config) Lens() lens.Config {
	return lens.Config{
		InitialPatch:    c.InitialPatchSize,
		MinPatch:        c.MinPatchSize,
		MaxPatch:        c.MaxPatchSize,
		ZoomStep:        c.ZoomStep,
		KeyZoomStep:     c.KeyZoomStep,
		LoupeDiameter:   c.LoupeDiameter,
		Smoothing:       c.SmoothingEnabled,
		SmoothingFactor: c.SmoothingFactor,
		ComparisonCount: c.ComparisonCount,
		GridGap:         c.GridGap,
		Interpolation:   c.Interpolation,
	}
}

// ResolveAssets rewrites every asset URL in the catalog in place.
func (c *Config) ResolveAssets() {
	for i := range c.Scenes {
		s := &c.Scenes[i]
		s.PrimaryURL = c.ResolveURL(s.PrimaryURL)
		if s.Thumbnail != "" {
			s.Thumbnail = c.ResolveURL(s.Thumbnail)
		}
		for j, u := range s.ComparisonURLs {
			s.ComparisonURLs[j] = c.ResolveURL(u)
		}
	}
}

// ResolveURL applies the longest matching AssetMap prefix, then joins a
// still-relative reference onto AssetBase.
func (c Config) ResolveURL(ref string) string {
	if ref == "" {
		return ref
	}

	prefixes := make([]string, 0, len(c.AssetMap))
	for p := range c.AssetMap {
		prefixes = append(prefixes, p)
	}
	sort.Slice(prefixes, func(i, j int) bool { return len(prefixes[i]) > len(prefixes[j]) })
	for _, p := range prefixes {
		if strings.HasPrefix(ref, p) {
			ref = c.AssetMap[p] + strings.TrimPrefix(ref, p)
			break
		}
	}

	if c.AssetBase == "" || asset.IsRemote(ref) || filepath.IsAbs(ref) || strings.HasPrefix(ref, "file://") {
		return ref
	}
	if asset.IsRemote(c.AssetBase) {
		u, err := url.Parse(c.AssetBase)
		if err != nil {
			return ref
		}
		u.Path = path.Join(u.Path, ref)
		return u.String()
	}
	return filepath.Join(c.AssetBase, ref)
}
