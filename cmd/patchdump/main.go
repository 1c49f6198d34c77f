// Command patchdump renders the magnifier at every anchor of each scene and
// writes the comparison patches and the loupe as PNG files.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"depthlens/internal/app/apptest"
	"depthlens/internal/asset"
	"depthlens/internal/config"
	dlimage "depthlens/internal/image"
	"depthlens/internal/scene"
	"depthlens/internal/viewer"
	"depthlens/pkg/geometry"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", config.DefaultPath(), "Path to the scene catalog")
	outDir := flag.String("out", "patches", "Output directory")
	sceneIndex := flag.Int("scene", -1, "Scene index to render (-1 for all)")
	width := flag.Int("width", 640, "Display width of the primary image")
	patch := flag.Float64("patch", 0, "Patch size override in primary pixels")
	verbose := flag.Bool("v", false, "Verbose logging")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	cfg.SmoothingEnabled = false
	if *patch > 0 {
		cfg.InitialPatchSize = min(max(*patch, cfg.MinPatchSize), cfg.MaxPatchSize)
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create %s: %v\n", *outDir, err)
		os.Exit(1)
	}

	d := &dumper{
		sched: apptest.NewManualScheduler(),
		out:   *outDir,
		width: float64(*width),
	}
	loader := asset.NewRouter(cfg.AssetBase, asset.DefaultTimeout)
	d.viewer = viewer.New(cfg, &blockingFetcher{loader: loader, sched: d.sched}, d.sched)

	failed := 0
	for i := range cfg.Scenes {
		if *sceneIndex >= 0 && i != *sceneIndex {
			continue
		}
		n, err := d.dumpScene(i)
		if err != nil {
			log.Error().Err(err).Int("scene", i).Msg("scene skipped")
			failed++
			continue
		}
		log.Info().Int("scene", i).Str("name", cfg.Scenes[i].Name).Int("files", n).Msg("scene written")
	}
	if failed > 0 {
		os.Exit(1)
	}
}

// blockingFetcher loads on the caller and posts the completion, so a
// single Drain settles every load issued before it.
type blockingFetcher struct {
	loader asset.Loader
	sched  *apptest.ManualScheduler
}

func (f *blockingFetcher) Fetch(url string, done func(*dlimage.Source, error)) {
	ctx, cancel := context.WithTimeout(context.Background(), asset.DefaultTimeout)
	defer cancel()
	src, err := f.loader.Load(ctx, url)
	f.sched.Post(func() { done(src, err) })
}

type dumper struct {
	viewer *viewer.Viewer
	sched  *apptest.ManualScheduler
	out    string
	width  float64
}

func (d *dumper) dumpScene(i int) (int, error) {
	v := d.viewer
	v.Post(func() { v.Scenes.Load(i) })
	d.sched.Drain()

	primary := v.Scenes.Primary()
	if !primary.Ready() {
		return 0, fmt.Errorf("primary image for scene %d did not load", i)
	}
	natural := primary.Size()
	display := geometry.NewSize(d.width, d.width*natural.Height/natural.Width)
	v.Resize(display)
	d.sched.Drain()

	sc, _ := v.Scenes.Scene(i)
	anchors := sc.Anchors
	if len(anchors) == 0 {
		anchors = []scene.Anchor{{Name: "center", X: 0.5, Y: 0.5}}
	}

	written := 0
	for _, a := range anchors {
		pos := geometry.Point2D{X: a.X * display.Width, Y: a.Y * display.Height}
		v.PointerEnter(pos)
		d.sched.Drain()

		prefix := fmt.Sprintf("%02d_%s_%s", i, fileSafe(sc.Name), fileSafe(a.Name))
		for slot, vp := range v.Magnifier.Viewports() {
			if slot >= len(v.Scenes.ComparisonURLs()) {
				break
			}
			label := fmt.Sprintf("slot%d", slot)
			if slot < len(sc.Labels) && sc.Labels[slot] != "" {
				label = sc.Labels[slot]
			}
			if err := d.save(prefix+"_"+fileSafe(label)+".png", vp); err != nil {
				return written, err
			}
			written++
		}
		if err := d.save(prefix+"_loupe.png", v.Magnifier.Loupe()); err != nil {
			return written, err
		}
		written++

		v.PointerLeave()
		d.sched.Drain()
	}
	return written, nil
}

func (d *dumper) save(name string, vp *dlimage.Viewport) error {
	path := filepath.Join(d.out, name)
	if err := imaging.Save(vp.Snapshot(), path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	log.Debug().Str("path", path).Msg("wrote patch")
	return nil
}

func fileSafe(s string) string {
	if s == "" {
		return "unnamed"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '-'
	}, s)
}
