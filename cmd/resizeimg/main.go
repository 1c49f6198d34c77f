// Command resizeimg brings depth maps and RGB frames to a common size so
// they line up under the magnifier.
package main

import (
	"flag"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	dlimage "depthlens/internal/image"
	"depthlens/pkg/colorutil"

	"github.com/disintegration/imaging"
)

func main() {
	input := flag.String("input", "", "Input image, or a directory with -dir")
	output := flag.String("o", "", "Output path (default: <input>_resized.<ext>, or <dir>/resized with -dir)")
	width := flag.Int("w", 768, "Target width")
	height := flag.Int("H", 1024, "Target height")
	modeName := flag.String("m", "resize", "Resize mode: resize (stretch), fit (pad), crop")
	dir := flag.Bool("dir", false, "Process every image in the input directory")
	background := flag.String("bg", "#ffffff", "Padding color for fit mode")
	flag.Parse()

	if *input == "" {
		fmt.Println("Usage: resizeimg -input <path> [-o <out>] [-w 768] [-H 1024] [-m resize|fit|crop] [-dir]")
		os.Exit(1)
	}

	mode, err := dlimage.ParseResizeMode(*modeName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	bg, err := colorutil.ParseHex(*background)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid -bg: %v\n", err)
		os.Exit(1)
	}

	job := resizeJob{width: *width, height: *height, mode: mode, bg: bg}

	if !*dir {
		out := *output
		if out == "" {
			ext := filepath.Ext(*input)
			out = strings.TrimSuffix(*input, ext) + "_resized" + ext
		}
		if err := job.run(*input, out); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		return
	}

	info, err := os.Stat(*input)
	if err != nil || !info.IsDir() {
		fmt.Fprintf(os.Stderr, "Error: %s is not a directory\n", *input)
		os.Exit(1)
	}
	outDir := *output
	if outDir == "" {
		outDir = filepath.Join(*input, "resized")
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create %s: %v\n", outDir, err)
		os.Exit(1)
	}

	entries, err := os.ReadDir(*input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read %s: %v\n", *input, err)
		os.Exit(1)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && dlimage.IsSupportedFormat(e.Name()) {
			files = append(files, e.Name())
		}
	}

	fmt.Printf("Found %d images\n", len(files))
	failed := 0
	for i, name := range files {
		fmt.Printf("\n[%d/%d] Processing: %s\n", i+1, len(files), name)
		if err := job.run(filepath.Join(*input, name), filepath.Join(outDir, name)); err != nil {
			fmt.Fprintf(os.Stderr, "Error processing %s: %v\n", name, err)
			failed++
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}

type resizeJob struct {
	width, height int
	mode          dlimage.ResizeMode
	bg            color.NRGBA
}

func (j resizeJob) run(in, out string) error {
	src, err := dlimage.Load(in)
	if err != nil {
		return err
	}
	fmt.Printf("Original size: %dx%d\n", src.Width(), src.Height())

	resized, err := dlimage.Resize(src.Image, j.width, j.height, j.mode, j.bg)
	if err != nil {
		return err
	}
	if err := imaging.Save(resized, out, imaging.JPEGQuality(95)); err != nil {
		return fmt.Errorf("failed to save %s: %w", out, err)
	}
	b := resized.Bounds()
	fmt.Printf("Resized to: %dx%d (%s)\n", b.Dx(), b.Dy(), j.mode)
	fmt.Printf("Saved to: %s\n", out)
	return nil
}
