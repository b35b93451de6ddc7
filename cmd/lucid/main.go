// Package main provides the lucid CLI: it lists the layers and units of
// the built-in demo encoder and generates activation-maximization images
// for them, singly or in batch.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lucid-ml/lucid/autodiff"
	"github.com/lucid-ml/lucid/backend/cpu"
	"github.com/lucid-ml/lucid/vision"
)

func main() {
	listLayers := flag.Bool("list-layers", false, "List all available layers and exit")
	layer := flag.String("layer", "", "Layer path (e.g., 'visual.conv2')")
	unit := flag.Int("unit", -1, "Unit index (-1 = mean over the layer's output axis)")
	listUnits := flag.Bool("units", false, "List units in the selected layer and exit")
	output := flag.String("output", "generated_image.png", "Output image path")
	size := flag.Int("size", 224, "Image size")
	iterations := flag.Int("iterations", 1000, "Number of optimization iterations")
	lr := flag.Float64("lr", 0.01, "Learning rate")
	blurEvery := flag.Int("blur-every", 10, "Apply blur every N iterations")
	seed := flag.Int64("seed", 42, "Random seed (batch mode offsets it by the unit index)")
	batch := flag.String("batch", "", "Batch unit range as start:end:step (e.g., '0:64:8')")
	outputDir := flag.String("output-dir", "generated_images", "Output directory for batch mode")
	noSkip := flag.Bool("no-skip", false, "Batch mode: regenerate even if files exist")
	flag.Parse()

	unitSet := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "unit" {
			unitSet = true
		}
	})

	backend := autodiff.New(cpu.New())
	model := newDemoEncoder(backend)
	viz := vision.NewVisualizer(model, backend)
	dir := viz.Directory()

	if *listLayers {
		fmt.Println("Available layers:")
		for _, path := range dir.Layers() {
			info, _ := dir.Describe(path)
			fmt.Printf("  %s\n", path)
			fmt.Printf("    kind: %s, parameters: %d\n", info.Kind, info.Parameters)
		}
		return
	}

	if *layer == "" {
		fail("the -layer flag is required (use -list-layers to see available layers)")
	}
	if _, ok := dir.Describe(*layer); !ok {
		fail("layer %q not found (use -list-layers to see available layers)", *layer)
	}

	unitNames, err := dir.Units(*layer)
	if err != nil {
		fail("%v", err)
	}

	if *listUnits {
		fmt.Printf("Units in layer %q:\n", *layer)
		for i, name := range unitNames {
			fmt.Printf("  %4d: %s\n", i, name)
		}
		return
	}

	cfg := vision.Config{
		ImageSize:    *size,
		Iterations:   *iterations,
		LearningRate: float32(*lr),
		BlurEvery:    *blurEvery,
		Seed:         *seed,
	}

	if *batch != "" {
		if err := runBatch(viz, *layer, unitNames, *batch, cfg, *outputDir, !*noSkip); err != nil {
			fail("%v", err)
		}
		return
	}

	if !unitSet {
		fail("the -unit flag is required (use -units to see available units, or -batch for a range)")
	}
	if *unit >= len(unitNames) {
		fail("unit index %d out of range (0-%d)", *unit, len(unitNames)-1)
	}

	unitName := "mean"
	if *unit >= 0 {
		unitName = unitNames[*unit]
	}
	fmt.Println("Generating visualization...")
	fmt.Printf("  Layer: %s\n", *layer)
	fmt.Printf("  Unit: %d (%s)\n", *unit, unitName)
	fmt.Printf("  Size: %dx%d\n", *size, *size)
	fmt.Printf("  Iterations: %d\n", *iterations)
	fmt.Printf("  Learning rate: %g\n", *lr)

	raster, err := viz.GenerateImage(*layer, *unit, cfg, printProgress)
	fmt.Println()
	if err != nil {
		fail("%v", translate(err))
	}

	if err := savePNG(*output, raster); err != nil {
		fail("saving image: %v", err)
	}
	fmt.Printf("Image saved to %s\n", *output)
}

// runBatch generates one image per unit in the start:end:step range, the
// seed offset by the unit index so each unit gets a distinct but
// reproducible starting image. Existing files are skipped unless told
// otherwise, and a metadata summary is written next to the images.
func runBatch(viz *vision.Visualizer[*cpu.Backend], layer string, unitNames []string, spec string, cfg vision.Config, outputDir string, skipExisting bool) error {
	start, end, step, err := parseRange(spec)
	if err != nil {
		return err
	}
	if end > len(unitNames) {
		end = len(unitNames)
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return err
	}

	var indices []int
	for i := start; i < end; i += step {
		indices = append(indices, i)
	}
	fmt.Printf("Layer %q has %d units; visualizing %d of them (%d-%d step %d)\n",
		layer, len(unitNames), len(indices), start, end, step)

	meta := newBatchMetadata(layer, cfg)
	prefix := strings.ReplaceAll(layer, ".", "_")

	for n, idx := range indices {
		filename := fmt.Sprintf("%s_unit_%d.png", prefix, idx)
		path := filepath.Join(outputDir, filename)

		if skipExisting {
			if _, err := os.Stat(path); err == nil {
				fmt.Printf("[%d/%d] Skipping unit %d (%s): already exists\n", n+1, len(indices), idx, unitNames[idx])
				meta.record(idx, unitNames[idx], "skipped", filename, nil)
				continue
			}
		}

		fmt.Printf("[%d/%d] Generating unit %d (%s)...\n", n+1, len(indices), idx, unitNames[idx])

		unitCfg := cfg
		unitCfg.Seed = cfg.Seed + int64(idx)

		raster, err := viz.GenerateImage(layer, idx, unitCfg, printProgress)
		fmt.Println()
		if err != nil {
			fmt.Printf("  error: %v\n", translate(err))
			meta.record(idx, unitNames[idx], "error", "", err)
			continue
		}

		if err := savePNG(path, raster); err != nil {
			meta.record(idx, unitNames[idx], "error", "", err)
			return err
		}
		fmt.Printf("  saved to %s\n", filename)
		meta.record(idx, unitNames[idx], "success", filename, nil)
	}

	metaPath := filepath.Join(outputDir, prefix+"_metadata.json")
	if err := meta.write(metaPath); err != nil {
		return err
	}
	fmt.Printf("Batch complete; metadata saved to %s\n", metaPath)
	return nil
}

func printProgress(iteration, total int, activation float32) {
	const barLength = 40
	filled := barLength * iteration / total
	bar := strings.Repeat("#", filled) + strings.Repeat("-", barLength-filled)
	fmt.Printf("\r  [%s] %.1f%% | activation: %.4f", bar, float64(iteration)/float64(total)*100, activation)
}

// parseRange parses "start:end:step" into its three components.
func parseRange(spec string) (start, end, step int, err error) {
	parts := strings.Split(spec, ":")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("batch range %q: want start:end:step", spec)
	}
	if _, err := fmt.Sscanf(spec, "%d:%d:%d", &start, &end, &step); err != nil {
		return 0, 0, 0, fmt.Errorf("batch range %q: %v", spec, err)
	}
	if start < 0 || end <= start || step <= 0 {
		return 0, 0, 0, fmt.Errorf("batch range %q: need 0 <= start < end and step > 0", spec)
	}
	return start, end, step, nil
}

// translate maps engine sentinels onto user-facing messages.
func translate(err error) error {
	switch {
	case errors.Is(err, vision.ErrLayerNotFound):
		return fmt.Errorf("%v (use -list-layers to see available layers)", err)
	case errors.Is(err, vision.ErrInvalidParameter):
		return fmt.Errorf("%v (check -size, -iterations, -lr, -blur-every and -unit)", err)
	default:
		return err
	}
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}
