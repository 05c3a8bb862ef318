package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"math"
	"os"
	"os/signal"
	"path/filepath"

	cli "gopkg.in/urfave/cli.v1"

	"github.com/raviraj-dave96/Compoundflood-road-damage/accuracy"
	"github.com/raviraj-dave96/Compoundflood-road-damage/db"
	"github.com/raviraj-dave96/Compoundflood-road-damage/flood"
	"github.com/raviraj-dave96/Compoundflood-road-damage/model"
	"github.com/raviraj-dave96/Compoundflood-road-damage/raster"
	"github.com/raviraj-dave96/Compoundflood-road-damage/util"
)

// detectorConfig applies the command line overrides on top of FLOOD_* settings
func detectorConfig(c *cli.Context) (flood.Config, error) {
	cfg, err := flood.ConfigFromEnv()
	if err != nil {
		return cfg, err
	}
	if c.IsSet("speckle-radius") {
		cfg.SpeckleRadius = c.Float64("speckle-radius")
	}
	if c.IsSet("fallback") {
		policy, ok := model.ParseFallbackPolicy(c.String("fallback"))
		if !ok {
			return cfg, fmt.Errorf("invalid fallback %q, expected %q or %q", c.String("fallback"), model.FallbackSkip, model.FallbackFixed)
		}
		cfg.Fallback = policy
	}
	if c.IsSet("fixed-threshold") {
		cfg.FixedThreshold = c.Float64("fixed-threshold")
	}
	if c.IsSet("workers") {
		cfg.Workers = c.Int("workers")
	}
	return cfg, cfg.Validate()
}

// scenePaths expands a sidecar or a directory of sidecars
func scenePaths(input string) ([]string, error) {
	info, err := os.Stat(input)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return flood.FindScenes(input)
	}
	return []string{input}, nil
}

func detectAction(c *cli.Context) error {
	logContext := &util.BasicLogContext{}
	input := c.Args().First()
	if input == "" {
		return cli.NewExitError("detect needs a scene sidecar or a directory of sidecars", 2)
	}

	cfg, err := detectorConfig(c)
	if err != nil {
		return cli.NewExitError(err.Error(), 2)
	}
	detector, err := flood.NewDetector(cfg)
	if err != nil {
		return cli.NewExitError(err.Error(), 2)
	}

	paths, err := scenePaths(input)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	if c.String("reference") != "" && len(paths) != 1 {
		return cli.NewExitError("--reference needs exactly one scene", 2)
	}

	outputDir := c.String("output")
	if outputDir != "" {
		if err = os.MkdirAll(outputDir, 0755); err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
	}

	var database *sql.DB
	if c.Bool("store") {
		if database, err = getDbConnectionFunc(logContext); err != nil {
			return cli.NewExitError(util.LogSimpleErr(logContext, "Could not open database connection.", err).Error(), 1)
		}
		defer database.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	failed := 0
	for _, outcome := range detector.DetectAll(ctx, paths) {
		if outcome.Err != nil {
			util.LogSimpleErr(logContext, fmt.Sprintf("Detection failed for %s", outcome.Path), outcome.Err)
			failed++
			continue
		}
		if err = reportDetection(c, outcome.Detection, outputDir, database); err != nil {
			util.LogSimpleErr(logContext, fmt.Sprintf("Could not report detection for %s", outcome.Path), err)
			failed++
		}
	}

	if failed > 0 {
		return cli.NewExitError(fmt.Sprintf("%d of %d scenes failed", failed, len(paths)), 1)
	}
	return nil
}

func reportDetection(c *cli.Context, detection *flood.Detection, outputDir string, database *sql.DB) error {
	feature, err := detection.GeoJSONFeature()
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, feature.String())

	if outputDir != "" && detection.Mask != nil {
		maskPath := filepath.Join(outputDir, detection.ID+"_water.npy")
		if err = raster.WriteNpyFile(maskPath, detection.Mask.Band("water")); err != nil {
			return err
		}
		extentPath := filepath.Join(outputDir, detection.ID+"_extent.geojson")
		if err = ioutil.WriteFile(extentPath, []byte(detection.Extent.String()), 0644); err != nil {
			return err
		}
	}
	if outputDir != "" && detection.Stats != nil {
		histogram, err := json.Marshal(detection.Stats.ReducerOutput())
		if err != nil {
			return err
		}
		if err = ioutil.WriteFile(filepath.Join(outputDir, detection.ID+"_histogram.json"), histogram, 0644); err != nil {
			return err
		}
	}

	if reference := c.String("reference"); reference != "" {
		if err = assess(c, detection, reference); err != nil {
			return err
		}
	}

	if database != nil {
		return db.StoreDetection(database, detection)
	}
	return nil
}

// assess compares the water mask with a reference mask of the same grid and
// prints the error matrix, one row per actual class (0 = land, 1 = water)
func assess(c *cli.Context, detection *flood.Detection, referencePath string) error {
	if detection.Mask == nil {
		return fmt.Errorf("scene %s was skipped, nothing to assess", detection.ID)
	}
	band, err := raster.ReadNpyFile(referencePath, "reference", detection.Mask.Transform, math.NaN())
	if err != nil {
		return err
	}
	matrix, err := accuracy.CompareMasks(raster.MaskFromBand(band), detection.Mask, detection.Coverage)
	if err != nil {
		return err
	}
	w := c.App.Writer
	fmt.Fprintf(w, "accuracy=%.4f kappa=%.4f samples=%.0f\n", matrix.Accuracy(), matrix.Kappa(), matrix.Total())
	for class, row := range matrix.Rows() {
		fmt.Fprintf(w, "actual=%d predicted=%.0f\n", class, row)
	}
	fmt.Fprintf(w, "producers=%.4f consumers=%.4f\n", matrix.ProducersAccuracy(), matrix.ConsumersAccuracy())
	return nil
}
