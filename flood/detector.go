// Package flood detects surface water in SAR backscatter scenes by
// thresholding a speckle-filtered band with Otsu's method
package flood

import (
	"context"
	"errors"
	"fmt"

	"github.com/raviraj-dave96/Compoundflood-road-damage/model"
	"github.com/raviraj-dave96/Compoundflood-road-damage/otsu"
	"github.com/raviraj-dave96/Compoundflood-road-damage/raster"
	"github.com/raviraj-dave96/Compoundflood-road-damage/util"
	"github.com/raviraj-dave96/Compoundflood-road-damage/vectorize"
)

// Detection is the outcome of one scene. Mask holds only the water class,
// Coverage is true wherever the filtered band had data inside the region.
// Both are nil when the scene was skipped, Stats is nil when no histogram
// could be built.
type Detection struct {
	model.DetectionResult
	Mask     *raster.Mask
	Coverage *raster.Mask
	Stats    *raster.RegionStats
}

// Detector runs the water detection pipeline
type Detector struct {
	Config  Config
	Context util.LogContext
}

// NewDetector validates cfg and returns a Detector logging under a fresh session
func NewDetector(cfg Config) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Detector{Config: cfg, Context: &util.BasicLogContext{}}, nil
}

// Detect filters speckle, builds the histogram over the scene's region,
// picks the Otsu threshold and classifies pixels below it as water.
//
// When the histogram cannot be thresholded the configured fallback decides:
// skip returns a result with no mask, fixed classifies with FixedThreshold.
func (d *Detector) Detect(ctx context.Context, scene *Scene) (*Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	band := scene.Band
	if d.Config.SpeckleRadius > 0 {
		filtered, err := band.FocalMedian(band.Name+"_Filtered", d.Config.SpeckleRadius)
		if err != nil {
			return nil, fmt.Errorf("scene %s: %w", scene.ID, err)
		}
		band = filtered
	}

	var region *raster.Mask
	if scene.Region != nil {
		rows, cols := band.Dims()
		var err error
		if region, err = raster.RegionMask(scene.Region, rows, cols, band.Transform); err != nil {
			return nil, fmt.Errorf("scene %s: %w", scene.ID, err)
		}
	}

	detection := &Detection{DetectionResult: model.DetectionResult{
		BasicDetectionResult: model.BasicDetectionResult{
			ID:           scene.ID,
			Geometry:     scene.Footprint(),
			AcquiredDate: scene.Acquired,
			SensorName:   scene.Sensor,
			Polarisation: scene.Polarisation,
		},
	}}

	threshold, err := d.threshold(band, region, detection)
	var degenerate *otsu.DegenerateInputError
	switch {
	case err == nil:
	case errors.As(err, &degenerate):
		util.LogAlert(d.Context, fmt.Sprintf("Scene %s cannot be thresholded (%s), applying fallback %q", scene.ID, degenerate.Reason, d.Config.Fallback))
		if d.Config.Fallback == model.FallbackSkip {
			detection.Fallback = model.FallbackSkip
			return detection, nil
		}
		detection.Fallback = model.FallbackFixed
		threshold = d.Config.FixedThreshold
	default:
		return nil, fmt.Errorf("scene %s: %w", scene.ID, err)
	}

	mask := raster.ClassifyBelow(band, threshold)
	coverage := raster.DataMask(band)
	if region != nil {
		mask = mask.Clip(region)
		coverage = coverage.And(region)
	}
	water, _ := mask.Counts()
	valid, _ := coverage.Counts()
	detection.Mask = mask
	detection.Coverage = coverage
	detection.Threshold = threshold
	detection.WaterPixels = water
	detection.ValidPixels = valid
	detection.WaterArea = float64(water) * band.Transform.PixelArea()
	detection.Extent = vectorize.Polygons(mask)

	util.LogInfo(d.Context, fmt.Sprintf("Scene %s: threshold %v, %d of %d valid pixels are water", scene.ID, threshold, water, valid))
	return detection, nil
}

// threshold reduces the band and runs Otsu. An empty region is reported as
// degenerate input so the fallback policy applies to it as well.
func (d *Detector) threshold(band *raster.Band, region *raster.Mask, detection *Detection) (float64, error) {
	stats, err := raster.ReduceHistogram(band, region, d.Config.Histogram)
	if err == raster.ErrEmptyRegion {
		return 0, &otsu.DegenerateInputError{Reason: err.Error()}
	}
	if err != nil {
		return 0, err
	}
	detection.Stats = stats
	return otsu.Threshold(stats.Histogram)
}
