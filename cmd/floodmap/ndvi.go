package main

import (
	"fmt"
	"math"

	cli "gopkg.in/urfave/cli.v1"

	"github.com/raviraj-dave96/Compoundflood-road-damage/raster"
)

// Optical sensors whose QA band ndvi knows how to read
const (
	sensorLandsat8  = "landsat8"
	sensorSentinel2 = "sentinel2"
)

//ndviAction computes a cloud-masked NDVI from NIR and red surface
//reflectance bands and writes it as .npy
func ndviAction(c *cli.Context) error {
	if c.NArg() != 2 {
		return cli.NewExitError("ndvi needs a NIR band and a red band", 2)
	}
	output := c.String("output")
	if output == "" {
		return cli.NewExitError("ndvi needs --output", 2)
	}
	pixelSize := c.Float64("pixel-size")
	if pixelSize <= 0 {
		return cli.NewExitError(fmt.Sprintf("--pixel-size must be positive, got %v", pixelSize), 2)
	}
	transform := raster.GeoTransform{0, pixelSize, 0, 0, 0, -pixelSize}
	noData := c.Float64("nodata")

	nir, err := raster.ReadNpyFile(c.Args().Get(0), "NIR", transform, noData)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	red, err := raster.ReadNpyFile(c.Args().Get(1), "red", transform, noData)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	if qaPath := c.String("qa"); qaPath != "" {
		qa, err := raster.ReadNpyFile(qaPath, "QA", transform, math.NaN())
		if err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
		if nir, red, err = maskClouds(c.String("sensor"), nir, red, qa); err != nil {
			return cli.NewExitError(err.Error(), 2)
		}
	}

	nir = nir.Scale("NIR", raster.ReflectanceScale)
	red = red.Scale("red", raster.ReflectanceScale)
	ndvi, err := raster.NormalizedDifference("NDVI", nir, red)
	if err != nil {
		return cli.NewExitError(err.Error(), 2)
	}
	if radius := c.Float64("smooth"); radius > 0 {
		if ndvi, err = ndvi.FocalMean("NDVI_smoothed", radius); err != nil {
			return cli.NewExitError(err.Error(), 2)
		}
	}

	if err = raster.WriteNpyFile(output, ndvi); err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	rows, cols := ndvi.Dims()
	fmt.Fprintf(c.App.Writer, "%s: %d of %d pixels valid\n", output, ndvi.ValidCount(), rows*cols)
	return nil
}

func maskClouds(sensor string, nir, red, qa *raster.Band) (*raster.Band, *raster.Band, error) {
	mask := raster.MaskLandsat8QA
	switch sensor {
	case sensorLandsat8:
	case sensorSentinel2:
		mask = raster.MaskSentinel2QA60
	default:
		return nil, nil, fmt.Errorf("unknown sensor %q, expected %q or %q", sensor, sensorLandsat8, sensorSentinel2)
	}
	maskedNIR, err := mask(nir, qa)
	if err != nil {
		return nil, nil, err
	}
	maskedRed, err := mask(red, qa)
	if err != nil {
		return nil, nil, err
	}
	return maskedNIR, maskedRed, nil
}
