// Copyright 2018, RadiantBlue Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"

	cli "gopkg.in/urfave/cli.v1"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

var detectionFlags = []cli.Flag{
	cli.Float64Flag{
		Name:  "speckle-radius",
		Usage: "Focal median radius in metres, 0 disables the filter (default from FLOOD_SPECKLE_RADIUS)",
	},
	cli.StringFlag{
		Name:  "fallback",
		Usage: "What to do with scenes that cannot be thresholded: skip or fixed (default from FLOOD_FALLBACK)",
	},
	cli.Float64Flag{
		Name:  "fixed-threshold",
		Usage: "Threshold in dB used by the fixed fallback (default from FLOOD_FIXED_THRESHOLD)",
	},
}

var commands = cli.Commands{
	cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Launch the floodmap webserver",
		Action:  serveAction,
	},
	cli.Command{
		Name:    "version",
		Aliases: []string{"v"},
		Usage:   "Print the version number of the floodmap CLI",
		Action:  versionAction,
	},
	cli.Command{
		Name:      "detect",
		Aliases:   []string{"d"},
		Usage:     "Detect flood water in a scene sidecar or a directory of them",
		ArgsUsage: "<scene.json|directory>",
		Action:    detectAction,
		Flags: append([]cli.Flag{
			cli.StringFlag{Name: "output, o", Usage: "Directory receiving <id>_water.npy masks, <id>_extent.geojson polygons and <id>_histogram.json reducer outputs"},
			cli.StringFlag{Name: "reference, r", Usage: "Reference water mask (.npy, 1/0/NaN) to assess a single scene against"},
			cli.BoolFlag{Name: "store", Usage: "Store the detections in the database"},
			cli.IntFlag{Name: "workers, w", Usage: "Number of scenes processed concurrently (default from FLOOD_WORKERS)"},
		}, detectionFlags...),
	},
	cli.Command{
		Name:      "threshold",
		Aliases:   []string{"t"},
		Usage:     "Print the Otsu threshold of a histogram reducer output",
		ArgsUsage: "[histogram.json|-]",
		Action:    thresholdAction,
		Flags: []cli.Flag{
			cli.Float64Flag{Name: "fixed-threshold", Usage: "Print this threshold instead of failing when the histogram is degenerate"},
		},
	},
	cli.Command{
		Name:      "ndvi",
		Aliases:   []string{"n"},
		Usage:     "Compute a cloud-masked NDVI from NIR and red surface reflectance bands",
		ArgsUsage: "<nir.npy> <red.npy>",
		Action:    ndviAction,
		Flags: []cli.Flag{
			cli.StringFlag{Name: "output, o", Usage: "NDVI .npy file to write"},
			cli.StringFlag{Name: "qa", Usage: "QA band (.npy) flagging clouds; pixel_qa for landsat8, QA60 for sentinel2"},
			cli.StringFlag{Name: "sensor", Value: sensorLandsat8, Usage: "Sensor of the QA band: landsat8 or sentinel2"},
			cli.Float64Flag{Name: "nodata", Value: -9999, Usage: "No-data value of the reflectance bands"},
			cli.Float64Flag{Name: "pixel-size", Value: 30, Usage: "Pixel width of the bands in metres"},
			cli.Float64Flag{Name: "smooth", Usage: "Focal mean radius in metres applied to the NDVI, 0 disables it"},
		},
	},
	cli.Command{
		Name:    "ingest",
		Aliases: []string{"i"},
		Usage:   "Detect and store the scenes in INGEST_DIRECTORY on a schedule",
		Action:  ingestAction,
		Flags: []cli.Flag{
			cli.BoolFlag{Name: "once", Usage: "Run a single ingest job and exit"},
		},
	},
	cli.Command{
		Name:    "migrate",
		Aliases: []string{"m"},
		Usage:   "Update database schema",
		Action:  migrateDatabaseAction,
	},
}

func versionAction(c *cli.Context) {
	fmt.Fprintln(c.App.Writer, version)
}

func createCliApp() (app *cli.App) {
	app = cli.NewApp()
	app.Name = "floodmap"
	app.Usage = "Map flood water in SAR backscatter scenes"
	app.Version = version
	app.Commands = commands
	return
}
