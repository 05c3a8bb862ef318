package main

import (
	"encoding/json"
	"errors"
	"io"
	"io/ioutil"
	"os"

	cli "gopkg.in/urfave/cli.v1"

	"github.com/raviraj-dave96/Compoundflood-road-damage/detection"
	"github.com/raviraj-dave96/Compoundflood-road-damage/otsu"
)

var stdin io.Reader = os.Stdin

type thresholdOutput struct {
	detection.ThresholdResponse
	Fallback string `json:"fallback,omitempty"`
}

//thresholdAction reads a histogram reducer output from a file, or stdin when
//the argument is missing or "-", and prints its Otsu threshold as JSON
func thresholdAction(c *cli.Context) error {
	var data []byte
	var err error
	if path := c.Args().First(); path != "" && path != "-" {
		data, err = ioutil.ReadFile(path)
	} else {
		data, err = ioutil.ReadAll(stdin)
	}
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	histogram, err := otsu.ParseHistogram(data)
	if err != nil {
		return cli.NewExitError("invalid histogram: "+err.Error(), 2)
	}

	var out thresholdOutput
	split, err := otsu.Search(histogram)
	var degenerate *otsu.DegenerateInputError
	switch {
	case errors.As(err, &degenerate) && c.IsSet("fixed-threshold"):
		out.Threshold = c.Float64("fixed-threshold")
		out.BucketIndex = -1
		out.Fallback = "fixed"
	case err != nil:
		return cli.NewExitError(err.Error(), 3)
	default:
		out.Threshold = split.Threshold
		out.BucketIndex = split.Index
		out.Variance = split.Variance
	}

	encoder := json.NewEncoder(c.App.Writer)
	return encoder.Encode(out)
}
