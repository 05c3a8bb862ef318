package tides

import (
	"fmt"

	"github.com/raviraj-dave96/Compoundflood-road-damage/model"
	"github.com/raviraj-dave96/Compoundflood-road-damage/util"
)

var httpRequestKnownJSONWithObject = util.ReqByObjJSON

// maxLocationsPerRequest bounds the body of one POST to the tide service
var maxLocationsPerRequest = 200

// QueryMultipleTides predicts the tides for every location, splitting the
// input into batches of at most maxLocationsPerRequest. Output locations are
// in input order.
func QueryMultipleTides(context *Context, input Input) (*Output, error) {
	out := Output{Locations: make([]OutputLocation, 0, len(input.Locations))}
	for start := 0; start < len(input.Locations); start += maxLocationsPerRequest {
		end := start + maxLocationsPerRequest
		if end > len(input.Locations) {
			end = len(input.Locations)
		}
		batch, err := queryTidesBatch(context, Input{Locations: input.Locations[start:end]})
		if err != nil {
			return nil, err
		}
		if len(batch.Locations) != end-start {
			return nil, fmt.Errorf("Tide service returned %d locations for a batch of %d", len(batch.Locations), end-start)
		}
		out.Locations = append(out.Locations, batch.Locations...)
	}
	return &out, nil
}

func queryTidesBatch(context *Context, input Input) (*Output, error) {
	var out Output

	util.LogAudit(context, util.LogAuditInput{
		Actor: "anon user", Action: "POST", Actee: context.TidesURL,
		Message: fmt.Sprintf("Requesting tide information for %d locations", len(input.Locations)), Severity: util.INFO,
	})
	if _, err := httpRequestKnownJSONWithObject("POST", context.TidesURL, "", input, &out); err != nil {
		return nil, err
	}
	util.LogAudit(context, util.LogAuditInput{
		Actor: context.TidesURL, Action: "POST response", Actee: "anon user", Message: "Retrieving tide information", Severity: util.INFO,
	})

	return &out, nil
}

// AddTidesToResults does an *in-place* modification of the input detection
// results to augment them with tides data
func AddTidesToResults(context *Context, results []model.DetectionResult) error {
	if len(results) == 0 {
		return nil
	}
	basicResults := make([]model.BasicDetectionResult, len(results))
	for i, result := range results {
		basicResults[i] = result.BasicDetectionResult
	}

	input, err := InputForBasicResults(basicResults)
	if err != nil {
		return err
	}

	output, err := QueryMultipleTides(context, *input)
	if err != nil {
		return err
	}

	tidesDataArr := OutputToTidesData(*output)
	if len(tidesDataArr) != len(results) {
		return fmt.Errorf("Length mismatch between tides output and input data;\ninput(len:%d)=%v\noutput(len:%d)=%v",
			len(input.Locations), input, len(output.Locations), output,
		)
	}

	for i := range results {
		results[i].TidesData = &tidesDataArr[i]
	}

	return nil
}

// GetSingleTidesData queries the tides for one result
func GetSingleTidesData(context *Context, target model.BasicDetectionResult) (*model.TidesData, error) {
	input, err := InputForBasicResults([]model.BasicDetectionResult{target})
	if err != nil {
		return nil, err
	}
	output, err := QueryMultipleTides(context, *input)
	if err != nil {
		return nil, err
	}
	tidesDataArr := OutputToTidesData(*output)
	if len(tidesDataArr) != 1 {
		return nil, fmt.Errorf("Expected tides for 1 location, got %d", len(tidesDataArr))
	}
	return &tidesDataArr[0], nil
}
