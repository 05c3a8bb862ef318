package detection

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"net/http"

	"github.com/raviraj-dave96/Compoundflood-road-damage/otsu"
	"github.com/raviraj-dave96/Compoundflood-road-damage/util"
)

const maxHistogramBodyBytes = 1 << 20

// ThresholdResponse is the body returned by the OtsuHandler
type ThresholdResponse struct {
	Threshold   float64 `json:"threshold"`
	BucketIndex int     `json:"bucketIndex"`
	Variance    float64 `json:"variance"`
}

// OtsuHandler is a handler for /otsu
// @Title otsuHandler
// @Description picks the Otsu threshold of a histogram reducer output
// @Accept  json
// @Param   body  body  otsu.ReducerOutput  true  "Histogram as reducer arrays, optionally nested under a *_histogram key"
// @Success 200 {object}  ThresholdResponse
// @Failure 400 {object}  string
// @Failure 422 {object}  string
// @Router /otsu [post]
type OtsuHandler struct {
	Context Context
}

// NewOtsuHandler creates a new handler; it needs no database
func NewOtsuHandler() *OtsuHandler {
	return &OtsuHandler{}
}

func (h OtsuHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := ioutil.ReadAll(http.MaxBytesReader(w, r.Body, maxHistogramBodyBytes))
	if err != nil {
		thresholdRequests.WithLabelValues("invalid").Inc()
		message := fmt.Sprintf("Could not read request body: %v", err)
		util.LogSimpleErr(&h.Context, message, err)
		util.HTTPError(r, w, &h.Context, message, http.StatusBadRequest)
		return
	}

	histogram, err := otsu.ParseHistogram(body)
	if err != nil {
		thresholdRequests.WithLabelValues("invalid").Inc()
		message := fmt.Sprintf("Invalid histogram: %v", err)
		util.LogSimpleErr(&h.Context, message, err)
		util.HTTPError(r, w, &h.Context, message, http.StatusBadRequest)
		return
	}
	thresholdBuckets.Observe(float64(len(histogram)))

	split, err := otsu.Search(histogram)
	var degenerate *otsu.DegenerateInputError
	if errors.As(err, &degenerate) {
		thresholdRequests.WithLabelValues("degenerate").Inc()
		util.LogInfo(&h.Context, degenerate.Error())
		util.HTTPError(r, w, &h.Context, degenerate.Error(), http.StatusUnprocessableEntity)
		return
	}
	if err != nil {
		thresholdRequests.WithLabelValues("invalid").Inc()
		message := fmt.Sprintf("Error computing threshold: %v", err)
		util.LogSimpleErr(&h.Context, message, err)
		util.HTTPError(r, w, &h.Context, message, http.StatusInternalServerError)
		return
	}

	thresholdRequests.WithLabelValues("ok").Inc()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ThresholdResponse{
		Threshold:   split.Threshold,
		BucketIndex: split.Index,
		Variance:    split.Variance,
	})
}
