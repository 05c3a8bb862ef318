package flood

import (
	"fmt"

	"github.com/raviraj-dave96/Compoundflood-road-damage/model"
	"github.com/raviraj-dave96/Compoundflood-road-damage/raster"
	"github.com/raviraj-dave96/Compoundflood-road-damage/util"
)

// Defaults for the flood workflow
const (
	// DefaultSpeckleRadius is the focal median radius in metres
	DefaultSpeckleRadius = 100.0
	// DefaultFixedThreshold is a VH backscatter threshold in dB
	DefaultFixedThreshold = -16.0
	DefaultWorkers        = 4
)

// Config controls a Detector
type Config struct {
	// SpeckleRadius in metres; zero disables the speckle filter
	SpeckleRadius  float64
	Histogram      raster.HistogramOptions
	Fallback       model.FallbackPolicy
	FixedThreshold float64
	Workers        int
}

// DefaultConfig returns the configuration used when nothing is overridden
func DefaultConfig() Config {
	return Config{
		SpeckleRadius: DefaultSpeckleRadius,
		Histogram: raster.HistogramOptions{
			MaxBuckets:     raster.DefaultMaxBuckets,
			MinBucketWidth: raster.DefaultMinBucketWidth,
		},
		Fallback:       model.FallbackSkip,
		FixedThreshold: DefaultFixedThreshold,
		Workers:        DefaultWorkers,
	}
}

// ConfigFromEnv reads the FLOOD_* environment variables over DefaultConfig
func ConfigFromEnv() (Config, error) {
	def := DefaultConfig()
	cfg := Config{
		SpeckleRadius: util.GetEnvFloat(util.FLOOD_SPECKLE_RADIUS, def.SpeckleRadius),
		Histogram: raster.HistogramOptions{
			MaxBuckets:     util.GetEnvInt(util.FLOOD_MAX_BUCKETS, def.Histogram.MaxBuckets),
			MinBucketWidth: util.GetEnvFloat(util.FLOOD_MIN_BUCKET_WIDTH, def.Histogram.MinBucketWidth),
		},
		FixedThreshold: util.GetEnvFloat(util.FLOOD_FIXED_THRESHOLD, def.FixedThreshold),
		Workers:        util.GetEnvInt(util.FLOOD_WORKERS, def.Workers),
	}
	fallback := util.GetEnvString(util.FLOOD_FALLBACK, string(def.Fallback))
	policy, ok := model.ParseFallbackPolicy(fallback)
	if !ok {
		return cfg, fmt.Errorf("invalid %s %q, expected %q or %q", util.FLOOD_FALLBACK, fallback, model.FallbackSkip, model.FallbackFixed)
	}
	cfg.Fallback = policy
	return cfg, cfg.Validate()
}

// Validate checks the configuration is usable
func (c Config) Validate() error {
	if c.SpeckleRadius < 0 {
		return fmt.Errorf("speckle radius must not be negative, got %v", c.SpeckleRadius)
	}
	if c.Histogram.MaxBuckets <= 0 {
		return fmt.Errorf("max buckets must be positive, got %d", c.Histogram.MaxBuckets)
	}
	if c.Histogram.MinBucketWidth < 0 {
		return fmt.Errorf("min bucket width must not be negative, got %v", c.Histogram.MinBucketWidth)
	}
	if _, ok := model.ParseFallbackPolicy(string(c.Fallback)); !ok {
		return fmt.Errorf("unknown fallback policy %q", c.Fallback)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	return nil
}
