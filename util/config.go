// Copyright 2016, RadiantBlue Technologies, Inc.
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

package util

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Environment variables
const (
	DOMAIN                 = "DOMAIN"
	PORT                   = "PORT"
	BF_TIDE_PREDICTION_URL = "BF_TIDE_PREDICTION_URL"
	FLOOD_SPECKLE_RADIUS   = "FLOOD_SPECKLE_RADIUS"
	FLOOD_MAX_BUCKETS      = "FLOOD_MAX_BUCKETS"
	FLOOD_MIN_BUCKET_WIDTH = "FLOOD_MIN_BUCKET_WIDTH"
	FLOOD_FALLBACK         = "FLOOD_FALLBACK"
	FLOOD_FIXED_THRESHOLD  = "FLOOD_FIXED_THRESHOLD"
	FLOOD_WORKERS          = "FLOOD_WORKERS"
	INGEST_DIRECTORY       = "INGEST_DIRECTORY"
	INGEST_FREQUENCY       = "INGEST_FREQUENCY"
	LOG_LEVEL              = "LOG_LEVEL"
)

const defaultTidesURL = "https://bf-tideprediction.int.geointservices.io/tides"

// GetDomain returns a string for the DOMAIN environment variable
func GetDomain() string {
	domain, ok := os.LookupEnv(DOMAIN)
	if !ok {
		LogAlert(&BasicLogContext{}, "Didn't get domain from environment.")
	}
	return domain
}

// GetPortStr returns the listen address built from the PORT environment variable
func GetPortStr() string {
	if port, ok := os.LookupEnv(PORT); ok {
		return ":" + port
	}
	return ":8080"
}

// GetTidesURL returns a string for the BF_TIDE_PREDICTION_URL
// environment variable or generates one if needed
func GetTidesURL() string {
	tidesURL, ok := os.LookupEnv(BF_TIDE_PREDICTION_URL)
	if !ok {
		LogInfo(&BasicLogContext{}, "Did not get explicit Tide Prediction URL from the environment. Using implied URL based on domain.")
		domain := GetDomain()
		if len(domain) == 0 {
			LogAlert(&BasicLogContext{}, "No domain in environment. Using default tides URL: "+defaultTidesURL)
			tidesURL = defaultTidesURL
		} else {
			tidesURL = fmt.Sprintf("https://bf-tideprediction.%s/tides", domain)
		}
	}
	return tidesURL
}

// GetIngestDirectory returns the directory scanned by the scene importer
func GetIngestDirectory() string {
	return os.Getenv(INGEST_DIRECTORY)
}

// GetEnvString returns the named variable, or def when it is unset or empty
func GetEnvString(name string, def string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return def
}

// GetEnvFloat parses the named variable as a float64. Unset variables yield def;
// unparseable ones are reported and also yield def.
func GetEnvFloat(name string, def float64) float64 {
	raw, ok := os.LookupEnv(name)
	if !ok || raw == "" {
		return def
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		LogAlert(&BasicLogContext{}, fmt.Sprintf("Invalid value for %s: %q; using default %v", name, raw, def))
		return def
	}
	return value
}

// GetEnvInt parses the named variable as an int, see GetEnvFloat
func GetEnvInt(name string, def int) int {
	raw, ok := os.LookupEnv(name)
	if !ok || raw == "" {
		return def
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		LogAlert(&BasicLogContext{}, fmt.Sprintf("Invalid value for %s: %q; using default %v", name, raw, def))
		return def
	}
	return value
}

// GetEnvDuration parses the named variable as a time.Duration. Values shorter
// than min are replaced by def.
func GetEnvDuration(name string, def time.Duration, min time.Duration) time.Duration {
	duration, err := time.ParseDuration(os.Getenv(name))
	if err != nil || duration < min {
		if raw := os.Getenv(name); raw != "" {
			LogAlert(&BasicLogContext{}, fmt.Sprintf("Specified duration %q for %s is invalid or too small. Setting to default %v.", raw, name, def))
		}
		return def
	}
	return duration
}
