package model

// FallbackPolicy says what a detection does when the histogram cannot be thresholded
type FallbackPolicy string

const (
	// FallbackNone marks a result whose threshold came from Otsu's method
	FallbackNone FallbackPolicy = ""
	// FallbackSkip leaves the scene without a water mask
	FallbackSkip FallbackPolicy = "skip"
	// FallbackFixed classifies the scene with a configured threshold
	FallbackFixed FallbackPolicy = "fixed"
)

// ParseFallbackPolicy converts a config string into a policy. Only skip and
// fixed can be configured.
func ParseFallbackPolicy(s string) (FallbackPolicy, bool) {
	switch FallbackPolicy(s) {
	case FallbackSkip, FallbackFixed:
		return FallbackPolicy(s), true
	}
	return FallbackNone, false
}
