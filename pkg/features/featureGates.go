// Package features gates opt-in runtime behaviors behind environment
// variables, the same env-first mechanism the teacher used for its own
// rollout flags -- a behavior change ships off by default, gets turned on
// for early adopters via env var, and only becomes the hard default once
// it's proven out.
package features

import "os"

const (
	// All enables every feature gate at once, for CI pipelines that want
	// to exercise upcoming behavior across the board.
	All = "CLEANROOM_ALL_FEATURES"

	// FailFastByDefault makes a scenario abort its remaining steps as soon
	// as one step fails its expectation, instead of running every step to
	// completion and reporting the full set of step failures at once.
	FailFastByDefault = "CLEANROOM_FAIL_FAST"
)

var featureDefaultMap = map[string]bool{
	FailFastByDefault: false,
}

// Enabled returns if the named feature is enabled based on the current env
// and defaults.
func Enabled(feature string) bool {
	return enabledCore(feature, os.Getenv(All), os.Getenv(feature), featureDefaultMap)
}

// Extracted logic here for testing so we can modify the env and defaults easily.
func enabledCore(featureName, allEnv, featureEnv string, defaultMap map[string]bool) bool {
	// Allow features we default as true to be turned off while still relatively new so if major
	// bugs are found we have workarounds.
	if featureEnv == "false" {
		return false
	}
	return defaultMap[featureName] || allEnv == "true" || featureEnv == "true"
}
