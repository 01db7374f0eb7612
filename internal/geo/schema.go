package geo

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/cases"
)

// Cable metadata keys. Every cable feature carries all of them.
const (
	KeyBuriedDepth         = "Buried Depth"
	KeyCategory            = "Category of Cable"
	KeyCondition           = "Condition"
	KeyNameLanguage        = "[Feature Name]: Language"
	KeyName                = "[Feature Name]: Name"
	KeyNameUsage           = "[Feature Name]: Name Usage"
	KeyDateEnd             = "[Fixed Date Range]: Date End"
	KeyDateStart           = "[Fixed Date Range]: Date Start"
	KeyStatus              = "Status"
	KeyScaleMinimum        = "Scale Minimum"
	KeyFileLocator         = "[Information]: File Locator"
	KeyFileReference       = "[Information]: File Reference"
	KeyHeadline            = "[Information]: Headline"
	KeyInfoLanguage        = "[Information]: Language"
	KeyInfoText            = "[Information]: Text"
	KeyComponentOf         = "Feature Association: Component of"
	KeyUpdates             = "Feature Association: Updates"
	KeyPositions           = "Feature Association: Positions"
	KeyProvidesInformation = "Feature Association: Provides Information"
)

// MetadataKeys lists the fixed cable metadata schema in display order.
var MetadataKeys = []string{
	KeyBuriedDepth,
	KeyCategory,
	KeyCondition,
	KeyNameLanguage,
	KeyName,
	KeyNameUsage,
	KeyDateEnd,
	KeyDateStart,
	KeyStatus,
	KeyScaleMinimum,
	KeyFileLocator,
	KeyFileReference,
	KeyHeadline,
	KeyInfoLanguage,
	KeyInfoText,
	KeyComponentOf,
	KeyUpdates,
	KeyPositions,
	KeyProvidesInformation,
}

// Standard S-57 style codes accepted by the map UI.
var (
	CategoryCodes  = []string{"1", "6", "7", "9", "10", "Unknown"}
	ConditionCodes = []string{"1", "5", "Unknown"}
	StatusCodes    = []string{"1", "4", "13", "18", "Unknown"}
)

func isMetadataKey(key string) bool {
	return slices.Contains(MetadataKeys, key)
}

// Advisories lists non-blocking warnings about missing or non-standard
// coded values on a cable feature.
func Advisories(f Feature) []string {
	checks := []struct {
		key   string
		codes []string
	}{
		{KeyCategory, CategoryCodes},
		{KeyCondition, ConditionCodes},
		{KeyStatus, StatusCodes},
	}

	var out []string
	for _, c := range checks {
		v := f.Property(c.key)
		switch {
		case v == "":
			out = append(out, fmt.Sprintf("%s is missing", c.key))
		case !slices.Contains(c.codes, v):
			out = append(out, fmt.Sprintf("%s %q is not a standard value", c.key, v))
		}
	}
	return out
}

// foldName normalizes a cable name for case-insensitive comparison.
// A Caser holds state, so one is created per call.
func foldName(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}
