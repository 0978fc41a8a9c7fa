package models

import "fmt"

// AgeGroup is one ordered preference bucket. Values are stored on the
// profile as the group's Value string.
type AgeGroup struct {
	Value string
	Label string
	Min   int
	Max   int
}

// DetailedAgeGroups lists every selectable bucket in ascending order.
var DetailedAgeGroups = []AgeGroup{
	{Value: "10-under", Label: "under 20", Min: 0, Max: 19},
	{Value: "20-early", Label: "early 20s (20-23)", Min: 20, Max: 23},
	{Value: "20-mid", Label: "mid 20s (24-27)", Min: 24, Max: 27},
	{Value: "20-late", Label: "late 20s (28-29)", Min: 28, Max: 29},
	{Value: "30-early", Label: "early 30s (30-33)", Min: 30, Max: 33},
	{Value: "30-mid", Label: "mid 30s (34-37)", Min: 34, Max: 37},
	{Value: "30-late", Label: "late 30s (38-39)", Min: 38, Max: 39},
	{Value: "40-early", Label: "early 40s (40-43)", Min: 40, Max: 43},
	{Value: "40-mid", Label: "mid 40s (44-47)", Min: 44, Max: 47},
	{Value: "40-late", Label: "late 40s (48-49)", Min: 48, Max: 49},
	{Value: "50-early", Label: "early 50s (50-53)", Min: 50, Max: 53},
	{Value: "50-mid", Label: "mid 50s (54-57)", Min: 54, Max: 57},
	{Value: "50-late", Label: "late 50s (58-59)", Min: 58, Max: 59},
	{Value: "60-plus", Label: "60 and over", Min: 60, Max: 150},
}

// AgeGroupByValue looks up a bucket by its stored value.
func AgeGroupByValue(value string) (AgeGroup, bool) {
	for _, g := range DetailedAgeGroups {
		if g.Value == value {
			return g, true
		}
	}
	return AgeGroup{}, false
}

// AgeRangeForGroups resolves a [minGroup, maxGroup] preference to an
// inclusive age range, validating the ordering.
func AgeRangeForGroups(minGroup, maxGroup string) (int, int, error) {
	minG, ok := AgeGroupByValue(minGroup)
	if !ok {
		return 0, 0, fmt.Errorf("unknown age group %q", minGroup)
	}
	maxG, ok := AgeGroupByValue(maxGroup)
	if !ok {
		return 0, 0, fmt.Errorf("unknown age group %q", maxGroup)
	}
	if minG.Min > maxG.Max {
		return 0, 0, fmt.Errorf("minimum age group %q exceeds maximum %q", minGroup, maxGroup)
	}
	return minG.Min, maxG.Max, nil
}
