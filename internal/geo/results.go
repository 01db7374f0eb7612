package geo

import (
	"encoding/json"
	"net/url"
	"strings"
)

// ZoneCrossing is one cable/zone-polygon intersection.
type ZoneCrossing struct {
	ZoneLabel      string          `json:"zone_label"`
	CableName      string          `json:"cable_name"`
	CountryName    string          `json:"country_name"`
	IntersectionKM float64         `json:"intersection_km"`
	Geometry       json.RawMessage `json:"geometry"`
}

// CableCrossing is one intersection between two logical cables.
type CableCrossing struct {
	CableA   string          `json:"cableA"`
	CableB   string          `json:"cableB"`
	Geometry json.RawMessage `json:"geometry"`
}

// Filter holds case-insensitive substring terms for the cable listing.
type Filter struct {
	Name      string
	Status    string
	Condition string
	Category  string
}

// FilterFromQuery reads the Name, Status, Condition and CategoryOfCable
// query parameters.
func FilterFromQuery(q url.Values) Filter {
	return Filter{
		Name:      strings.TrimSpace(q.Get("Name")),
		Status:    strings.TrimSpace(q.Get("Status")),
		Condition: strings.TrimSpace(q.Get("Condition")),
		Category:  strings.TrimSpace(q.Get("CategoryOfCable")),
	}
}

// Empty reports whether no term is set.
func (f Filter) Empty() bool {
	return f.Name == "" && f.Status == "" && f.Condition == "" && f.Category == ""
}

// Match reports whether every non-empty term is a substring of the matching
// property. Missing properties read as "".
func (f Filter) Match(feat Feature) bool {
	terms := [...]struct{ term, key string }{
		{f.Name, KeyName},
		{f.Status, KeyStatus},
		{f.Condition, KeyCondition},
		{f.Category, KeyCategory},
	}
	for _, t := range terms {
		if t.term == "" {
			continue
		}
		if !strings.Contains(foldName(feat.Property(t.key)), foldName(t.term)) {
			return false
		}
	}
	return true
}

// Apply keeps matching features in input order.
func (f Filter) Apply(features []Feature) []Feature {
	if f.Empty() {
		return features
	}
	out := make([]Feature, 0, len(features))
	for _, feat := range features {
		if f.Match(feat) {
			out = append(out, feat)
		}
	}
	return out
}
