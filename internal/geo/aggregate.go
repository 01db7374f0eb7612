package geo

import (
	"fmt"

	"github.com/peterstace/simplefeatures/geom"
	"github.com/seacable/atlas-backend/internal/apperr"
)

// CableName returns the canonical name of a cable feature.
func CableName(f Feature) (string, bool) {
	name := f.Property(KeyName)
	return name, name != ""
}

// MatchesCable reports whether f belongs to the logical cable called name.
// Features without a name never match.
func MatchesCable(f Feature, name string) bool {
	got, ok := CableName(f)
	return ok && foldName(got) == foldName(name)
}

// CableNames returns the distinct cable names in first-seen order, spelled
// as they were first stored.
func CableNames(features []Feature) []string {
	seen := make(map[string]bool)
	names := []string{}
	for _, f := range features {
		name, ok := CableName(f)
		if !ok {
			continue
		}
		key := foldName(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		names = append(names, name)
	}
	return names
}

// Cable is a logical cable: every stored fragment under one name, unioned.
type Cable struct {
	Name      string
	Fragments int
	Geometry  geom.Geometry
}

// AggregateCable unions every feature whose name matches into one geometry.
// Overlapping segments are dissolved; disjoint fragments come back as a
// MultiLineString.
func AggregateCable(name string, features []Feature) (Cable, error) {
	key := foldName(name)

	var (
		parts     []geom.Geometry
		canonical string
	)
	for i, f := range features {
		got, ok := CableName(f)
		if !ok || foldName(got) != key {
			continue
		}
		g, err := f.Geometry.Decode()
		if err != nil {
			return Cable{}, apperr.Computation(err, "cable %q fragment %d", name, i)
		}
		if canonical == "" {
			canonical = got
		}
		parts = append(parts, g)
	}
	if len(parts) == 0 {
		return Cable{}, apperr.NotFound("cable %q not found", name)
	}

	merged, err := unionAll(parts)
	if err != nil {
		return Cable{}, apperr.Computation(err, "union of cable %q", name)
	}
	return Cable{Name: canonical, Fragments: len(parts), Geometry: merged}, nil
}

func unionAll(parts []geom.Geometry) (geom.Geometry, error) {
	acc := parts[0]
	for i, p := range parts[1:] {
		var err error
		acc, err = guard(func() (geom.Geometry, error) { return geom.Union(acc, p) })
		if err != nil {
			return geom.Geometry{}, fmt.Errorf("fragment %d: %w", i+1, err)
		}
	}
	return acc, nil
}

// guard runs a geometry operation, turning library panics into errors.
func guard(op func() (geom.Geometry, error)) (g geom.Geometry, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("geometry operation panicked: %v", r)
		}
	}()
	return op()
}
