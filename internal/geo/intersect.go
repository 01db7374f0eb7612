package geo

import (
	"fmt"

	"github.com/peterstace/simplefeatures/geom"
	"github.com/seacable/atlas-backend/internal/apperr"
)

// Intersects reports whether a and b share at least one point. It is true
// exactly when Intersection(a, b) is non-empty.
func Intersects(a, b geom.Geometry) (bool, error) {
	g, err := intersect(a, b)
	if err != nil {
		return false, err
	}
	return !g.IsEmpty(), nil
}

// Intersection returns the shared part of a and b, possibly empty.
func Intersection(a, b geom.Geometry) (geom.Geometry, error) {
	return intersect(a, b)
}

func intersect(a, b geom.Geometry) (geom.Geometry, error) {
	a, b = a.Force2D(), b.Force2D()

	// The exact predicate rejects disjoint pairs without running the overlay.
	touching, err := guardBool(func() bool { return geom.Intersects(a, b) })
	if err != nil {
		return geom.Geometry{}, apperr.Computation(err, "intersects predicate")
	}
	if !touching {
		return geom.Geometry{}, nil
	}

	g, err := guard(func() (geom.Geometry, error) { return geom.Intersection(a, b) })
	if err != nil {
		return geom.Geometry{}, apperr.Computation(err, "intersection")
	}
	return g, nil
}

func guardBool(op func() bool) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("geometry predicate panicked: %v", r)
		}
	}()
	return op(), nil
}

// CableCrossings returns where the named cable crosses every other stored
// cable, in first-seen order of the other cables. A cable is never reported
// against itself.
func CableCrossings(name string, features []Feature) ([]CableCrossing, error) {
	query, err := AggregateCable(name, features)
	if err != nil {
		return nil, err
	}

	crossings := []CableCrossing{}
	for _, other := range CableNames(features) {
		if foldName(other) == foldName(query.Name) {
			continue
		}
		candidate, err := AggregateCable(other, features)
		if err != nil {
			return nil, err
		}
		shared, err := intersect(query.Geometry, candidate.Geometry)
		if err != nil {
			return nil, fmt.Errorf("%s x %s: %w", query.Name, candidate.Name, err)
		}
		if shared.IsEmpty() {
			continue
		}
		raw, err := geometryFromGeom(shared)
		if err != nil {
			return nil, apperr.Computation(err, "%s x %s", query.Name, candidate.Name)
		}
		crossings = append(crossings, CableCrossing{
			CableA:   query.Name,
			CableB:   candidate.Name,
			Geometry: raw,
		})
	}
	return crossings, nil
}

// ZoneCrossings tests the cable against each zone polygon independently and
// reports every non-empty intersection in dataset order.
func ZoneCrossings(label ZoneLabel, cable Cable, zones []Zone) ([]ZoneCrossing, error) {
	crossings := []ZoneCrossing{}
	for i, z := range zones {
		shared, err := intersect(cable.Geometry, z.Geometry)
		if err != nil {
			return nil, fmt.Errorf("%s zone %d: %w", label, i, err)
		}
		if shared.IsEmpty() {
			continue
		}
		km, err := LengthKM(shared)
		if err != nil {
			return nil, err
		}
		raw, err := geometryFromGeom(shared)
		if err != nil {
			return nil, apperr.Computation(err, "%s zone %d", label, i)
		}
		crossings = append(crossings, ZoneCrossing{
			ZoneLabel:      string(label),
			CableName:      cable.Name,
			CountryName:    z.Sovereign,
			IntersectionKM: km,
			Geometry:       raw,
		})
	}
	return crossings, nil
}
