package geo

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/paulmach/orb/geojson"
	"github.com/peterstace/simplefeatures/geom"
	"github.com/seacable/atlas-backend/internal/apperr"
)

// ZoneLabel names a maritime jurisdiction dataset.
type ZoneLabel string

const (
	ZoneTerritorial ZoneLabel = "territorial"
	ZoneContiguous  ZoneLabel = "contiguous"
	ZoneEEZ         ZoneLabel = "eez"
	ZoneECS         ZoneLabel = "ecs"
	ZoneHighSeas    ZoneLabel = "highseas"
)

// ZoneLabels lists every supported label.
var ZoneLabels = []ZoneLabel{ZoneTerritorial, ZoneContiguous, ZoneEEZ, ZoneECS, ZoneHighSeas}

// DefaultSovereignKey is the owner property used by Marine Regions datasets.
const DefaultSovereignKey = "SOVEREIGN1"

// UnknownSovereign labels zone polygons without an owner property.
const UnknownSovereign = "Unknown"

// ParseZoneLabel validates a label taken from a request path.
func ParseZoneLabel(s string) (ZoneLabel, error) {
	label := ZoneLabel(strings.ToLower(strings.TrimSpace(s)))
	for _, l := range ZoneLabels {
		if l == label {
			return label, nil
		}
	}
	return "", apperr.NotFound("zone dataset %q not found", s)
}

// ZoneDataset describes one zone file in the manifest.
type ZoneDataset struct {
	Label        ZoneLabel `yaml:"label"`
	File         string    `yaml:"file"`
	SovereignKey string    `yaml:"sovereign_key"`
	Description  string    `yaml:"description"`
}

// Manifest is the zones.yaml document.
type Manifest struct {
	Zones []ZoneDataset `yaml:"zones"`
}

// DefaultManifest points each label at the Marine Regions export names.
func DefaultManifest() Manifest {
	return Manifest{Zones: []ZoneDataset{
		{Label: ZoneTerritorial, File: "eez_12nm.geojson", Description: "12 nautical mile territorial sea"},
		{Label: ZoneContiguous, File: "eez_24nm.geojson", Description: "24 nautical mile contiguous zone"},
		{Label: ZoneEEZ, File: "eez.geojson", Description: "200 nautical mile exclusive economic zone"},
		{Label: ZoneECS, File: "ecs.geojson", Description: "extended continental shelf"},
		{Label: ZoneHighSeas, File: "high_seas.geojson", Description: "areas beyond national jurisdiction"},
	}}
}

// Zone is one polygon of a zone dataset with its sovereign label.
type Zone struct {
	Label      ZoneLabel
	Sovereign  string
	Properties geojson.Properties
	Geometry   geom.Geometry

	// Defect is set when the feature failed validation. Geometry then keeps
	// only its valid polygons and may be empty.
	Defect error
}

// Defects returns the zones of a dataset that failed validation.
func Defects(zones []Zone) []Zone {
	var bad []Zone
	for _, z := range zones {
		if z.Defect != nil {
			bad = append(bad, z)
		}
	}
	return bad
}

// ZoneCatalog resolves zone labels to dataset files under a directory.
// Datasets are read on every Load and never modified.
type ZoneCatalog struct {
	dir      string
	datasets map[ZoneLabel]ZoneDataset
}

// NewZoneCatalog validates m and binds it to dir.
func NewZoneCatalog(dir string, m Manifest) (*ZoneCatalog, error) {
	c := &ZoneCatalog{dir: dir, datasets: make(map[ZoneLabel]ZoneDataset, len(m.Zones))}
	for _, ds := range m.Zones {
		if _, err := ParseZoneLabel(string(ds.Label)); err != nil {
			return nil, fmt.Errorf("manifest: unknown zone label %q", ds.Label)
		}
		if ds.File == "" {
			return nil, fmt.Errorf("manifest: zone %q has no file", ds.Label)
		}
		if _, dup := c.datasets[ds.Label]; dup {
			return nil, fmt.Errorf("manifest: zone %q listed twice", ds.Label)
		}
		if ds.SovereignKey == "" {
			ds.SovereignKey = DefaultSovereignKey
		}
		c.datasets[ds.Label] = ds
	}
	return c, nil
}

// LoadZoneCatalog reads the YAML manifest at manifestPath. A missing
// manifest falls back to DefaultManifest.
func LoadZoneCatalog(dir, manifestPath string) (*ZoneCatalog, error) {
	data, err := os.ReadFile(manifestPath)
	if errors.Is(err, fs.ErrNotExist) {
		return NewZoneCatalog(dir, DefaultManifest())
	}
	if err != nil {
		return nil, fmt.Errorf("read zone manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse zone manifest %s: %w", manifestPath, err)
	}
	return NewZoneCatalog(dir, m)
}

// Dataset returns the manifest entry for label.
func (c *ZoneCatalog) Dataset(label ZoneLabel) (ZoneDataset, bool) {
	ds, ok := c.datasets[label]
	return ds, ok
}

// Path returns the dataset file for label.
func (c *ZoneCatalog) Path(label ZoneLabel) (string, error) {
	ds, ok := c.datasets[label]
	if !ok {
		return "", apperr.NotFound("zone dataset %q not found", label)
	}
	if filepath.IsAbs(ds.File) {
		return ds.File, nil
	}
	return filepath.Join(c.dir, ds.File), nil
}

// Load reads every polygon of the dataset for label, in file order. A
// malformed feature does not fail the dataset: it is returned with Defect
// set and only its valid parts, so the rest of the dataset stays queryable.
// An unreadable file is a computation error since the fault is the
// server's, not the caller's.
func (c *ZoneCatalog) Load(label ZoneLabel) ([]Zone, error) {
	path, err := c.Path(label)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, apperr.NotFound("zone dataset %q not found (%s)", label, filepath.Base(path))
	}
	if err != nil {
		return nil, fmt.Errorf("read zone dataset %q: %w", label, err)
	}

	features, err := DecodeRecord(data)
	if err != nil {
		return nil, apperr.Computation(err, "zone dataset %q is unreadable", label)
	}

	key := c.datasets[label].SovereignKey
	zones := make([]Zone, 0, len(features))
	for i, f := range features {
		sovereign := f.Property(key)
		if sovereign == "" {
			sovereign = UnknownSovereign
		}
		g, defect := decodeZone(f)
		if defect != nil {
			defect = fmt.Errorf("feature %d: %w", i, defect)
		}
		zones = append(zones, Zone{
			Label:      label,
			Sovereign:  sovereign,
			Properties: f.Properties,
			Geometry:   g,
			Defect:     defect,
		})
	}
	return zones, nil
}

func decodeZone(f Feature) (geom.Geometry, error) {
	if f.Geometry == nil || (f.Geometry.Type != TypePolygon && f.Geometry.Type != TypeMultiPolygon) {
		return geom.Geometry{}, errors.New("not a polygon")
	}
	g, err := f.Geometry.Decode()
	if err == nil {
		return g, nil
	}
	// OmitInvalid empties bad polygons and keeps the valid members of a
	// MultiPolygon.
	salvaged, serr := f.Geometry.Decode(geom.OmitInvalid)
	if serr != nil {
		return geom.Geometry{}, err
	}
	if mp, ok := salvaged.AsMultiPolygon(); ok {
		var kept []geom.Polygon
		for i := 0; i < mp.NumPolygons(); i++ {
			if p := mp.PolygonN(i); !p.IsEmpty() {
				kept = append(kept, p)
			}
		}
		rebuilt, merr := geom.NewMultiPolygon(kept)
		if merr != nil {
			return geom.Geometry{}, err
		}
		salvaged = rebuilt.AsGeometry()
	}
	return salvaged, err
}
