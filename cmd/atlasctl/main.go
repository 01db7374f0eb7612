// Command atlasctl runs offline checks and reports against the cable and
// zone data folders, and manages atlas users.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/seacable/atlas-backend/internal/cables"
	"github.com/seacable/atlas-backend/internal/geo"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	cableDir string
	zoneDir  string
	manifest string
	logLevel string
}

func main() {
	_ = godotenv.Load(".env.local")
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "atlasctl",
		Short:         "Offline tools for the submarine cable atlas",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.cableDir, "dir", envOr("CABLE_DIR", filepath.Join("data", "cables")), "folder of cable *.geojson files")
	pf.StringVar(&opts.zoneDir, "zone-dir", envOr("ZONE_DIR", filepath.Join("data", "zones")), "folder of zone datasets")
	pf.StringVar(&opts.manifest, "manifest", os.Getenv("ZONE_MANIFEST"), "zone manifest (default: <zone-dir>/zones.yaml)")
	pf.StringVar(&opts.logLevel, "log-level", envOr("LOG_LEVEL", "info"), "log level (debug, info, warn, error)")

	cmd.AddCommand(
		newZonesCmd(opts),
		newExportCmd(opts),
		newCrossingsCmd(opts),
		newUserCmd(opts),
	)
	return cmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (o *rootOptions) catalog() (*geo.ZoneCatalog, error) {
	manifest := o.manifest
	if manifest == "" {
		manifest = filepath.Join(o.zoneDir, "zones.yaml")
	}
	return geo.LoadZoneCatalog(o.zoneDir, manifest)
}

// features loads every cable file of the data folder, one record per file.
func (o *rootOptions) features(ctx context.Context) ([]geo.Feature, error) {
	store := cables.NewMemoryStore()
	if _, err := cables.LoadDir(ctx, store, o.cableDir); err != nil {
		return nil, err
	}
	return store.Features(ctx)
}
