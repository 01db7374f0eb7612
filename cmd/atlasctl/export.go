package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/seacable/atlas-backend/internal/export"
	"github.com/seacable/atlas-backend/internal/geo"
	"github.com/spf13/cobra"
)

type exportOptions struct {
	out    string
	filter geo.Filter
}

func newExportCmd(opts *rootOptions) *cobra.Command {
	eo := &exportOptions{}

	exportCmd := &cobra.Command{
		Use:       "export kml|geojson",
		Short:     "Write the cable folder as one KML or GeoJSON document",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"kml", "geojson"},
		RunE: func(cmd *cobra.Command, args []string) error {
			features, err := opts.features(cmd.Context())
			if err != nil {
				return err
			}
			features = eo.filter.Apply(features)

			w := cmd.OutOrStdout()
			if eo.out != "" {
				f, err := os.Create(eo.out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}

			n, err := writeExport(w, args[0], features)
			if err != nil {
				return err
			}
			if eo.out != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d features to %s\n", n, eo.out)
			}
			return nil
		},
	}

	f := exportCmd.Flags()
	f.StringVarP(&eo.out, "out", "o", "", "output file (default: stdout)")
	f.StringVar(&eo.filter.Name, "name", "", "keep cables whose name contains this text")
	f.StringVar(&eo.filter.Status, "status", "", "keep cables whose Status contains this text")
	f.StringVar(&eo.filter.Condition, "condition", "", "keep cables whose Condition contains this text")
	f.StringVar(&eo.filter.Category, "category", "", "keep cables whose Category of Cable contains this text")
	return exportCmd
}

func writeExport(w io.Writer, format string, features []geo.Feature) (int, error) {
	switch format {
	case "kml":
		return export.KML(w, "Submarine cables", features)
	case "geojson":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(geo.NewFeatureCollection(features)); err != nil {
			return 0, err
		}
		return len(features), nil
	default:
		return 0, fmt.Errorf("unknown export format %q", format)
	}
}
