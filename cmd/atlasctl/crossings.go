package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/seacable/atlas-backend/internal/geo"
	"github.com/spf13/cobra"
)

type crossingsOptions struct {
	cable  string
	zone   string
	format string
}

func newCrossingsCmd(opts *rootOptions) *cobra.Command {
	co := &crossingsOptions{}

	cmd := &cobra.Command{
		Use:   "crossings",
		Short: "Report where a cable crosses other cables or a zone dataset",
		Long: "Without --zone, lists the other cables the given cable crosses. With --zone,\n" +
			"lists the zone polygons it crosses and the length inside each, in km.",
		RunE: func(cmd *cobra.Command, args []string) error {
			features, err := opts.features(cmd.Context())
			if err != nil {
				return err
			}

			var report any
			if co.zone == "" {
				report, err = geo.CableCrossings(co.cable, features)
			} else {
				report, err = zoneReport(opts, co, features)
			}
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if co.format == "json" {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}

			tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
			switch rows := report.(type) {
			case []geo.CableCrossing:
				fmt.Fprintln(tw, "CABLE\tCROSSES")
				for _, c := range rows {
					fmt.Fprintf(tw, "%s\t%s\n", c.CableA, c.CableB)
				}
			case []geo.ZoneCrossing:
				fmt.Fprintln(tw, "ZONE\tCOUNTRY\tKM")
				for _, c := range rows {
					fmt.Fprintf(tw, "%s\t%s\t%.3f\n", c.ZoneLabel, c.CountryName, c.IntersectionKM)
				}
			}
			return tw.Flush()
		},
	}

	f := cmd.Flags()
	f.StringVar(&co.cable, "cable", "", "cable name, case-insensitive (required)")
	f.StringVar(&co.zone, "zone", "", "zone label: territorial, contiguous, eez, ecs or highseas")
	f.StringVar(&co.format, "format", "table", "output format: table or json")
	_ = cmd.MarkFlagRequired("cable")
	return cmd
}

func zoneReport(opts *rootOptions, co *crossingsOptions, features []geo.Feature) ([]geo.ZoneCrossing, error) {
	label, err := geo.ParseZoneLabel(co.zone)
	if err != nil {
		return nil, err
	}
	cable, err := geo.AggregateCable(co.cable, features)
	if err != nil {
		return nil, err
	}
	catalog, err := opts.catalog()
	if err != nil {
		return nil, err
	}
	zones, err := catalog.Load(label)
	if err != nil {
		return nil, err
	}
	return geo.ZoneCrossings(label, cable, zones)
}
