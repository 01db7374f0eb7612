package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/seacable/atlas-backend/internal/geo"
	"github.com/spf13/cobra"
)

func newZonesCmd(opts *rootOptions) *cobra.Command {
	zonesCmd := &cobra.Command{
		Use:   "zones",
		Short: "Inspect maritime zone datasets",
	}

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the zone manifest and count polygons per dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := opts.catalog()
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "LABEL\tFILE\tPOLYGONS\tUNKNOWN SOVEREIGN\tMALFORMED\tSTATUS")

			failed := 0
			for _, label := range geo.ZoneLabels {
				ds, ok := catalog.Dataset(label)
				if !ok {
					fmt.Fprintf(tw, "%s\t-\t-\t-\t-\tnot configured\n", label)
					continue
				}
				zones, err := catalog.Load(label)
				if err != nil {
					failed++
					fmt.Fprintf(tw, "%s\t%s\t-\t-\t-\t%v\n", label, ds.File, err)
					continue
				}
				unknown := 0
				for _, z := range zones {
					if z.Sovereign == geo.UnknownSovereign {
						unknown++
					}
				}
				status := "ok"
				malformed := len(geo.Defects(zones))
				if malformed > 0 {
					status = "degraded"
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\n", label, ds.File, len(zones), unknown, malformed, status)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			if failed > 0 {
				return fmt.Errorf("%d zone dataset(s) failed to load", failed)
			}
			return nil
		},
	}

	zonesCmd.AddCommand(checkCmd)
	return zonesCmd
}
