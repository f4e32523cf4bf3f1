package main

import (
	"fmt"
	"geoblog/internal/index"
	"github.com/spf13/cobra"
	"os"
)

func newGeoCmd(load loadFunc) *cobra.Command {
	geo := &cobra.Command{
		Use:   "geo",
		Short: "Manage the IP-to-country table",
	}
	geo.AddCommand(newGeoImportCmd(load), newGeoLookupCmd(load))
	return geo
}

func newGeoImportCmd(load loadFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "import <ranges.csv>",
		Short: "Replace the table with rows of start_ip,end_ip,country_code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			ranges, err := index.ReadRanges(f)
			if err != nil {
				return err
			}

			st, err := index.Open(index.OpenOptions{Path: cfg.Geo.IndexPath})
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.Rebuild(ranges); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d ranges into %s\n", len(ranges), cfg.Geo.IndexPath)
			return nil
		},
	}
}

func newGeoLookupCmd(load loadFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <ip>",
		Short: "Print the country code for an address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}

			st, err := index.Open(index.OpenOptions{Path: cfg.Geo.IndexPath, ReadOnly: true})
			if err != nil {
				return err
			}
			defer st.Close()

			cc, ok := st.ResolveCountry(args[0])
			if !ok {
				return fmt.Errorf("no country for %s", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), cc)
			return nil
		},
	}
}
