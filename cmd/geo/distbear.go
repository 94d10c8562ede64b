package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/spf13/cobra"

	"github.com/joeblew999/geo-process/internal/feature"
	"github.com/joeblew999/geo-process/internal/process/distbear"
)

func newDistbearCmd() *cobra.Command {
	var (
		origin string
		input  string
		legacy bool
	)
	cmd := &cobra.Command{
		Use:   "distbear",
		Short: "Add distance and bearing from an origin to every feature of a GeoJSON file",
		Example: "  geo distbear --origin 0,0 --input stations.geojson\n" +
			"  cat stations.geojson | geo distbear --origin 12.5,41.9",
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := parseOrigin(origin)
			if err != nil {
				return err
			}
			in := cmd.InOrStdin()
			if input != "" && input != "-" {
				f, err := os.Open(input)
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			conv := distbear.ClockwiseFromNorth
			if legacy {
				conv = distbear.OffsetAtan2
			}
			return runDistbear(cmd.OutOrStdout(), in, o, conv)
		},
	}
	cmd.Flags().StringVar(&origin, "origin", "", "Origin point as x,y")
	cmd.Flags().StringVarP(&input, "input", "i", "-", "GeoJSON FeatureCollection file (- for stdin)")
	cmd.Flags().BoolVar(&legacy, "legacy-bearing", false, "Use the (270 + atan2) bearing remap")
	cmd.MarkFlagRequired("origin")
	return cmd
}

// parseOrigin reads an "x,y" pair.
func parseOrigin(s string) (orb.Point, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return orb.Point{}, fmt.Errorf("origin must be x,y: %q", s)
	}
	var p orb.Point
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return orb.Point{}, fmt.Errorf("origin must be x,y: %w", err)
		}
		p[i] = v
	}
	return p, nil
}

func runDistbear(w io.Writer, r io.Reader, origin orb.Point, conv distbear.BearingConvention) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return fmt.Errorf("read feature collection: %w", err)
	}

	in, err := feature.FromGeoJSON("input", fc)
	if err != nil {
		return err
	}
	out, err := distbear.Transformer{Convention: conv}.Run(origin, in)
	if err != nil {
		return err
	}
	res, err := feature.ToGeoJSON(out)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
