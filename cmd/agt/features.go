package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/agritag/internal/model"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Short:   "List features, optionally filtered",
	GroupID: "features",
	RunE: func(cmd *cobra.Command, args []string) error {
		search, _ := cmd.Flags().GetString("search")
		crop, _ := cmd.Flags().GetString("crop")

		list, err := agtClient.ListFeatures(context.Background(), model.FeatureFilter{Search: search, Crop: crop})
		if err != nil {
			return fmt.Errorf("listing features: %w", err)
		}
		if jsonOutput {
			printJSON(list)
		} else {
			printFeatureList(os.Stdout, list)
		}
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:     "show <id>",
	Short:   "Show details of a feature",
	GroupID: "features",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := agtClient.GetFeature(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("getting feature %s: %w", args[0], err)
		}
		if jsonOutput {
			printJSON(f)
		} else {
			printFeature(os.Stdout, f)
		}
		return nil
	},
}

var drawCmd = &cobra.Command{
	Use:   "draw",
	Short: "Draw a new feature from a GeoJSON geometry or a point",
	Long: `Draw a new feature as if it had been drawn on the map.

The geometry comes from --geometry (a GeoJSON geometry object, or @file to
read one) or, for markers, from --point "lon,lat".`,
	GroupID: "features",
	RunE: func(cmd *cobra.Command, args []string) error {
		shape, _ := cmd.Flags().GetString("shape")
		geomArg, _ := cmd.Flags().GetString("geometry")
		pointArg, _ := cmd.Flags().GetString("point")

		g, err := parseGeometryArgs(geomArg, pointArg)
		if err != nil {
			return err
		}
		kind := model.ShapeKind(shape)
		if kind == "" {
			kind = defaultShape(g)
		}

		f, err := agtClient.Draw(context.Background(), kind, g)
		if err != nil {
			return fmt.Errorf("drawing %s: %w", kind, err)
		}
		if jsonOutput {
			printJSON(f)
		} else {
			fmt.Printf("Drew %s (%s)\n", f.ID, f.Properties.Name)
		}
		return nil
	},
}

var updateCmd = &cobra.Command{
	Use:     "update <id>",
	Short:   "Update a feature's attributes",
	GroupID: "features",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var patch model.AttributePatch
		for flag, dst := range map[string]**string{
			"name":   &patch.Name,
			"crop":   &patch.Crop,
			"season": &patch.Season,
			"color":  &patch.Color,
			"notes":  &patch.Notes,
		} {
			if cmd.Flags().Changed(flag) {
				v, _ := cmd.Flags().GetString(flag)
				*dst = &v
			}
		}
		if patch.IsEmpty() {
			return errors.New("nothing to update (use --name, --crop, --season, --color or --notes)")
		}

		f, err := agtClient.UpdateFeature(context.Background(), args[0], patch)
		if err != nil {
			return fmt.Errorf("updating feature %s: %w", args[0], err)
		}
		if jsonOutput {
			printJSON(f)
		} else {
			printFeature(os.Stdout, f)
		}
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:     "delete <id>...",
	Short:   "Delete features",
	GroupID: "features",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, id := range args {
			if err := agtClient.DeleteFeature(context.Background(), id); err != nil {
				return fmt.Errorf("deleting feature %s: %w", id, err)
			}
			if !jsonOutput {
				fmt.Printf("Deleted %s\n", id)
			}
		}
		if jsonOutput {
			printJSON(map[string]any{"deleted": args})
		}
		return nil
	},
}

// parseGeometryArgs builds a geometry from the draw flags.
func parseGeometryArgs(geomArg, pointArg string) (orb.Geometry, error) {
	switch {
	case geomArg != "" && pointArg != "":
		return nil, errors.New("use either --geometry or --point, not both")
	case pointArg != "":
		return parsePoint(pointArg)
	case geomArg != "":
		data := []byte(geomArg)
		if path, ok := strings.CutPrefix(geomArg, "@"); ok {
			b, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("reading geometry: %w", err)
			}
			data = b
		}
		g, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return nil, fmt.Errorf("parsing geometry: %w", err)
		}
		return g.Geometry(), nil
	}
	return nil, errors.New("a geometry is required (--geometry or --point)")
}

// parsePoint reads "lon,lat".
func parsePoint(s string) (orb.Point, error) {
	lonStr, latStr, ok := strings.Cut(s, ",")
	if !ok {
		return orb.Point{}, fmt.Errorf("invalid point %q (expected lon,lat)", s)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	if err != nil {
		return orb.Point{}, fmt.Errorf("invalid longitude %q: %w", lonStr, err)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return orb.Point{}, fmt.Errorf("invalid latitude %q: %w", latStr, err)
	}
	if lon < -180 || lon > 180 || lat < -90 || lat > 90 {
		return orb.Point{}, fmt.Errorf("point %q is out of range", s)
	}
	return orb.Point{lon, lat}, nil
}

// defaultShape picks the drawing tool that would have produced g.
func defaultShape(g orb.Geometry) model.ShapeKind {
	if _, ok := g.(orb.Point); ok {
		return model.ShapeMarker
	}
	return model.ShapePolygon
}

func init() {
	listCmd.Flags().String("search", "", "case-insensitive match on name or notes")
	listCmd.Flags().String("crop", "", `only features with this crop ("all" for any)`)

	drawCmd.Flags().String("shape", "", "drawing tool: polygon, rectangle or marker (default from the geometry)")
	drawCmd.Flags().String("geometry", "", "GeoJSON geometry object, or @file")
	drawCmd.Flags().String("point", "", `marker location as "lon,lat"`)

	updateCmd.Flags().String("name", "", "feature name")
	updateCmd.Flags().String("crop", "", "crop")
	updateCmd.Flags().String("season", "", "planting season")
	updateCmd.Flags().String("color", "", "display color (#RRGGBB)")
	updateCmd.Flags().String("notes", "", "free-form notes")
}
