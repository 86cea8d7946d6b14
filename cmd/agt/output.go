package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/alfredjeanlab/agritag/internal/client"
	"github.com/alfredjeanlab/agritag/internal/ui"
)

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling JSON: %v\n", err)
		return
	}
	fmt.Println(string(data))
}

// formatArea renders an area for tables; points have none.
func formatArea(f *client.Feature) string {
	if f.Kind == "Point" || f.Kind == "MultiPoint" {
		return "-"
	}
	return fmt.Sprintf("%.2f ha", f.AreaHa)
}

func printFeature(w io.Writer, f *client.Feature) {
	p := f.Properties
	fmt.Fprintf(w, "ID:          %s\n", f.ID)
	fmt.Fprintf(w, "Name:        %s\n", p.Name)
	fmt.Fprintf(w, "Kind:        %s\n", f.Kind)
	fmt.Fprintf(w, "Area:        %s\n", formatArea(f))
	fmt.Fprintf(w, "Crop:        %s\n", p.Crop)
	fmt.Fprintf(w, "Season:      %s\n", p.Season)
	fmt.Fprintf(w, "Color:       %s\n", ui.RenderSwatch(p.Color))
	if p.Notes != "" {
		fmt.Fprintf(w, "Notes:       %s\n", p.Notes)
	}
	if !p.CreatedAt.IsZero() {
		fmt.Fprintf(w, "Created At:  %s\n", p.CreatedAt.Format("2006-01-02 15:04:05"))
	}
}

func printFeatureList(w io.Writer, list *client.FeatureList) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tKIND\tCROP\tSEASON\tAREA")
	for _, f := range list.Features {
		name := f.Properties.Name
		if len(name) > 40 {
			name = name[:37] + "..."
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			f.ID,
			name,
			f.Kind,
			f.Properties.Crop,
			f.Properties.Season,
			formatArea(f),
		)
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d features (%d total)\n", len(list.Features), list.Total)
	if len(list.Crops) > 0 {
		fmt.Fprintln(w, ui.RenderMuted("crops: "+strings.Join(list.Crops, ", ")))
	}
}
