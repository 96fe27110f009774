// Package output renders CLI results as JSON, YAML or a plain text table.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"dealerscout/internal/models"
)

type Format string

const (
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatTable Format = "table"
)

// ParseFormat accepts json, yaml or table in any case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatYAML, FormatTable:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", s)
	}
}

// Write encodes v to w. The table format only knows car lists; anything else
// falls back to YAML.
func Write(w io.Writer, format Format, v any) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case FormatTable:
		if cars, ok := v.([]*models.Car); ok {
			return CarTable(w, cars)
		}
		return Write(w, FormatYAML, v)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

// CarTable prints one aligned row per car.
func CarTable(w io.Writer, cars []*models.Car) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "YEAR\tMAKE\tMODEL\tPRICE\tMILEAGE\tSOURCE")
	for _, c := range cars {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			c.Year, c.Make, c.Model, money(c.Price), miles(c.Mileage), c.Location)
	}
	return tw.Flush()
}

func money(v *int) string {
	if v == nil {
		return "-"
	}
	return "$" + humanize.Comma(int64(*v))
}

func miles(v *int) string {
	if v == nil {
		return "-"
	}
	return humanize.Comma(int64(*v)) + " mi"
}
