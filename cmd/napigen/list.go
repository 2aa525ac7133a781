package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/corrreia/napigo/internal/manifest"
)

var listFormat string

func init() {
	listCmd.Flags().StringVar(&listFormat, "format", "pretty", "output format (pretty|json)")
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the exports recorded in the manifest",
	RunE: func(cmd *cobra.Command, args []string) error {
		format := strings.ToLower(listFormat)
		switch format {
		case "pretty", "json":
		default:
			return fmt.Errorf("unsupported format %q (must be pretty or json)", listFormat)
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		m, err := manifest.Open(cfg.ManifestPath())
		if err != nil {
			return err
		}
		defer m.Close()

		exports, err := m.Exports(cmd.Context())
		if err != nil {
			return err
		}
		collisions, err := m.Collisions(cmd.Context())
		if err != nil {
			return err
		}

		if format == "json" {
			return renderListJSON(cmd.OutOrStdout(), exports, collisions)
		}
		renderListPretty(cmd.OutOrStdout(), newPalette(colorEnabled(cmd)), exports, collisions)
		return nil
	},
}

type listPayload struct {
	Exports    []exportPayload    `json:"exports"`
	Collisions []collisionPayload `json:"collisions,omitempty"`
}

type exportPayload struct {
	Package   string `json:"package"`
	Name      string `json:"name"`
	GoName    string `json:"go_name"`
	Signature string `json:"signature"`
	Position  string `json:"position,omitempty"`
}

type collisionPayload struct {
	Name     string   `json:"name"`
	Packages []string `json:"packages"`
}

func renderListJSON(w io.Writer, exports []manifest.Export, collisions []manifest.Collision) error {
	payload := listPayload{Exports: make([]exportPayload, 0, len(exports))}
	for _, e := range exports {
		payload.Exports = append(payload.Exports, exportPayload{
			Package:   e.Package,
			Name:      e.Name,
			GoName:    e.GoName,
			Signature: e.Signature.String(),
			Position:  e.Position,
		})
	}
	for _, c := range collisions {
		payload.Collisions = append(payload.Collisions, collisionPayload{Name: c.Name, Packages: c.Packages})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

func renderListPretty(w io.Writer, p *palette, exports []manifest.Export, collisions []manifest.Collision) {
	if len(exports) == 0 {
		fmt.Fprintln(w, "no exports recorded; run napigen generate first")
		return
	}

	current := ""
	for _, e := range exports {
		if e.Package != current {
			current = e.Package
			fmt.Fprintln(w, p.pkg.Sprint(current))
		}
		fmt.Fprintf(w, "  %-20s %s %s\n", p.fn.Sprint(e.Name), e.Signature.String(), p.pos.Sprint(e.Position))
	}
	for _, c := range collisions {
		fmt.Fprintf(w, "%s export %q is registered by %s\n", p.warn.Sprint("warning:"), c.Name, strings.Join(c.Packages, ", "))
	}
}
