package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"spectrum-inventory/internal/config"
	"spectrum-inventory/internal/spectrum"
)

func runAttrs(args []string, stdout io.Writer) error {
	fs := newFlagSet("attrs")
	configPath := fs.String("config", "", "config file path (default: search standard locations)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, _, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	attrs, err := spectrum.ParseAttributeMap(cfg.Spectrum.ExtraAttributes)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME")
	for _, a := range attrs.Attributes() {
		name := a.Name
		if name == "" {
			name = "(" + a.ID + ")"
		}
		fmt.Fprintf(tw, "%s\t%s\n", a.ID, name)
	}
	return tw.Flush()
}
