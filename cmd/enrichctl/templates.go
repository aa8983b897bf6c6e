package main

import (
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"enrichment-workers/pkg/registry"
)

func newTemplatesCmd(s settings) *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List the templates of the registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := s.v.GetString("templates-registry")
			if path == "" {
				path = filepath.Join(s.v.GetString("templates-dir"), "registry.json")
			}
			reg, err := registry.LoadRegistry(path)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tKIND\tVERSION\tPATH")
			for _, t := range reg.Templates {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", t.ID, t.Kind, t.Version, t.Path)
			}
			return w.Flush()
		},
	}
}
