package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"enrichment-workers/internal/injector"
)

// parseFlags turns name=bool pairs into template flags.
func parseFlags(pairs []string) (injector.Flags, error) {
	flags := injector.Flags{}
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("flag %q: expected name=true|false", p)
		}
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("flag %q: %w", p, err)
		}
		flags[name] = b
	}
	return flags, nil
}

func newRenderCmd(s settings) *cobra.Command {
	var (
		templateID string
		data       string
		flagPairs  []string
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a template with JSON data",
		RunE: func(cmd *cobra.Command, args []string) error {
			explicit, err := parseFlags(flagPairs)
			if err != nil {
				return err
			}
			doc, err := readObject(cmd, data)
			if err != nil {
				return err
			}
			loader, err := s.templates()
			if err != nil {
				return err
			}
			tpl, err := loader.Load(context.Background(), templateID)
			if err != nil {
				return err
			}

			flags := injector.MergeFlags(injector.ComputeFlags(doc), explicit)
			out, err := injector.New().Render(tpl, doc, flags)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		},
	}

	cmd.Flags().StringVarP(&templateID, "template", "t", "", "Template id from the registry")
	cmd.Flags().StringVarP(&data, "data", "d", "-", "JSON data file, - for stdin")
	cmd.Flags().StringSliceVar(&flagPairs, "flag", nil, "Override a computed flag, e.g. hasProjects=false")
	_ = cmd.MarkFlagRequired("template")
	return cmd
}
