package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"enrichment-workers/internal/anonymizer"
)

func newRestoreCmd(s settings) *cobra.Command {
	var (
		in      string
		mapping string
		text    bool
	)

	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Put original values back in place of placeholders",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := readMapping(mapping)
			if err != nil {
				return err
			}

			if text {
				raw, err := readInput(cmd, in)
				if err != nil {
					return err
				}
				_, err = fmt.Fprint(cmd.OutOrStdout(), anonymizer.Restore(string(raw), m))
				return err
			}

			doc, err := readObject(cmd, in)
			if err != nil {
				return err
			}
			out, err := anonymizer.RestoreObject(doc, m)
			if err != nil {
				return err
			}
			s.logger().Info("content restored", map[string]interface{}{"mappingSize": m.Len()})
			return writeJSON(cmd, out)
		},
	}

	cmd.Flags().StringVarP(&in, "in", "i", "-", "Input file, - for stdin")
	cmd.Flags().StringVarP(&mapping, "mapping", "m", "", "Mapping file written by anonymize")
	cmd.Flags().BoolVar(&text, "text", false, "Treat the input as plain text")
	_ = cmd.MarkFlagRequired("mapping")
	return cmd
}
