package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"enrichment-workers/internal/anonymizer"
)

func newAnonymizeCmd(s settings) *cobra.Command {
	var (
		in         string
		mappingOut string
		text       bool
	)

	cmd := &cobra.Command{
		Use:   "anonymize",
		Short: "Replace personal values with placeholders",
		Long: `Reads a JSON object (or plain text with --text), prints it with every detected
person, email, phone, company and city replaced by a placeholder, and writes the
placeholder mapping to --mapping-out.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := s.logger()
			engine := anonymizer.NewEngine()

			if text {
				raw, err := readInput(cmd, in)
				if err != nil {
					return err
				}
				res := engine.Anonymize(string(raw))
				if err := writeMapping(mappingOut, res.Mapping); err != nil {
					return err
				}
				log.Info("text anonymized", map[string]interface{}{"entityCount": res.Stats.Total()})
				_, err = fmt.Fprint(cmd.OutOrStdout(), res.AnonymizedText)
				if err == nil && !strings.HasSuffix(res.AnonymizedText, "\n") {
					_, err = fmt.Fprintln(cmd.OutOrStdout())
				}
				return err
			}

			doc, err := readObject(cmd, in)
			if err != nil {
				return err
			}
			out, res, err := engine.AnonymizeObject(doc)
			if err != nil {
				return err
			}
			if err := writeMapping(mappingOut, res.Mapping); err != nil {
				return err
			}
			log.Info("content anonymized", map[string]interface{}{
				"entityCount": res.Stats.Total(),
				"stats":       res.Stats,
			})
			return writeJSON(cmd, out)
		},
	}

	cmd.Flags().StringVarP(&in, "in", "i", "-", "Input file, - for stdin")
	cmd.Flags().StringVarP(&mappingOut, "mapping-out", "m", "", "File receiving the placeholder mapping")
	cmd.Flags().BoolVar(&text, "text", false, "Treat the input as plain text")
	_ = cmd.MarkFlagRequired("mapping-out")
	return cmd
}
