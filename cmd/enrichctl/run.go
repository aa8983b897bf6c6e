package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"enrichment-workers/internal/anonymizer"
	"enrichment-workers/internal/common/genai"
	"enrichment-workers/internal/enrichment"
	"enrichment-workers/internal/injector"
	"enrichment-workers/internal/pipeline"
)

var errOffline = errors.New("generator disabled (--offline)")

type offlineGenerator struct{}

func (offlineGenerator) Generate(context.Context, string) (string, error) {
	return "", errOffline
}

func newRunCmd(s settings) *cobra.Command {
	var (
		in           string
		kind         string
		templateID   string
		flagPairs    []string
		offline      bool
		documentOnly bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Anonymize, enrich, restore and render in one go",
		Long: `Runs the whole chain in process. The placeholder mapping stays in memory and
is never written out. Without --offline the anonymized content is sent to the
generation service at --genai-url; any generator failure renders the content
unenriched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			explicit, err := parseFlags(flagPairs)
			if err != nil {
				return err
			}
			content, err := readObject(cmd, in)
			if err != nil {
				return err
			}
			loader, err := s.templates()
			if err != nil {
				return err
			}

			var gen enrichment.Generator = offlineGenerator{}
			if !offline {
				gcfg := genai.DefaultConfig()
				gcfg.BaseURL = s.v.GetString("genai-url")
				gcfg.APIKey = s.v.GetString("genai-key")
				gcfg.Timeout = commandTimeout(cmd)
				if err := gcfg.Validate(); err != nil {
					return err
				}
				gen = genai.NewClient(gcfg)
			}

			log := s.logger()
			enricher, err := enrichment.New(gen, log)
			if err != nil {
				return err
			}
			p := pipeline.New(anonymizer.NewEngine(), enricher, loader, injector.New(), log)

			ctx, cancel := context.WithTimeout(context.Background(), commandTimeout(cmd)+5*time.Second)
			defer cancel()

			res, err := p.Run(ctx, pipeline.Request{
				RequestID:  uuid.NewString(),
				Kind:       kind,
				TemplateID: templateID,
				Content:    content,
				Flags:      explicit,
			})
			if err != nil {
				return err
			}
			if documentOnly {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), res.Document)
				return err
			}
			return writeJSON(cmd, res)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&in, "in", "i", "-", "JSON content file, - for stdin")
	f.StringVarP(&kind, "kind", "k", enrichment.GenericKind, "Document kind (cv, letter, generic, ...)")
	f.StringVarP(&templateID, "template", "t", "", "Template id from the registry")
	f.StringSliceVar(&flagPairs, "flag", nil, "Override a computed flag, e.g. hasProjects=false")
	f.BoolVar(&offline, "offline", false, "Skip the generator and render the normalized content")
	f.BoolVar(&documentOnly, "document-only", false, "Print only the rendered document")
	f.Duration("timeout", time.Minute, "Generator timeout")
	f.String("genai-url", "", "Base URL of the generation service (ENRICHCTL_GENAI_URL)")
	f.String("genai-key", "", "API key of the generation service (ENRICHCTL_GENAI_KEY)")
	_ = s.v.BindPFlag("genai-url", f.Lookup("genai-url"))
	_ = s.v.BindPFlag("genai-key", f.Lookup("genai-key"))
	_ = cmd.MarkFlagRequired("template")
	return cmd
}
