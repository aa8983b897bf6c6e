package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"enrichment-workers/internal/anonymizer"
	"enrichment-workers/internal/common/config"
	"enrichment-workers/internal/common/logger"
	"enrichment-workers/internal/templatestore"
)

// settings are read from flags, then ENRICHCTL_* variables.
type settings struct {
	v *viper.Viper
}

func (s settings) logger() logger.Logger {
	return logger.NewStructured(s.v.GetString("log-level"), "console")
}

func (s settings) templates() (templatestore.Loader, error) {
	registry := s.v.GetString("templates-registry")
	dir := s.v.GetString("templates-dir")
	if registry == "" {
		registry = filepath.Join(dir, "registry.json")
	}
	return templatestore.New(config.TemplateConfig{
		Source:       config.TemplateSourceFile,
		RegistryPath: registry,
		Directory:    dir,
	}, nil)
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("enrichctl")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	s := settings{v: v}

	root := &cobra.Command{
		Use:   "enrichctl",
		Short: "Anonymize, enrich, restore and render documents locally",
		Long: `enrichctl runs the document steps of the enrichment workers on local files.
The mapping file written by "anonymize" holds the original values: keep it private
and delete it once "restore" has run.`,
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.HelpFunc()(cmd, args)
		},
	}

	flags := root.PersistentFlags()
	flags.String("log-level", "warn", "Log level (debug, info, warn, error)")
	flags.String("templates-dir", "templates", "Directory holding template files")
	flags.String("templates-registry", "", "Template registry file (default <templates-dir>/registry.json)")
	_ = v.BindPFlags(flags)

	root.AddCommand(
		newAnonymizeCmd(s),
		newRestoreCmd(s),
		newRenderCmd(s),
		newRunCmd(s),
		newTemplatesCmd(s),
	)
	return root
}

// readInput reads path, or stdin when path is "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

func readObject(cmd *cobra.Command, path string) (map[string]interface{}, error) {
	raw, err := readInput(cmd, path)
	if err != nil {
		return nil, err
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%s: expected a JSON object: %w", path, err)
	}
	return doc, nil
}

func writeJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// writeMapping stores m readable by the owner only.
func writeMapping(path string, m *anonymizer.Mapping) error {
	raw, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o600)
}

func readMapping(path string) (*anonymizer.Mapping, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m := anonymizer.NewMapping()
	if err := json.Unmarshal(raw, m); err != nil {
		return nil, fmt.Errorf("mapping %s: %w", path, err)
	}
	return m, nil
}

func commandTimeout(cmd *cobra.Command) time.Duration {
	d, err := cmd.Flags().GetDuration("timeout")
	if err != nil || d <= 0 {
		return time.Minute
	}
	return d
}
