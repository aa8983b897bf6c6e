// cmd/tools/registry-updater/main.go
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"enrichment-workers/internal/injector"
	"enrichment-workers/pkg/registry"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var registryPath string

	root := &cobra.Command{
		Use:          "registry-updater",
		Short:        "Maintain the document template registry",
		SilenceUsage: true,
		Example: `  registry-updater add --id cv-modern --kind cv --file cv/modern.html --display-name "CV moderne"
  registry-updater update --id cv-modern --field version --value 1.1.0
  registry-updater validate --registry templates/registry.json`,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.HelpFunc()(cmd, args)
		},
	}
	root.PersistentFlags().StringVar(&registryPath, "registry", "templates/registry.json", "Path to registry file")

	root.AddCommand(newAddCmd(&registryPath), newUpdateCmd(&registryPath), newValidateCmd(&registryPath))
	return root
}

func newAddCmd(registryPath *string) *cobra.Command {
	var (
		entry registry.TemplateEntry
		tags  string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a template to the registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry.LoadRegistry(*registryPath)
			if os.IsNotExist(err) {
				reg = &registry.TemplateRegistry{Version: "1.0.0"}
			} else if err != nil {
				return fmt.Errorf("failed to load registry: %w", err)
			}

			for _, tag := range strings.Split(tags, ",") {
				if tag = strings.TrimSpace(tag); tag != "" {
					entry.Tags = append(entry.Tags, tag)
				}
			}
			if err := reg.Add(entry); err != nil {
				return err
			}
			if err := registry.Save(reg, *registryPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added template: %s\n", entry.ID)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&entry.ID, "id", "", "Template ID (e.g. cv-modern)")
	f.StringVar(&entry.Path, "file", "", "Template file, relative to the registry directory")
	f.StringVar(&entry.Kind, "kind", "generic", "Document kind used for enrichment")
	f.StringVar(&entry.DisplayName, "display-name", "", "Display name")
	f.StringVar(&entry.Description, "description", "", "Description")
	f.StringVar(&entry.Version, "version", "1.0.0", "Template version")
	f.StringVar(&tags, "tags", "", "Comma separated tags")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newUpdateCmd(registryPath *string) *cobra.Command {
	var id, field, value string
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update one field of a template entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry.LoadRegistry(*registryPath)
			if err != nil {
				return fmt.Errorf("failed to load registry: %w", err)
			}
			if err := reg.Update(id, field, value); err != nil {
				return err
			}
			if err := registry.Save(reg, *registryPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated template %s, field %s to %s\n", id, field, value)
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Template ID to update")
	cmd.Flags().StringVar(&field, "field", "", "Field to update (displayName, description, kind, path, version, tags)")
	cmd.Flags().StringVar(&value, "value", "", "New value for the field")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("field")
	return cmd
}

// newValidateCmd checks that every entry points to a readable file inside the
// registry directory whose markers are balanced.
func newValidateCmd(registryPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the registry and its template files",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry.LoadRegistry(*registryPath)
			if err != nil {
				return fmt.Errorf("failed to load registry: %w", err)
			}
			if len(reg.Templates) == 0 {
				return fmt.Errorf("registry contains no templates")
			}

			dir := filepath.Dir(*registryPath)
			var problems []string
			for _, t := range reg.Templates {
				if !filepath.IsLocal(t.Path) {
					problems = append(problems, fmt.Sprintf("%s: path %q escapes the registry directory", t.ID, t.Path))
					continue
				}
				body, err := os.ReadFile(filepath.Join(dir, t.Path))
				if err != nil {
					problems = append(problems, fmt.Sprintf("%s: %v", t.ID, err))
					continue
				}
				if err := injector.Validate(string(body)); err != nil {
					problems = append(problems, fmt.Sprintf("%s: %v", t.ID, err))
				}
			}
			if len(problems) > 0 {
				return fmt.Errorf("registry validation failed:\n  %s", strings.Join(problems, "\n  "))
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Registry validation passed. Found %d templates.\n", len(reg.Templates))
			return nil
		},
	}
}
