package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pagecraft/internal/project"
	"pagecraft/internal/registry"
)

var projectPath string

func init() {
	rootCmd.PersistentFlags().StringVarP(&projectPath, "project", "p", "project.json", "project file path")
}

// loadRegistry builds the component catalog: builtins plus any YAML overlays
// from the configured overlay directory.
func loadRegistry() (*registry.Registry, error) {
	reg := registry.New()
	if err := reg.LoadOverlays(cfg.Generate.OverlaysDir); err != nil {
		return nil, fmt.Errorf("failed to load component overlays: %w", err)
	}
	return reg, nil
}

// initCmd scaffolds a project file and the default config.
var initCmd = &cobra.Command{
	Use:   "init [site-name]",
	Short: "Scaffold a new project file and default config",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := "my-site"
		if len(args) > 0 {
			name = args[0]
		}

		doc := &project.Document{
			Version: project.FormatVersion,
			Pages: []project.PageConfig{
				{Title: "Home", Path: "/"},
			},
			Settings:   project.Settings{SiteName: name},
			ExportedAt: time.Now().UTC(),
		}
		if err := project.Save(projectPath, doc); err != nil {
			return err
		}
		if err := cfg.Save(configPath); err != nil {
			return err
		}

		logger.Info("project scaffolded",
			zap.String("project", projectPath),
			zap.String("config", configPath),
			zap.String("site", name))
		fmt.Printf("Created %s and %s\n", projectPath, configPath)
		return nil
	},
}
