package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pagecraft/internal/project"
)

// watchCmd regenerates output whenever the project file changes.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the project file and regenerate on change",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}

		dir := outDir
		if dir == "" {
			dir = cfg.Generate.OutputDir
		}

		var autosaves *project.AutosaveStore
		if cfg.Autosave.Enabled {
			autosaves, err = project.OpenAutosaveStore(cfg.Autosave.DatabasePath, cfg.Autosave.Keep)
			if err != nil {
				return fmt.Errorf("failed to open autosave store: %w", err)
			}
			defer autosaves.Close()
		}

		regenerate := func(doc *project.Document) {
			if autosaves != nil {
				if err := autosaves.Put(projectPath, doc); err != nil {
					logger.Warn("autosave failed", zap.Error(err))
				}
			}
			written := 0
			for i := range doc.Pages {
				page := &doc.Pages[i]
				files, err := renderPage(page, reg)
				if err != nil {
					logger.Error("regeneration failed", zap.String("page", page.Path), zap.Error(err))
					continue
				}
				if err := writeFiles(dir, files); err != nil {
					logger.Error("write failed", zap.String("page", page.Path), zap.Error(err))
					continue
				}
				written += len(files)
			}
			fmt.Printf("Regenerated %d files\n", written)
		}

		w, err := project.NewWatcher(projectPath,
			regenerate,
			func(err error) { logger.Warn("reload failed", zap.Error(err)) },
			logger)
		if err != nil {
			return err
		}
		if err := w.Start(); err != nil {
			return err
		}
		defer w.Stop()

		// Generate once up front so the watch starts from current state.
		if doc, err := project.Load(projectPath); err == nil {
			regenerate(doc)
		} else {
			logger.Warn("initial load failed", zap.Error(err))
		}

		fmt.Printf("Watching %s (Ctrl-C to stop)\n", projectPath)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		fmt.Println("\nStopped.")
		return nil
	},
}
