package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"pagecraft/internal/codegen"
	"pagecraft/internal/project"
	"pagecraft/internal/registry"
)

var (
	outDir   string
	onlyPage string
	copyToCB bool
)

func init() {
	generateCmd.Flags().StringVarP(&outDir, "out", "o", "", "output directory (default: config generate.output_dir)")
	generateCmd.Flags().StringVar(&onlyPage, "page", "", "generate a single page by route path")
	generateCmd.Flags().BoolVar(&copyToCB, "copy", false, "copy the generated page to the system clipboard (requires --page)")
}

// generateCmd renders every page of the project to Next.js source files.
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate Next.js pages from the project file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if copyToCB && onlyPage == "" {
			return fmt.Errorf("--copy requires --page")
		}

		doc, err := project.Load(projectPath)
		if err != nil {
			return err
		}
		reg, err := loadRegistry()
		if err != nil {
			return err
		}

		dir := outDir
		if dir == "" {
			dir = cfg.Generate.OutputDir
		}
		if doc.Settings.OutputDir != "" && outDir == "" {
			dir = doc.Settings.OutputDir
		}

		pages := doc.Pages
		if onlyPage != "" {
			page := findPage(doc, onlyPage)
			if page == nil {
				return fmt.Errorf("no page with path %q", onlyPage)
			}
			pages = []project.PageConfig{*page}
		}

		var (
			mu    sync.Mutex
			files []codegen.File
		)
		var g errgroup.Group
		for i := range pages {
			page := &pages[i]
			g.Go(func() error {
				generated, err := renderPage(page, reg)
				if err != nil {
					return fmt.Errorf("page %s: %w", page.Path, err)
				}
				mu.Lock()
				files = append(files, generated...)
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

		if copyToCB {
			var page *codegen.File
			for i := range files {
				if files[i].Type == codegen.FilePage {
					page = &files[i]
					break
				}
			}
			if page == nil {
				return fmt.Errorf("no page file generated for %q", onlyPage)
			}
			if err := clipboard.WriteAll(page.Content); err != nil {
				return fmt.Errorf("failed to copy to clipboard: %w", err)
			}
			fmt.Printf("Copied %s to clipboard\n", page.Path)
			return nil
		}

		if err := writeFiles(dir, files); err != nil {
			return err
		}

		logger.Info("generation complete",
			zap.Int("pages", len(pages)),
			zap.Int("files", len(files)),
			zap.String("out", dir))
		fmt.Printf("Generated %d files for %d pages in %s\n", len(files), len(pages), dir)
		return nil
	},
}

func renderPage(page *project.PageConfig, reg *registry.Registry) ([]codegen.File, error) {
	snap, err := page.BuildSnapshot()
	if err != nil {
		return nil, err
	}
	return codegen.Generate(page.Page(), snap, reg)
}

func writeFiles(dir string, files []codegen.File) error {
	for _, f := range files {
		target := filepath.Join(dir, f.Path)
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		if err := os.WriteFile(target, []byte(f.Content), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", target, err)
		}
		logger.Debug("wrote file", zap.String("path", target))
	}
	return nil
}
