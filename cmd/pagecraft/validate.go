package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pagecraft/internal/canvas"
	"pagecraft/internal/project"
)

// validateCmd loads the project and checks every page's tree invariants.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the project file and every page's tree invariants",
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := project.Load(projectPath)
		if err != nil {
			return err
		}
		reg, err := loadRegistry()
		if err != nil {
			return err
		}

		failures := 0
		for i := range doc.Pages {
			page := &doc.Pages[i]
			s := canvas.NewStore(reg, canvas.WithLogger(logger))
			if err := project.LoadIntoStore(s, page); err != nil {
				logger.Error("page failed validation", zap.String("path", page.Path), zap.Error(err))
				fmt.Printf("  FAIL %s: %v\n", page.Path, err)
				failures++
				continue
			}
			if err := s.CheckIntegrity(); err != nil {
				fmt.Printf("  FAIL %s: %v\n", page.Path, err)
				failures++
				continue
			}
			fmt.Printf("  ok   %s (%d components)\n", page.Path, s.Len())
		}

		if failures > 0 {
			return fmt.Errorf("%d of %d pages failed validation", failures, len(doc.Pages))
		}
		fmt.Printf("Project valid: %d pages\n", len(doc.Pages))
		return nil
	},
}

// inspectCmd prints the component tree of one page.
var inspectCmd = &cobra.Command{
	Use:   "inspect [page-path]",
	Short: "Print the component tree of a page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := project.Load(projectPath)
		if err != nil {
			return err
		}
		page := findPage(doc, args[0])
		if page == nil {
			return fmt.Errorf("no page with path %q", args[0])
		}

		snap, err := page.BuildSnapshot()
		if err != nil {
			return err
		}

		fmt.Printf("%s (%s)\n", page.Title, page.Path)
		for _, rootID := range snap.RootIDs {
			printTree(snap, rootID, 1)
		}
		return nil
	},
}

func findPage(doc *project.Document, path string) *project.PageConfig {
	for i := range doc.Pages {
		if doc.Pages[i].Path == path {
			return &doc.Pages[i]
		}
	}
	return nil
}

func printTree(snap canvas.Snapshot, id string, depth int) {
	inst, ok := snap.Components[id]
	if !ok {
		return
	}
	name := inst.Name
	if name == "" {
		name = string(inst.Kind)
	}
	flags := ""
	if inst.Locked {
		flags += " [locked]"
	}
	if inst.Hidden {
		flags += " [hidden]"
	}
	fmt.Printf("%s%s <%s>%s\n", strings.Repeat("  ", depth), name, inst.Kind, flags)
	for _, child := range inst.ChildIDs {
		printTree(snap, child, depth+1)
	}
}
