package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"createmovie/internal/config"
	"createmovie/internal/material"
	"createmovie/internal/matcher"
)

func newMaterialsCommand(ctx *commandContext) *cobra.Command {
	materialsCmd := &cobra.Command{
		Use:   "materials",
		Short: "Inspect the material pool",
	}
	materialsCmd.AddCommand(newMaterialsListCommand(ctx))
	return materialsCmd
}

func newMaterialsListCommand(ctx *commandContext) *cobra.Command {
	var projectPath, metadataPath string
	var subject, timeOfDay, category string
	var unassigned bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List materials grouped by category",
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, project, err := loadPoolOnly(projectPath, metadataPath)
			if err != nil {
				return err
			}

			m := matcher.New(project)
			m.Index(pool)
			selected := filterMaterials(pool, m, subject, timeOfDay, category)
			if unassigned {
				kept := selected[:0]
				for _, mat := range selected {
					if !mat.IsAssigned() {
						kept = append(kept, mat)
					}
				}
				selected = kept
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, selected)
			}
			printMaterials(cmd.OutOrStdout(), selected, shouldColorize(cmd.OutOrStdout()))
			return nil
		},
	}

	cmd.Flags().StringVarP(&projectPath, "project", "p", "", "Project configuration YAML")
	cmd.Flags().StringVarP(&metadataPath, "metadata", "m", "", "Material metadata YAML")
	cmd.Flags().StringVar(&subject, "subject", "", "Only materials with this main subject")
	cmd.Flags().StringVar(&timeOfDay, "time", "", "Only materials shot at this time of day")
	cmd.Flags().StringVar(&category, "category", "", "Only materials in this category")
	cmd.Flags().BoolVar(&unassigned, "unassigned", false, "Only materials without an assigned cut")
	return cmd
}

func loadPoolOnly(projectPath, metadataPath string) ([]*material.Material, material.ProjectConfig, error) {
	var project material.ProjectConfig
	if strings.TrimSpace(projectPath) == "" && strings.TrimSpace(metadataPath) == "" {
		return nil, project, errors.New("--project or --metadata is required")
	}

	root := ""
	if strings.TrimSpace(projectPath) != "" {
		expanded, err := config.ExpandPath(projectPath)
		if err != nil {
			return nil, project, err
		}
		if project, err = material.LoadProject(expanded); err != nil {
			return nil, project, err
		}
		root = project.MaterialsRoot()
		if strings.TrimSpace(metadataPath) == "" {
			metadataPath = project.MetadataPath()
		}
	}
	expanded, err := config.ExpandPath(metadataPath)
	if err != nil {
		return nil, project, err
	}
	pool, err := material.LoadPool(expanded, root)
	if err != nil {
		return nil, project, err
	}
	return pool, project, nil
}

// filterMaterials intersects the index buckets named by the non-empty
// filters, keeping pool order.
func filterMaterials(pool []*material.Material, m *matcher.Matcher, subject, timeOfDay, category string) []*material.Material {
	var sets []map[string]bool
	add := func(list []*material.Material) {
		set := make(map[string]bool, len(list))
		for _, mat := range list {
			set[mat.ID] = true
		}
		sets = append(sets, set)
	}
	if strings.TrimSpace(subject) != "" {
		add(m.BySubject(subject))
	}
	if strings.TrimSpace(timeOfDay) != "" {
		add(m.ByTime(timeOfDay))
	}
	if strings.TrimSpace(category) != "" {
		add(m.ByCategory(strings.TrimSpace(category)))
	}

	out := make([]*material.Material, 0, len(pool))
	for _, mat := range pool {
		keep := true
		for _, set := range sets {
			if !set[mat.ID] {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, mat)
		}
	}
	return out
}

func printMaterials(out io.Writer, pool []*material.Material, colorize bool) {
	if len(pool) == 0 {
		fmt.Fprintln(out, "No materials match")
		return
	}

	var order []string
	groups := make(map[string][]*material.Material)
	for _, mat := range pool {
		if _, ok := groups[mat.Category]; !ok {
			order = append(order, mat.Category)
		}
		groups[mat.Category] = append(groups[mat.Category], mat)
	}

	title := cases.Title(language.Und)
	for i, cat := range order {
		if i > 0 {
			fmt.Fprintln(out)
		}
		heading := fmt.Sprintf("%s (%d)", title.String(strings.ReplaceAll(cat, "_", " ")), len(groups[cat]))
		for _, line := range renderSectionHeader(heading, colorize) {
			fmt.Fprintln(out, line)
		}
		rows := make([][]string, 0, len(groups[cat]))
		for _, mat := range groups[cat] {
			assigned := "-"
			if mat.AssignedTo != nil {
				assigned = fmt.Sprintf("%d", *mat.AssignedTo)
			}
			rows = append(rows, []string{
				mat.ID,
				fmt.Sprintf("%dx%d", mat.Width, mat.Height),
				yesNo(mat.IsHD()),
				fmt.Sprintf("%.2f", mat.QualityScore),
				material.Value(mat.TimeOfDay),
				mat.MainSubject,
				assigned,
			})
		}
		fmt.Fprintln(out, renderTable(
			[]string{"ID", "Size", "HD", "Quality", "Time", "Subject", "Cut"},
			rows,
			[]columnAlignment{alignLeft, alignRight, alignLeft, alignRight, alignLeft, alignLeft, alignRight},
		))
	}
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
