package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"createmovie/internal/allocation"
	"createmovie/internal/config"
	"createmovie/internal/knowledge"
	"createmovie/internal/logging"
	"createmovie/internal/material"
	"createmovie/internal/strategy"
)

// inputFlags are the flags shared by every command that runs an allocation.
type inputFlags struct {
	project    string
	storyboard string
	metadata   string
	strategy   string
	knowledge  string
	reset      bool
}

func (f *inputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.project, "project", "p", "", "Project configuration YAML")
	cmd.Flags().StringVarP(&f.storyboard, "storyboard", "s", "", "Storyboard YAML or JSON with a cuts list")
	cmd.Flags().StringVarP(&f.metadata, "metadata", "m", "", "Material metadata YAML (default: <project>/source_materials/metadata/photo_descriptions.yaml)")
	cmd.Flags().StringVar(&f.strategy, "strategy", "", "Matching strategy (default: project type, then allocation.default_project_type)")
	cmd.Flags().StringVarP(&f.knowledge, "knowledge", "k", "", "Research knowledge base YAML for the research_aware strategy")
	cmd.Flags().BoolVar(&f.reset, "reset-assignments", false, "Ignore assigned_to values already present in the metadata")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("storyboard")
}

type allocationInputs struct {
	projectPath  string
	project      material.ProjectConfig
	metadataPath string
	pool         []*material.Material
	cuts         []material.Cut
}

func loadInputs(f inputFlags) (*allocationInputs, error) {
	if strings.TrimSpace(f.project) == "" {
		return nil, errors.New("--project is required")
	}
	if strings.TrimSpace(f.storyboard) == "" {
		return nil, errors.New("--storyboard is required")
	}

	projectPath, err := config.ExpandPath(f.project)
	if err != nil {
		return nil, err
	}
	project, err := material.LoadProject(projectPath)
	if err != nil {
		return nil, err
	}

	metadataPath := project.MetadataPath()
	if strings.TrimSpace(f.metadata) != "" {
		if metadataPath, err = config.ExpandPath(f.metadata); err != nil {
			return nil, err
		}
	}
	pool, err := material.LoadPool(metadataPath, project.MaterialsRoot())
	if err != nil {
		return nil, err
	}
	if f.reset {
		for _, m := range pool {
			m.AssignedTo = nil
		}
	}

	storyboardPath, err := config.ExpandPath(f.storyboard)
	if err != nil {
		return nil, err
	}
	cuts, err := material.LoadStoryboard(storyboardPath)
	if err != nil {
		return nil, err
	}

	return &allocationInputs{
		projectPath:  projectPath,
		project:      project,
		metadataPath: metadataPath,
		pool:         pool,
		cuts:         cuts,
	}, nil
}

// resolveStrategy picks the strategy from the flag, the project type, or the
// configured default, in that order, and loads the knowledge base when the
// research-aware strategy needs one.
func (c *commandContext) resolveStrategy(f inputFlags, project material.ProjectConfig) (strategy.Strategy, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(f.strategy)
	if name == "" {
		name = project.ProjectType
	}
	if name == "" {
		name = cfg.Allocation.DefaultProjectType
	}
	kind := strategy.ParseKind(name)
	if kind != strategy.ResearchAware {
		return strategy.New(kind, nil), nil
	}

	path := strings.TrimSpace(f.knowledge)
	if path == "" {
		path = cfg.Allocation.KnowledgeBase
	}
	if path == "" {
		logging.WarnWithContext(c.log(), "no knowledge base configured; research_aware falls back to tourism bonuses", "knowledge_missing",
			logging.String(logging.FieldStrategy, kind.String()),
			logging.String(logging.FieldErrorHint, "pass --knowledge or set allocation.knowledge_base"),
		)
		return strategy.New(kind, nil), nil
	}
	expanded, err := config.ExpandPath(path)
	if err != nil {
		return nil, err
	}
	db, err := knowledge.Load(expanded)
	if err != nil {
		return nil, fmt.Errorf("load knowledge base: %w", err)
	}
	return strategy.New(kind, db), nil
}

func (c *commandContext) newEngine(f inputFlags, in *allocationInputs, opts ...allocation.Option) (*allocation.Engine, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	strat, err := c.resolveStrategy(f, in.project)
	if err != nil {
		return nil, err
	}
	base := []allocation.Option{
		allocation.WithLogger(c.log()),
		allocation.WithAllowGeneration(cfg.Allocation.AllowGeneration),
	}
	return allocation.New(in.project, strat, append(base, opts...)...), nil
}
