package main

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"createmovie/internal/config"
	"createmovie/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	project    testsupport.ProjectFiles
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	base := testsupport.BaseDir(cfg)
	t.Setenv("HOME", filepath.Join(base, "home"))
	t.Setenv("NO_COLOR", "1")

	configPath := filepath.Join(base, "createmovie.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{
		cfg:        cfg,
		configPath: configPath,
		project:    testsupport.WriteProject(t, filepath.Join(base, "project")),
	}
}

func (e *cliTestEnv) inputArgs() []string {
	return []string{"--project", e.project.Project, "--storyboard", e.project.Storyboard}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd, cmdCtx := newRootCommand()
	defer cmdCtx.close()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
state_dir = %q
log_dir = %q

[logging]
level = "warn"

[allocation]
allow_generation = %t
knowledge_base = %q

[history]
enabled = %t
path = %q

[publish]
enabled = %t
redis_addr = %q
namespace = %q
`,
		cfg.Paths.StateDir,
		cfg.Paths.LogDir,
		cfg.Allocation.AllowGeneration,
		cfg.Allocation.KnowledgeBase,
		cfg.History.Enabled,
		cfg.History.Path,
		cfg.Publish.Enabled,
		cfg.Publish.RedisAddr,
		cfg.Publish.Namespace,
	)
	testsupport.WriteFile(t, path, content)
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func requireNotContains(t *testing.T, output, substr string) {
	t.Helper()
	if strings.Contains(output, substr) {
		t.Fatalf("expected %q not to contain %q", output, substr)
	}
}
