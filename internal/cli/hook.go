package cli

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

const (
	hookMarkerStart = "# >>> difflens pre-commit hook >>>"
	hookMarkerEnd   = "# <<< difflens pre-commit hook <<<"
)

var (
	hookFailOn string
	hookFormat string
	hookRules  string
)

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Manage the git pre-commit hook",
}

var hookInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Review staged changes before every commit",
	RunE: func(cmd *cobra.Command, args []string) error {
		hookPath, err := getHookPath(flagDir)
		if err != nil {
			fail(err)
			return nil
		}

		section := generateHookScript(hookFailOn, hookFormat, hookRules)

		existing, err := os.ReadFile(hookPath)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			fail(fmt.Errorf("reading hook file: %w", err))
			return nil
		}

		content := "#!/bin/sh\n" + section
		if len(existing) > 0 {
			content = replaceHookSection(string(existing), section)
		}

		if err := os.MkdirAll(filepath.Dir(hookPath), 0o755); err != nil {
			fail(fmt.Errorf("creating hooks directory: %w", err))
			return nil
		}
		if err := os.WriteFile(hookPath, []byte(content), 0o755); err != nil {
			fail(fmt.Errorf("writing hook file: %w", err))
			return nil
		}

		fmt.Fprintf(stdout, "Installed difflens pre-commit hook at %s\n", hookPath)
		return nil
	},
}

var hookUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove the difflens pre-commit hook",
	RunE: func(cmd *cobra.Command, args []string) error {
		hookPath, err := getHookPath(flagDir)
		if err != nil {
			fail(err)
			return nil
		}

		existing, err := os.ReadFile(hookPath)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				fmt.Fprintln(stdout, "No pre-commit hook found.")
				return nil
			}
			fail(fmt.Errorf("reading hook file: %w", err))
			return nil
		}

		content := removeHookSection(string(existing))

		// Only a shebang left: the hook was ours alone.
		trimmed := strings.TrimSpace(content)
		if trimmed == "" || trimmed == "#!/bin/sh" || trimmed == "#!/bin/bash" {
			if err := os.Remove(hookPath); err != nil {
				fail(fmt.Errorf("removing hook file: %w", err))
				return nil
			}
			fmt.Fprintf(stdout, "Removed difflens pre-commit hook at %s\n", hookPath)
			return nil
		}

		if err := os.WriteFile(hookPath, []byte(content), 0o755); err != nil {
			fail(fmt.Errorf("writing hook file: %w", err))
			return nil
		}
		fmt.Fprintf(stdout, "Removed difflens section from %s\n", hookPath)
		return nil
	},
}

// getHookPath returns the pre-commit hook path of the repository at dir.
func getHookPath(dir string) (string, error) {
	args := []string{"rev-parse", "--git-dir"}
	if dir != "" {
		args = append([]string{"-C", dir}, args...)
	}
	out, err := exec.Command("git", args...).Output()
	if err != nil {
		return "", errors.New("not a git repository (git rev-parse --git-dir failed)")
	}
	gitDir := strings.TrimSpace(string(out))
	if dir != "" && !filepath.IsAbs(gitDir) {
		gitDir = filepath.Join(dir, gitDir)
	}
	return filepath.Join(gitDir, "hooks", "pre-commit"), nil
}

func generateHookScript(failOn, format, rules string) string {
	command := fmt.Sprintf("difflens review staged --fail-on %s --format %s", failOn, format)
	if rules != "" {
		command += fmt.Sprintf(" --rules %q", rules)
	}

	var b strings.Builder
	b.WriteString(hookMarkerStart + "\n")
	b.WriteString(command + "\n")
	b.WriteString("DIFFLENS_EXIT=$?\n")
	b.WriteString("if [ $DIFFLENS_EXIT -eq 1 ]; then\n")
	fmt.Fprintf(&b, "  echo \"difflens: findings at or above %s, commit blocked\"\n", failOn)
	b.WriteString("  exit 1\n")
	b.WriteString("elif [ $DIFFLENS_EXIT -ge 2 ]; then\n")
	b.WriteString("  echo \"difflens: review failed (exit $DIFFLENS_EXIT), allowing commit\"\n")
	b.WriteString("fi\n")
	b.WriteString(hookMarkerEnd + "\n")
	return b.String()
}

// replaceHookSection swaps an installed section for section, or appends it.
func replaceHookSection(existing, section string) string {
	start := strings.Index(existing, hookMarkerStart)
	end := strings.Index(existing, hookMarkerEnd)
	if start == -1 || end == -1 {
		if !strings.HasSuffix(existing, "\n") {
			existing += "\n"
		}
		return existing + section
	}
	after := strings.TrimPrefix(existing[end+len(hookMarkerEnd):], "\n")
	return existing[:start] + section + after
}

func removeHookSection(existing string) string {
	start := strings.Index(existing, hookMarkerStart)
	end := strings.Index(existing, hookMarkerEnd)
	if start == -1 || end == -1 {
		return existing
	}
	after := strings.TrimPrefix(existing[end+len(hookMarkerEnd):], "\n")
	return existing[:start] + after
}

func init() {
	hookCmd.AddCommand(hookInstallCmd)
	hookCmd.AddCommand(hookUninstallCmd)
	hookInstallCmd.Flags().StringVar(&hookFailOn, "fail-on", "error", "Fail on severity threshold (none, info, warning, error)")
	hookInstallCmd.Flags().StringVar(&hookFormat, "format", "text", "Output format (text, json, markdown, sarif, pretty)")
	hookInstallCmd.Flags().StringVar(&hookRules, "rules", "", "Rules pack passed to the hook")
}
