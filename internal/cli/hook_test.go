package cli

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func TestGenerateHookScript(t *testing.T) {
	script := generateHookScript("error", "text", "")

	if !strings.HasPrefix(script, hookMarkerStart+"\n") {
		t.Error("Script missing start marker")
	}
	if !strings.HasSuffix(script, hookMarkerEnd+"\n") {
		t.Error("Script missing end marker")
	}
	if !strings.Contains(script, "difflens review staged --fail-on error --format text\n") {
		t.Error("Script missing difflens command with correct flags")
	}
	if !strings.Contains(script, "DIFFLENS_EXIT=$?") {
		t.Error("Script missing exit code capture")
	}
	if !strings.Contains(script, "findings at or above error") {
		t.Error("Script should name the threshold")
	}
	if !strings.Contains(script, "allowing commit") {
		t.Error("Script missing fallthrough for review errors")
	}
}

func TestGenerateHookScript_Rules(t *testing.T) {
	script := generateHookScript("warning", "json", ".difflens/rules.yaml")

	if !strings.Contains(script, "--fail-on warning --format json --rules \".difflens/rules.yaml\"") {
		t.Errorf("Script doesn't pass custom flags:\n%s", script)
	}
}

func TestReplaceHookSection_NoExisting(t *testing.T) {
	existing := "#!/bin/sh\nsome-other-hook\n"
	section := generateHookScript("error", "text", "")

	result := replaceHookSection(existing, section)

	if result != existing+section {
		t.Errorf("section should be appended, got:\n%s", result)
	}
}

func TestReplaceHookSection_ExistingSection(t *testing.T) {
	oldSection := generateHookScript("info", "text", "")
	existing := "#!/bin/sh\nbefore\n" + oldSection + "after\n"
	newSection := generateHookScript("error", "json", "")

	result := replaceHookSection(existing, newSection)

	if result != "#!/bin/sh\nbefore\n"+newSection+"after\n" {
		t.Errorf("unexpected result:\n%s", result)
	}
	if strings.Count(result, hookMarkerStart) != 1 {
		t.Error("section should appear once")
	}
}

func TestReplaceHookSection_NoTrailingNewline(t *testing.T) {
	section := generateHookScript("error", "text", "")
	result := replaceHookSection("#!/bin/sh\nsome-hook", section)

	if !strings.HasPrefix(result, "#!/bin/sh\nsome-hook\n"+hookMarkerStart) {
		t.Errorf("section should start on its own line:\n%s", result)
	}
}

func TestRemoveHookSection(t *testing.T) {
	section := generateHookScript("error", "text", "")
	existing := "#!/bin/sh\nbefore\n" + section + "after\n"

	if got := removeHookSection(existing); got != "#!/bin/sh\nbefore\nafter\n" {
		t.Errorf("removeHookSection() = %q", got)
	}
	if got := removeHookSection("#!/bin/sh\nsome-hook\n"); got != "#!/bin/sh\nsome-hook\n" {
		t.Error("Content without a difflens section should be unchanged")
	}
}

func initRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	dir := t.TempDir()
	if out, err := exec.Command("git", "init", "-q", dir).CombinedOutput(); err != nil {
		t.Fatalf("git init: %v\n%s", err, out)
	}
	return dir
}

func TestHookInstallUninstall(t *testing.T) {
	dir := initRepo(t)
	hookPath := filepath.Join(dir, ".git", "hooks", "pre-commit")

	code, out, _ := runCLI(t, "", "hook", "install", "-C", dir)
	if code != ExitSuccess {
		t.Fatalf("install exit = %d", code)
	}
	if !strings.Contains(out, "Installed difflens pre-commit hook") {
		t.Errorf("install output = %q", out)
	}
	data, err := os.ReadFile(hookPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "#!/bin/sh\n"+hookMarkerStart) {
		t.Errorf("hook content:\n%s", data)
	}

	// Reinstalling replaces the section in place.
	if code, _, _ := runCLI(t, "", "hook", "install", "-C", dir, "--fail-on", "warning"); code != ExitSuccess {
		t.Fatalf("reinstall exit = %d", code)
	}
	data, _ = os.ReadFile(hookPath)
	if strings.Count(string(data), hookMarkerStart) != 1 || !strings.Contains(string(data), "--fail-on warning") {
		t.Errorf("hook after reinstall:\n%s", data)
	}

	code, out, _ = runCLI(t, "", "hook", "uninstall", "-C", dir)
	if code != ExitSuccess || !strings.Contains(out, "Removed difflens pre-commit hook") {
		t.Fatalf("uninstall: exit=%d out=%q", code, out)
	}
	if _, err := os.Stat(hookPath); !os.IsNotExist(err) {
		t.Error("hook file should be removed when only the difflens section was present")
	}
}

func TestHookUninstall_KeepsOtherHooks(t *testing.T) {
	dir := initRepo(t)
	hookPath := filepath.Join(dir, ".git", "hooks", "pre-commit")
	if err := os.MkdirAll(filepath.Dir(hookPath), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(hookPath, []byte("#!/bin/sh\nmake lint\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	if code, _, _ := runCLI(t, "", "hook", "install", "-C", dir); code != ExitSuccess {
		t.Fatalf("install exit = %d", code)
	}
	code, out, _ := runCLI(t, "", "hook", "uninstall", "-C", dir)
	if code != ExitSuccess || !strings.Contains(out, "Removed difflens section") {
		t.Fatalf("uninstall: exit=%d out=%q", code, out)
	}
	data, err := os.ReadFile(hookPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "#!/bin/sh\nmake lint\n" {
		t.Errorf("hook content = %q", data)
	}
}

func TestHookUninstall_NoHook(t *testing.T) {
	dir := initRepo(t)
	code, out, _ := runCLI(t, "", "hook", "uninstall", "-C", dir)
	if code != ExitSuccess || !strings.Contains(out, "No pre-commit hook found") {
		t.Errorf("exit=%d out=%q", code, out)
	}
}
