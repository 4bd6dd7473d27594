// Package repoctx inspects a checkout and reports what kind of project it
// is: project type, languages, frameworks, package manifest and the common
// tool config files present at the root.
package repoctx

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/mod/modfile"
)

// ErrRootNotFound is returned when the directory to inspect does not exist.
var ErrRootNotFound = errors.New("repository path does not exist")

// Context describes a repository checkout.
type Context struct {
	ProjectType string         `json:"projectType"`
	Languages   []string       `json:"languages"`
	Frameworks  []string       `json:"frameworks"`
	PackageInfo map[string]any `json:"packageInfo,omitempty"`
	ConfigFiles []string       `json:"configFiles"`
}

// ConfigFiles lists the root-level tool config files Detect looks for.
var ConfigFiles = []string{
	".eslintrc", ".eslintrc.json", ".eslintrc.js", ".prettierrc", ".prettier",
	"tsconfig.json", ".editorconfig", ".gitignore",
	"jest.config.js", "babel.config.js", "webpack.config.js",
	".golangci.yml", ".golangci.yaml", "setup.cfg", "tox.ini",
}

type depMarker struct {
	dep       string
	framework string
}

var nodeFrameworks = []depMarker{
	{"react", "React"},
	{"vue", "Vue"},
	{"angular", "Angular"},
	{"@angular/core", "Angular"},
	{"express", "Express"},
	{"next", "Next.js"},
	{"nuxt", "Nuxt.js"},
	{"gatsby", "Gatsby"},
	{"@nestjs/core", "NestJS"},
	{"mastra", "Mastra"},
	{"@mastra/core", "Mastra"},
}

var pythonFrameworks = []depMarker{
	{"django", "Django"},
	{"flask", "Flask"},
	{"fastapi", "FastAPI"},
}

var javaFrameworks = []depMarker{
	{"spring-boot", "Spring Boot"},
	{"spring-framework", "Spring Framework"},
}

var goFrameworks = []depMarker{
	{"github.com/gin-gonic/gin", "Gin"},
	{"github.com/labstack/echo", "Echo"},
	{"github.com/go-chi/chi", "chi"},
	{"github.com/spf13/cobra", "Cobra"},
}

// builder accumulates ordered, de-duplicated results.
type builder struct {
	ctx Context
}

func (b *builder) language(l string) {
	if !slices.Contains(b.ctx.Languages, l) {
		b.ctx.Languages = append(b.ctx.Languages, l)
	}
}

func (b *builder) framework(f string) {
	if !slices.Contains(b.ctx.Frameworks, f) {
		b.ctx.Frameworks = append(b.ctx.Frameworks, f)
	}
}

// Detect inspects root. Manifests are checked in a fixed order (package.json,
// requirements.txt, pyproject.toml, pom.xml, go.mod); when several are
// present the last one found decides ProjectType and PackageInfo while
// languages and frameworks accumulate.
func Detect(root string) (*Context, error) {
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRootNotFound, root)
		}
		return nil, fmt.Errorf("inspecting %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	b := &builder{ctx: Context{
		ProjectType: "Unknown",
		Languages:   []string{},
		Frameworks:  []string{},
		ConfigFiles: []string{},
	}}

	steps := []func(*builder, string) error{
		detectNode,
		detectRequirements,
		detectPyproject,
		detectMaven,
		detectGo,
	}
	for _, step := range steps {
		if err := step(b, root); err != nil {
			return nil, err
		}
	}

	for _, name := range ConfigFiles {
		if fileExists(filepath.Join(root, name)) {
			b.ctx.ConfigFiles = append(b.ctx.ConfigFiles, name)
		}
	}
	return &b.ctx, nil
}

func detectNode(b *builder, root string) error {
	data, ok, err := readOptional(filepath.Join(root, "package.json"))
	if !ok {
		return err
	}
	var pkg map[string]any
	if err := json.Unmarshal(data, &pkg); err != nil {
		return fmt.Errorf("parsing package.json: %w", err)
	}
	b.ctx.ProjectType = "Node.js"
	b.ctx.PackageInfo = pkg
	b.language("JavaScript/TypeScript")

	deps := map[string]bool{}
	for _, field := range []string{"dependencies", "devDependencies"} {
		if m, ok := pkg[field].(map[string]any); ok {
			for name := range m {
				deps[name] = true
			}
		}
	}
	for _, m := range nodeFrameworks {
		if deps[m.dep] {
			b.framework(m.framework)
		}
	}
	return nil
}

func detectRequirements(b *builder, root string) error {
	data, ok, err := readOptional(filepath.Join(root, "requirements.txt"))
	if !ok {
		return err
	}
	b.ctx.ProjectType = "Python"
	b.language("Python")
	text := strings.ToLower(string(data))
	for _, m := range pythonFrameworks {
		if strings.Contains(text, m.dep) {
			b.framework(m.framework)
		}
	}
	return nil
}

type pyproject struct {
	Project map[string]any `toml:"project"`
	Tool    struct {
		Poetry map[string]any `toml:"poetry"`
	} `toml:"tool"`
}

func detectPyproject(b *builder, root string) error {
	data, ok, err := readOptional(filepath.Join(root, "pyproject.toml"))
	if !ok {
		return err
	}
	var py pyproject
	if err := toml.Unmarshal(data, &py); err != nil {
		return fmt.Errorf("parsing pyproject.toml: %w", err)
	}
	b.ctx.ProjectType = "Python"
	b.language("Python")

	var names []string
	if deps, ok := py.Project["dependencies"].([]any); ok {
		for _, d := range deps {
			if s, ok := d.(string); ok {
				names = append(names, strings.ToLower(s))
			}
		}
	}
	if deps, ok := py.Tool.Poetry["dependencies"].(map[string]any); ok {
		for name := range deps {
			names = append(names, strings.ToLower(name))
		}
	}
	for _, m := range pythonFrameworks {
		for _, n := range names {
			if strings.HasPrefix(n, m.dep) {
				b.framework(m.framework)
				break
			}
		}
	}

	switch {
	case len(py.Project) > 0:
		b.ctx.PackageInfo = py.Project
	case len(py.Tool.Poetry) > 0:
		b.ctx.PackageInfo = py.Tool.Poetry
	}
	return nil
}

func detectMaven(b *builder, root string) error {
	data, ok, err := readOptional(filepath.Join(root, "pom.xml"))
	if !ok {
		return err
	}
	b.ctx.ProjectType = "Java"
	b.language("Java")
	pom := string(data)
	for _, m := range javaFrameworks {
		if strings.Contains(pom, m.dep) {
			b.framework(m.framework)
		}
	}
	return nil
}

func detectGo(b *builder, root string) error {
	path := filepath.Join(root, "go.mod")
	data, ok, err := readOptional(path)
	if !ok {
		return err
	}
	mf, err := modfile.ParseLax(path, data, nil)
	if err != nil {
		return fmt.Errorf("parsing go.mod: %w", err)
	}
	b.ctx.ProjectType = "Go"
	b.language("Go")

	info := map[string]any{}
	if mf.Module != nil {
		info["module"] = mf.Module.Mod.Path
	}
	if mf.Go != nil {
		info["go"] = mf.Go.Version
	}
	var requires []string
	for _, r := range mf.Require {
		requires = append(requires, r.Mod.Path)
		for _, m := range goFrameworks {
			if strings.HasPrefix(r.Mod.Path, m.dep) {
				b.framework(m.framework)
			}
		}
	}
	info["require"] = requires
	b.ctx.PackageInfo = info
	return nil
}

// readOptional reads path. ok is false when the file is absent or unreadable;
// err is set only in the unreadable case.
func readOptional(path string) (data []byte, ok bool, err error) {
	data, err = os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	return data, true, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
