package config

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"

	"github.com/spf13/afero"
)

// TemplateData is everything a config template can see. Nothing else from
// the loading process is exposed.
type TemplateData struct {
	ProjectRoot string
	ConfigDir   string
	SpecDir     string
}

// NewTemplateData builds the template variables for a project.
func NewTemplateData(projectRoot, configDir string) TemplateData {
	return TemplateData{
		ProjectRoot: projectRoot,
		ConfigDir:   configDir,
		SpecDir:     ResolveDir(projectRoot, "", DefaultSpecDir),
	}
}

var templateFuncs = template.FuncMap{
	"env": os.Getenv,
	"seq": func(n int) []int {
		out := make([]int, n)
		for i := range out {
			out[i] = i
		}
		return out
	},
	"join": strings.Join,
}

// Render executes data as a text/template with the given variables.
func Render(data []byte, vars TemplateData) ([]byte, error) {
	tmpl, err := template.New("jasmine.yml").
		Funcs(templateFuncs).
		Option("missingkey=error").
		Parse(string(data))
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var (
	envPattern  = regexp.MustCompile(`\{env:([^}]+)\}`)
	filePattern = regexp.MustCompile(`\{file:([^}]+)\}`)
)

// interpolate processes {env:VAR} and {file:path} placeholders.
func interpolate(fsys afero.Fs, data []byte, baseDir string) []byte {
	str := string(data)

	str = envPattern.ReplaceAllStringFunc(str, func(match string) string {
		varName := envPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})

	str = filePattern.ReplaceAllStringFunc(str, func(match string) string {
		filePath := filePattern.FindStringSubmatch(match)[1]

		if strings.HasPrefix(filePath, "~/") {
			filePath = filepath.Join(os.Getenv("HOME"), filePath[2:])
		} else if !filepath.IsAbs(filePath) {
			filePath = filepath.Join(baseDir, filePath)
		}

		content, err := afero.ReadFile(fsys, filePath)
		if err != nil {
			return match // Keep original if file not found
		}
		return strings.TrimRight(string(content), "\r\n")
	})

	return []byte(str)
}
