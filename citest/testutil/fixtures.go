package testutil

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"path/filepath"
)

// RandomString generates a random string of n characters
func RandomString(n int) string {
	bytes := make([]byte, n/2+1)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)[:n]
}

// ExampleProject is the player/song example project.
var ExampleProject = map[string]string{
	"spec/javascripts/support/jasmine.yml": `src_files:
  - public/javascripts/**/*.js
stylesheets:
  - stylesheets/**/*.css
helpers:
  - helpers/**/*.js
spec_files:
  - '**/*[sS]pec.js'
src_dir:
spec_dir: spec/javascripts
`,
	"public/javascripts/Player.js":           "function Player() {}\n",
	"public/javascripts/Song.js":             "function Song() {}\n",
	"stylesheets/player.css":                 "body {}\n",
	"spec/javascripts/PlayerSpec.js":         "describe('Player', function() {});\n",
	"spec/javascripts/SongSpec.js":           "describe('Song', function() {});\n",
	"spec/javascripts/helpers/SpecHelper.js": "beforeEach(function() {});\n",
}

// TempProject is a jasmine project in a temp directory.
type TempProject struct {
	Dir string
}

// NewTempProject creates a temp project holding files.
func NewTempProject(files map[string]string) (*TempProject, error) {
	dir, err := os.MkdirTemp("", "jasmine-test-*")
	if err != nil {
		return nil, err
	}
	// Resolve symlinked temp dirs so paths compare equal to server output.
	if resolved, err := filepath.EvalSymlinks(dir); err == nil {
		dir = resolved
	}

	p := &TempProject{Dir: dir}
	for rel, content := range files {
		if err := p.Write(rel, content); err != nil {
			p.Cleanup()
			return nil, err
		}
	}
	return p, nil
}

// Path returns the absolute path of rel.
func (p *TempProject) Path(rel string) string {
	return filepath.Join(p.Dir, rel)
}

// Write writes content to rel, creating parent dirs.
func (p *TempProject) Write(rel, content string) error {
	path := p.Path(rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0644)
}

// Read reads rel.
func (p *TempProject) Read(rel string) (string, error) {
	content, err := os.ReadFile(p.Path(rel))
	if err != nil {
		return "", err
	}
	return string(content), nil
}

// Exists checks if rel exists
func (p *TempProject) Exists(rel string) bool {
	_, err := os.Stat(p.Path(rel))
	return err == nil
}

// Cleanup removes the project
func (p *TempProject) Cleanup() {
	os.RemoveAll(p.Dir)
}

// fakeInstrumenter copies the staged sources to the output dir, writes the
// viewer assets there and records its arguments in .args.
const fakeInstrumenter = `#!/bin/sh
eval src=\${$(($# - 1))}
eval dst=\${$#}
mkdir -p "$dst"
cp -R "$src"/. "$dst"/
for f in jscoverage.css jscoverage-highlight.css jscoverage.html jscoverage-ie.css jscoverage.js jscoverage-throbber.gif; do
  echo "/* $f */" > "$dst/$f"
done
for a in "$@"; do echo "$a"; done > "$dst/.args"
`

// InstallFakeInstrumenter writes a jscoverage stand-in to a new temp dir and
// returns that dir, to be prepended to PATH.
func InstallFakeInstrumenter() (string, error) {
	dir, err := os.MkdirTemp("", "jasmine-bin-*")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(dir, "jscoverage"), []byte(fakeInstrumenter), 0755); err != nil {
		os.RemoveAll(dir)
		return "", err
	}
	return dir, nil
}
