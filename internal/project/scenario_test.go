package project_test

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/jasmine-go/jasmine/internal/event"
	"github.com/jasmine-go/jasmine/internal/project"
)

type recordingRunner struct {
	calls atomic.Int32
	dir   string
	args  []string
}

func (r *recordingRunner) Run(ctx context.Context, dir, name string, args ...string) error {
	r.calls.Add(1)
	r.dir = dir
	r.args = args
	resolve := func(p string) string {
		if filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}
	// Stand in for the instrumenter: copy the staged tree to the output dir.
	return os.CopyFS(resolve(args[len(args)-1]), os.DirFS(resolve(args[len(args)-2])))
}

func onPath(string) (string, error) { return "/usr/bin/jscoverage", nil }

func writeProjectFile(root, rel, content string) {
	path := filepath.Join(root, rel)
	Expect(os.MkdirAll(filepath.Dir(path), 0755)).To(Succeed())
	Expect(os.WriteFile(path, []byte(content), 0644)).To(Succeed())
}

var _ = Describe("Project", func() {
	var (
		root   string
		runner *recordingRunner
		bus    *event.Bus
		ctx    context.Context
	)

	BeforeEach(func() {
		root = GinkgoT().TempDir()
		runner = &recordingRunner{}
		bus = event.NewBus()
		ctx = context.Background()
		GinkgoT().Setenv("JASMINE_CONFIG", "")
		GinkgoT().Setenv("JASMINE_COVERAGE_ENABLED", "")
		Expect(os.Unsetenv("JASMINE_COVERAGE_ENABLED")).To(Succeed())

		writeProjectFile(root, "public/javascripts/Player.js", "function Player() {}")
		writeProjectFile(root, "public/javascripts/Song.js", "function Song() {}")
		writeProjectFile(root, "spec/javascripts/PlayerSpec.js", "describe('Player', function() {});")
		writeProjectFile(root, "spec/javascripts/helpers/SpecHelper.js", "beforeEach(function() {});")
	})

	open := func() *project.Project {
		p, err := project.New(project.Options{
			ProjectRoot: root,
			Runner:      runner,
			LookPath:    onPath,
			Bus:         bus,
		})
		Expect(err).NotTo(HaveOccurred())
		return p
	}

	Context("with the example config", func() {
		BeforeEach(func() {
			writeProjectFile(root, "spec/javascripts/support/jasmine.yml", `
src_files:
  - public/javascripts/**/*.js
stylesheets:
  - stylesheets/**/*.css
helpers:
  - helpers/**/*.js
spec_files:
  - '**/*[sS]pec.js'
src_dir:
spec_dir: spec/javascripts
`)
		})

		It("resolves sources, helpers and specs in order", func() {
			p := open()

			src, err := p.SrcFiles(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(src).To(Equal([]string{"public/javascripts/Player.js", "public/javascripts/Song.js"}))

			Expect(p.JSFiles(ctx, "")).To(Equal([]string{
				"/public/javascripts/Player.js",
				"/public/javascripts/Song.js",
				"/__spec__/helpers/SpecHelper.js",
				"/__spec__/PlayerSpec.js",
			}))
			Expect(p.SpecFilesFullPaths()).To(Equal([]string{filepath.Join(root, "spec/javascripts/PlayerSpec.js")}))
			Expect(p.UserStylesheets()).To(BeEmpty())
		})

		It("narrows the specs with a filter", func() {
			writeProjectFile(root, "spec/javascripts/SongSpec.js", "describe('Song', function() {});")
			p := open()

			Expect(p.JSFiles(ctx, "Song*")).To(Equal([]string{
				"/public/javascripts/Player.js",
				"/public/javascripts/Song.js",
				"/__spec__/helpers/SpecHelper.js",
				"/__spec__/SongSpec.js",
			}))
		})

		It("never instruments", func() {
			p := open()
			_, err := p.SrcFiles(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(runner.calls.Load()).To(BeZero())
			Expect(p.SrcDir()).To(Equal(root))
		})
	})

	Context("with coverage enabled", func() {
		BeforeEach(func() {
			writeProjectFile(root, "spec/javascripts/support/jasmine.yml", `
src_files:
  - public/javascripts/*.js
coverage:
  enabled: true
  temp_dir: "{{ .ProjectRoot }}/build tmp"
`)
		})

		It("instruments once and serves from the instrumented dir", func() {
			p := open()
			instrumented := filepath.Join(root, "build tmp", "javascripts", "instrumented")

			var published atomic.Int32
			bus.Subscribe(event.CoverageInstrumented, func(event.Event) { published.Add(1) })

			for i := 0; i < 3; i++ {
				js, err := p.JSFiles(ctx, "")
				Expect(err).NotTo(HaveOccurred())
				Expect(js).To(HaveLen(4))
			}

			Expect(runner.calls.Load()).To(Equal(int32(1)))
			Expect(published.Load()).To(Equal(int32(1)))
			Expect(runner.dir).To(Equal(root))
			Expect(runner.args).To(ContainElement(instrumented))
			Expect(p.SrcDir()).To(Equal(instrumented))
			Expect(filepath.Join(instrumented, "public/javascripts/Player.js")).To(BeARegularFile())
		})

		It("writes a report from the instrumented viewer", func() {
			p := open()
			_, err := p.SrcFiles(ctx)
			Expect(err).NotTo(HaveOccurred())

			for _, asset := range []string{
				"jscoverage.css", "jscoverage-highlight.css", "jscoverage.html",
				"jscoverage-ie.css", "jscoverage.js", "jscoverage-throbber.gif",
			} {
				writeProjectFile(filepath.Join(root, "build tmp", "javascripts", "instrumented"), asset, asset)
			}

			report, err := p.Reporter(bus).Save([]byte(`{"public/javascripts/Player.js":[null,1]}`))
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Dir).To(Equal(filepath.Join(root, "public", "coverage")))
			Expect(report.File).To(BeARegularFile())

			script, err := os.ReadFile(filepath.Join(report.Dir, "jscoverage.js"))
			Expect(err).NotTo(HaveOccurred())
			Expect(string(script)).To(HaveSuffix("jscoverage_isReport = true;\n"))
		})
	})
})
