package server

import (
	"net/http"
	"path"

	"github.com/spf13/afero"

	"github.com/jasmine-go/jasmine/internal/project"
)

// Paths served besides the project files.
const (
	CoveragePath = "/__coverage__"
	FilesPath    = "/__files__"
	ProjectPath  = "/__project__"
	EventsPath   = "/__events__"
)

// setupRoutes configures all routes.
func (s *Server) setupRoutes() {
	r := s.router

	// Coverage report sink
	r.Get(CoveragePath, s.saveCoverage)
	r.Post(CoveragePath, s.saveCoverage)

	r.Get(FilesPath, s.getManifest)
	r.Get(ProjectPath, s.getProject)

	// Event streaming (SSE)
	r.Get(EventsPath, s.events)

	// Spec and project files
	r.Get(project.SpecPath+"/*", s.serveDir(func(p *project.Project) string { return p.SpecDir() }, project.SpecPath))
	r.Get(project.RootPath+"/*", s.serveDir(func(p *project.Project) string { return p.ProjectRoot() }, project.RootPath))

	// Sources, under the paths /__files__ lists them with
	r.NotFound(s.serveSource)
}

// serveDir serves files below the directory dir picks from the current
// project, with prefix stripped from the request path.
func (s *Server) serveDir(dir func(*project.Project) string, prefix string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := s.Project()
		files := afero.NewHttpFs(afero.NewBasePathFs(p.Fs(), dir(p)))
		http.StripPrefix(prefix, http.FileServer(files.Dir("/"))).ServeHTTP(w, r)
	}
}

// serveSource serves a regular file below the project's source dir (the
// instrumented one when coverage is on) and cascades for anything else.
func (s *Server) serveSource(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		s.notFound(w, r)
		return
	}

	p := s.Project()
	fsys := afero.NewBasePathFs(p.Fs(), p.SrcDir())
	info, err := fsys.Stat(path.Clean("/" + r.URL.Path))
	if err != nil || !info.Mode().IsRegular() {
		s.notFound(w, r)
		return
	}
	http.FileServer(afero.NewHttpFs(fsys).Dir("/")).ServeHTTP(w, r)
}

// notFound tells an enclosing server to try its next handler.
func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.Header().Set("X-Cascade", "pass")
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte("Error..."))
}
