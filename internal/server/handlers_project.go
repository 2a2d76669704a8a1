package server

import (
	"net/http"

	"github.com/jasmine-go/jasmine/pkg/types"
)

// ProjectInfo describes the served project.
type ProjectInfo struct {
	ProjectRoot     string        `json:"projectRoot"`
	ConfigFile      string        `json:"configFile"`
	SrcDir          string        `json:"srcDir"`
	SpecDir         string        `json:"specDir"`
	CoverageEnabled bool          `json:"coverageEnabled"`
	Config          *types.Config `json:"config"`
}

// getManifest handles GET /__files__
func (s *Server) getManifest(w http.ResponseWriter, r *http.Request) {
	filter := r.URL.Query().Get("spec_filter")

	manifest, err := s.Project().Manifest(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, manifest)
}

// getProject handles GET /__project__
func (s *Server) getProject(w http.ResponseWriter, r *http.Request) {
	p := s.Project()
	writeJSON(w, http.StatusOK, ProjectInfo{
		ProjectRoot:     p.ProjectRoot(),
		ConfigFile:      p.ConfigFile(),
		SrcDir:          p.SrcDir(),
		SpecDir:         p.SpecDir(),
		CoverageEnabled: p.CoverageEnabled(),
		Config:          p.Config(),
	})
}
