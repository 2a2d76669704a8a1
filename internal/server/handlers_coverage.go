package server

import (
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/jasmine-go/jasmine/internal/coverage"
)

// MaxReportSize bounds a submitted coverage payload.
const MaxReportSize = 256 << 20

// reportAck is the body returned for a saved report.
const reportAck = "<html><body>OK</body></html>"

// saveCoverage handles GET|POST /__coverage__. The payload is read from the
// "report" parameter, or from the body of a JSON request.
func (s *Server) saveCoverage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxReportSize)

	payload, err := reportPayload(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())
		return
	}
	if len(payload) == 0 {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "report parameter required")
		return
	}

	report, err := s.currentReporter().Save(payload)
	if err != nil {
		if errors.Is(err, coverage.ErrInvalidPayload) {
			writeError(w, http.StatusBadRequest, ErrCodeInvalidReport, err.Error())
			return
		}
		s.log.Error().Err(err).Msg("coverage report not saved")
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/html")
	w.Header().Set("X-Report-ID", report.ID)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(reportAck))
}

func reportPayload(r *http.Request) ([]byte, error) {
	if r.Method == http.MethodPost {
		if mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mediaType == "application/json" {
			return io.ReadAll(r.Body)
		}
	}
	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	return []byte(r.Form.Get("report")), nil
}
