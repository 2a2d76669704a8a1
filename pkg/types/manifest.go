package types

// Manifest is the resolved file set handed to a browser runner.
type Manifest struct {
	JSFiles         []string `json:"jsFiles"`
	Stylesheets     []string `json:"stylesheets"`
	CoverageEnabled bool     `json:"coverageEnabled"`
}

// Report describes a persisted coverage report.
type Report struct {
	ID    string `json:"id"`
	Dir   string `json:"dir"`
	File  string `json:"file"`
	Bytes int    `json:"bytes"`
}
