// Package deps checks the external tools and filesystem access the
// pipeline needs before any stage runs.
package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"slidecast/internal/config"
)

// Requirement defines an external binary the pipeline relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

// CheckSystemDeps evaluates the binaries the configured pipeline will
// invoke. The espeak binary is only required when it is the selected
// synthesis engine.
func CheckSystemDeps(cfg *config.Config) []Status {
	requirements := []Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.Tools.FFmpeg,
			Description: "Required for clip composition and assembly",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.Tools.FFprobe,
			Description: "Required for media inspection",
		},
		{
			Name:        "LibreOffice",
			Command:     cfg.Tools.Soffice,
			Description: "Required for deck to PDF conversion",
		},
		{
			Name:        "pdftoppm",
			Command:     cfg.Tools.PDFToPPM,
			Description: "Required for PDF rasterization",
		},
		{
			Name:        "espeak-ng",
			Command:     cfg.Tools.Espeak,
			Description: "Required only for the espeak synthesis engine",
			Optional:    cfg.TTS.Engine != "espeak",
		},
	}
	return CheckBinaries(requirements)
}

// MissingRequired returns the non-optional dependencies that are
// unavailable.
func MissingRequired(statuses []Status) []Status {
	var missing []Status
	for _, status := range statuses {
		if !status.Optional && !status.Available {
			missing = append(missing, status)
		}
	}
	return missing
}
