package assessment

import (
	"fmt"
	"strings"

	"pillarscan/internal/api"
)

// FormatRecommendations renders the assessment as the single text blob
// persisted on the scan record: the executive summary followed by one section
// per pillar in stable order. Errored pillars render as "N/A".
func FormatRecommendations(a *api.Assessment) string {
	var b strings.Builder
	fmt.Fprintf(&b, "EXECUTIVE SUMMARY:\n%s\n\nPILLAR ASSESSMENTS:\n", a.ExecutiveSummary)

	for _, pillar := range pillarOrder {
		analysis := "N/A"
		if pa, ok := a.PillarAssessments[pillar]; ok && pa.Error == "" {
			analysis = pa.Analysis
		}
		heading := strings.ToUpper(strings.ReplaceAll(pillar, "_", " "))
		fmt.Fprintf(&b, "\n\n%s:\n%s\n", heading, analysis)
	}

	return b.String()
}
