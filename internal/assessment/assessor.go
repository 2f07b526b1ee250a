package assessment

import (
	"context"
	"log/slog"
	"math"

	"pillarscan/internal/api"

	"golang.org/x/sync/errgroup"
)

// baselineScore is the overall score when every pillar analysis succeeds.
// Errored pillars reduce it proportionally.
const baselineScore = 7.5

// summaryExtractLen bounds the per-pillar extract used in priority
// recommendations.
const summaryExtractLen = 200

const summaryFallback = "Executive summary unavailable: synthesis failed"

// Assessor runs the six pillar agents concurrently and synthesizes an
// executive summary once all have reported.
type Assessor struct {
	model  ModelClient
	logger *slog.Logger
}

func New(model ModelClient, log *slog.Logger) *Assessor {
	return &Assessor{model: model, logger: log}
}

// Assess produces the full multi-pillar assessment for one scan's results.
// Pillar failures are recorded per pillar and never abort the run; only a
// failure to serialize the input is fatal.
func (a *Assessor) Assess(ctx context.Context, results map[string]api.RegionResult) (*api.Assessment, error) {
	a.logger.Info("starting multi-agent assessment", "pillars", len(pillarOrder))

	outcomes := make([]api.PillarAssessment, len(pillarOrder))

	var g errgroup.Group
	for idx, pillar := range pillarOrder {
		idx, pillar := idx, pillar
		g.Go(func() error {
			outcomes[idx] = a.analyzePillar(ctx, pillar, results)
			return nil
		})
	}
	// Join barrier: synthesis needs every pillar's outcome, success or error.
	_ = g.Wait()

	assessments := make(map[string]api.PillarAssessment, len(outcomes))
	for _, outcome := range outcomes {
		assessments[outcome.Pillar] = outcome
	}

	summary := a.synthesize(ctx, assessments)

	return &api.Assessment{
		ExecutiveSummary:        summary,
		PillarAssessments:       assessments,
		OverallScore:            overallScore(assessments),
		PriorityRecommendations: priorityRecommendations(assessments),
	}, nil
}

func (a *Assessor) analyzePillar(ctx context.Context, pillar string, results map[string]api.RegionResult) api.PillarAssessment {
	persona := agents[pillar]
	a.logger.Info("running pillar agent", "pillar", pillar, "agent", persona.name)

	prompt, err := pillarPrompt(pillar, results)
	if err == nil {
		var analysis string
		analysis, err = a.model.Complete(ctx, persona.systemPrompt, prompt)
		if err == nil {
			return api.PillarAssessment{
				Pillar:     pillar,
				Agent:      persona.name,
				Analysis:   analysis,
				FocusAreas: persona.focusAreas,
			}
		}
	}

	a.logger.Error("pillar analysis failed", "pillar", pillar, "error", err.Error())
	return api.PillarAssessment{Pillar: pillar, Error: err.Error()}
}

func (a *Assessor) synthesize(ctx context.Context, assessments map[string]api.PillarAssessment) string {
	persona := agents[PillarOperationalExcellence]
	summary, err := a.model.Complete(ctx, persona.systemPrompt, synthesisPrompt(assessments))
	if err != nil {
		a.logger.Error("executive summary synthesis failed", "error", err.Error())
		return summaryFallback
	}
	return summary
}

// overallScore scales the baseline by the fraction of pillars whose analysis
// succeeded, rounded to one decimal.
func overallScore(assessments map[string]api.PillarAssessment) float64 {
	succeeded := 0
	for _, a := range assessments {
		if a.Error == "" {
			succeeded++
		}
	}
	score := baselineScore * float64(succeeded) / float64(len(pillarOrder))
	return math.Round(score*10) / 10
}

// priorityRecommendations extracts a short lead of each successful pillar's
// analysis, in stable pillar order.
func priorityRecommendations(assessments map[string]api.PillarAssessment) []api.PriorityRecommendation {
	recommendations := make([]api.PriorityRecommendation, 0, len(pillarOrder))
	for _, pillar := range pillarOrder {
		a, ok := assessments[pillar]
		if !ok || a.Error != "" {
			continue
		}
		summary := a.Analysis
		if len(summary) > summaryExtractLen {
			summary = summary[:summaryExtractLen] + "..."
		}
		recommendations = append(recommendations, api.PriorityRecommendation{
			Pillar:  pillar,
			Agent:   a.Agent,
			Summary: summary,
		})
	}
	return recommendations
}
