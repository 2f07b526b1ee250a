// Package assessment turns accumulated region scan results into a
// multi-pillar Well-Architected assessment. Each pillar is analyzed by a
// specialized agent persona over the same prompt-in/text-out model client,
// then a synthesis pass produces the executive summary.
package assessment

import (
	"encoding/json"
	"fmt"

	"pillarscan/internal/api"
)

// Pillar keys, stable across persistence and API responses.
const (
	PillarOperationalExcellence = "operational_excellence"
	PillarSecurity              = "security"
	PillarReliability           = "reliability"
	PillarPerformanceEfficiency = "performance_efficiency"
	PillarCostOptimization      = "cost_optimization"
	PillarSustainability        = "sustainability"
)

// agent is one pillar's analysis persona.
type agent struct {
	name         string
	systemPrompt string
	focusAreas   []string
}

// pillarOrder fixes iteration order for prompts and formatted output.
var pillarOrder = []string{
	PillarOperationalExcellence,
	PillarSecurity,
	PillarReliability,
	PillarPerformanceEfficiency,
	PillarCostOptimization,
	PillarSustainability,
}

var agents = map[string]agent{
	PillarOperationalExcellence: {
		name: "Operational Excellence Agent",
		systemPrompt: `You are an AWS Operational Excellence expert specializing in:
- Infrastructure as Code (IaC) best practices
- CI/CD pipeline optimization
- Monitoring and observability
- Incident response and management
- Automation and orchestration
- Change management
- Operational readiness

Analyze AWS resources and provide specific, actionable recommendations for operational excellence.`,
		focusAreas: []string{"automation", "monitoring", "cicd", "incident_management"},
	},
	PillarSecurity: {
		name: "Security Agent",
		systemPrompt: `You are an AWS Security expert specializing in:
- Identity and Access Management (IAM)
- Data protection and encryption
- Infrastructure protection
- Detective controls
- Incident response
- Compliance and governance
- Security best practices

Analyze AWS resources and identify security vulnerabilities with remediation steps.`,
		focusAreas: []string{"iam", "encryption", "network_security", "compliance"},
	},
	PillarReliability: {
		name: "Reliability Agent",
		systemPrompt: `You are an AWS Reliability expert specializing in:
- High availability architecture
- Disaster recovery planning
- Backup and restore strategies
- Fault tolerance
- Auto-scaling and load balancing
- Multi-AZ and multi-region deployments
- Resilience testing

Analyze AWS resources and recommend improvements for reliability and availability.`,
		focusAreas: []string{"high_availability", "disaster_recovery", "fault_tolerance", "backup"},
	},
	PillarPerformanceEfficiency: {
		name: "Performance Efficiency Agent",
		systemPrompt: `You are an AWS Performance Efficiency expert specializing in:
- Resource selection and optimization
- Compute optimization (EC2, Lambda, ECS)
- Storage optimization (S3, EBS, EFS)
- Database performance tuning
- Network optimization
- Caching strategies
- Performance monitoring

Analyze AWS resources and identify performance optimization opportunities.`,
		focusAreas: []string{"compute", "storage", "database", "network", "caching"},
	},
	PillarCostOptimization: {
		name: "Cost Optimization Agent",
		systemPrompt: `You are an AWS Cost Optimization expert specializing in:
- Right-sizing resources
- Reserved Instances and Savings Plans
- Spot Instances utilization
- Storage lifecycle policies
- Cost allocation and tagging
- Unused resource identification
- Cost monitoring and budgets

Analyze AWS resources and identify cost-saving opportunities with ROI calculations.`,
		focusAreas: []string{"rightsizing", "pricing_models", "unused_resources", "storage_optimization"},
	},
	PillarSustainability: {
		name: "Sustainability Agent",
		systemPrompt: `You are an AWS Sustainability expert specializing in:
- Carbon footprint reduction
- Energy-efficient architectures
- Resource utilization optimization
- Serverless and managed services
- Regional selection for sustainability
- Workload optimization
- Sustainable practices

Analyze AWS resources and recommend improvements for environmental sustainability.`,
		focusAreas: []string{"carbon_footprint", "energy_efficiency", "resource_utilization", "serverless"},
	},
}

// pillarPrompt builds the per-pillar analysis request over the serialized
// scan results.
func pillarPrompt(pillar string, results map[string]api.RegionResult) (string, error) {
	context, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return "", fmt.Errorf("serializing scan results: %w", err)
	}

	return fmt.Sprintf(`Context:
%s

Question/Task:
Analyze the following AWS infrastructure for the %s pillar:

Provide:
1. Current State Assessment (score 1-10)
2. Key Findings (strengths and weaknesses)
3. Critical Issues (high priority)
4. Recommendations (specific, actionable)
5. Implementation Steps
6. Expected Impact

Format your response in a structured manner.`, context, pillar), nil
}

// synthesisPrompt builds the executive summary request from the completed
// pillar analyses. Errored pillars are omitted, not surfaced to the model.
func synthesisPrompt(assessments map[string]api.PillarAssessment) string {
	successful := make(map[string]api.PillarAssessment, len(assessments))
	for pillar, a := range assessments {
		if a.Error == "" {
			successful[pillar] = a
		}
	}

	serialized, err := json.MarshalIndent(successful, "", "  ")
	if err != nil {
		serialized = []byte("{}")
	}

	return fmt.Sprintf(`Based on the following pillar assessments, create an executive summary:

%s

Provide:
1. Overall Infrastructure Health (1-10)
2. Top 5 Critical Issues
3. Top 5 Quick Wins
4. Strategic Recommendations
5. Estimated Cost Impact
6. Implementation Timeline

Keep it concise and executive-friendly.`, serialized)
}
