package studio

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"engagepro-studio-server/modules/common/gemini"
)

// BuildPlan runs the single planning call and parses the result. The
// plan is the one immutable artifact of a run.
func (s *Service) BuildPlan(ctx context.Context, req GenerationRequest, profile *BrandProfile) (*CreativePlan, error) {
	systemInstruction, payload := BuildPlanInstruction(req, profile)

	var refs []gemini.ImageRef
	if label, asset := PlanContextAssets(req.Assets); asset != nil {
		raw, err := asset.RawBytes()
		if err != nil {
			return nil, err
		}
		payload = payload + "\n\n" + label
		refs = append(refs, gemini.ImageRef{MIMEType: asset.MIMEType, Data: raw})
	}

	rawPlan, err := s.provider.GeneratePlanJSON(ctx, systemInstruction, payload, refs, UsesSearchGrounding(req.Style))
	if err != nil {
		return nil, fmt.Errorf("planner call failed: %w", err)
	}

	plan, err := ParsePlan(rawPlan)
	if err != nil {
		return nil, err
	}

	flow := StoryFlow(req.Style)
	if len(plan.ShotPrompts) != len(flow) {
		return nil, &PlanParseError{
			Raw: rawPlan,
			Err: fmt.Errorf("expected %d shot prompts, got %d", len(flow), len(plan.ShotPrompts)),
		}
	}

	// B-roll styles never carry a script, whatever the model returned
	if IsScriptless(req.Style) {
		plan.Script = ""
	}

	log.Printf("✅ Creative plan built: %d shot prompts, script %d chars", len(plan.ShotPrompts), len(plan.Script))
	return plan, nil
}

// ParsePlan strips Markdown fences and decodes the plan JSON.
func ParsePlan(raw string) (*CreativePlan, error) {
	cleaned := strings.ReplaceAll(raw, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)

	var plan CreativePlan
	if err := json.Unmarshal([]byte(cleaned), &plan); err != nil {
		return nil, &PlanParseError{Raw: raw, Err: err}
	}

	if len(plan.ShotPrompts) == 0 {
		return nil, &PlanParseError{Raw: raw, Err: fmt.Errorf("plan has no shot prompts")}
	}
	return &plan, nil
}
