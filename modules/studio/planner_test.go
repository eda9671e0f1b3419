package studio

import (
	"context"
	"testing"

	"engagepro-studio-server/modules/common/gemini"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validPlanJSON = `{
	"masterScene": {"character": "A young woman", "location": "Minimalist studio", "style": "Clean"},
	"tiktokScript": "Coba deh produk ini.",
	"shotPrompts": ["p1", "p2", "p3", "p4", "p5"],
	"tiktokMetadata": {"keywords": ["racun tiktok", "promo"], "description": "Produk wajib punya"}
}`

func TestParsePlanStripsMarkdownFences(t *testing.T) {
	fenced := "```json\n" + validPlanJSON + "\n```"

	plan, err := ParsePlan(fenced)

	require.NoError(t, err)
	assert.Equal(t, "Coba deh produk ini.", plan.Script)
	assert.Len(t, plan.ShotPrompts, 5)
	assert.Equal(t, "A young woman", plan.MasterScene.Character)
	assert.Equal(t, "Produk wajib punya", plan.Metadata.Description)
}

func TestParsePlanInvalidJSON(t *testing.T) {
	_, err := ParsePlan("Sorry, I cannot produce a plan for this.")

	var parseErr *PlanParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestParsePlanEmptyShotPrompts(t *testing.T) {
	_, err := ParsePlan(`{"tiktokScript": "x", "shotPrompts": []}`)

	var parseErr *PlanParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Contains(t, err.Error(), "no shot prompts")
}

func TestBuildPlanPassesContextAsset(t *testing.T) {
	var gotPayload string
	var gotRefs []gemini.ImageRef
	var gotSearch bool

	provider := &fakeProvider{
		planFn: func(_, payload string, refs []gemini.ImageRef, useSearch bool) (string, error) {
			gotPayload = payload
			gotRefs = refs
			gotSearch = useSearch
			return validPlanJSON, nil
		},
	}
	svc := NewService(provider, nil, 0)

	plan, err := svc.BuildPlan(context.Background(), directRequest(), nil)

	require.NoError(t, err)
	assert.Len(t, plan.ShotPrompts, 5)

	// The planner sees exactly one labeled reference image
	require.Len(t, gotRefs, 1)
	assert.Equal(t, []byte("product"), gotRefs[0].Data)
	assert.Contains(t, gotPayload, "main product image")
	assert.False(t, gotSearch)
}

func TestBuildPlanSearchGroundedStyle(t *testing.T) {
	var gotSearch bool
	provider := &fakeProvider{
		planFn: func(_, _ string, _ []gemini.ImageRef, useSearch bool) (string, error) {
			gotSearch = useSearch
			return validPlanJSON, nil
		},
	}
	svc := NewService(provider, nil, 0)

	req := GenerationRequest{
		UserID:            "user-1",
		Style:             StyleTravel,
		Orientation:       "9:16",
		TravelDescription: "Bromo sunrise point",
	}

	_, err := svc.BuildPlan(context.Background(), req, nil)

	require.NoError(t, err)
	assert.True(t, gotSearch)
}

func TestBuildPlanShotCountMismatch(t *testing.T) {
	provider := &fakeProvider{
		planFn: func(_, _ string, _ []gemini.ImageRef, _ bool) (string, error) {
			return `{"tiktokScript": "x", "shotPrompts": ["only", "three", "prompts"]}`, nil
		},
	}
	svc := NewService(provider, nil, 0)

	_, err := svc.BuildPlan(context.Background(), directRequest(), nil)

	var parseErr *PlanParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Contains(t, err.Error(), "expected 5 shot prompts, got 3")
}

func TestBuildPlanClearsScriptForScriptlessStyles(t *testing.T) {
	provider := &fakeProvider{
		planFn: func(_, _ string, _ []gemini.ImageRef, _ bool) (string, error) {
			// Model ignored the instruction and wrote a script anyway
			return `{"tiktokScript": "unwanted narration", "shotPrompts": ["p1"]}`, nil
		},
	}
	svc := NewService(provider, nil, 0)

	req := GenerationRequest{
		UserID:      "user-1",
		Style:       StyleTreadmill,
		Orientation: "9:16",
	}

	plan, err := svc.BuildPlan(context.Background(), req, nil)

	require.NoError(t, err)
	assert.Empty(t, plan.Script)
}
