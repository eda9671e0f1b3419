package studio

import (
	"fmt"
	"strings"

	"engagepro-studio-server/modules/assets"
)

// ShotTemplate is one storyboard slot in a style's flow.
type ShotTemplate struct {
	ID    string
	Label string
}

// storyFlows fixes the shot list per style. Every style has 5 slots
// except the treadmill show, which reuses one base prompt per item.
var storyFlows = map[ContentStyle][]ShotTemplate{
	StyleDirect: {
		{ID: "problem", Label: "Masalah (Problem)"},
		{ID: "reveal", Label: "Produk (Reveal)"},
		{ID: "action", Label: "Cara Pakai (Action)"},
		{ID: "result", Label: "Hasil (Result)"},
		{ID: "presenter", Label: "Presenter/Model (CTA)"},
	},
	StyleQuickReview: {
		{ID: "hook", Label: "Hook (Opening)"},
		{ID: "closeup", Label: "Close-up (Detail)"},
		{ID: "solution1", Label: "Fitur / Solusi 1"},
		{ID: "solution2", Label: "Fitur / Solusi 2"},
		{ID: "result", Label: "Hasil / CTA"},
	},
	StyleFashionBRoll: {
		{ID: "fisheye", Label: "Fisheye High Angle"},
		{ID: "coolpose", Label: "Normal Angle - Cool Pose"},
		{ID: "seated", Label: "Seated Studio Pose"},
		{ID: "halfbody", Label: "Half Body Close-Up"},
		{ID: "fabric", Label: "Interacting with Fabric"},
	},
	StyleTravel: {
		{ID: "hook", Label: "Pemandangan Ikonik"},
		{ID: "detail", Label: "Suasana & Detail"},
		{ID: "activity", Label: "Aktivitas Seru"},
		{ID: "moment", Label: "Momen Ajaib"},
		{ID: "cta", Label: "Ajakan (Invitation)"},
	},
	StyleProperty: {
		{ID: "exterior", Label: "Eksterior & Sambutan"},
		{ID: "main_interior", Label: "Interior Utama"},
		{ID: "facility", Label: "Fasilitas Unggulan"},
		{ID: "detail", Label: "Detail & Suasana"},
		{ID: "lifestyle_cta", Label: "Gaya Hidup & Ajakan"},
	},
	StyleTreadmill: {
		{ID: "treadmill", Label: "Treadmill Base Prompt"},
	},
	StyleAestheticPOV: {
		{ID: "grasp", Label: "1. The Grasp (Emosi)"},
		{ID: "unveiling", Label: "2. The Unveiling (Detail)"},
		{ID: "function", Label: "3. The Function (Aksi)"},
		{ID: "pairing", Label: "4. The Pairing (Gaya)"},
		{ID: "experience", Label: "5. The Experience (Skala)"},
	},
	StyleFoodPromo: {
		{ID: "hook", Label: "Influencer Intro"},
		{ID: "reveal", Label: "Food Reveal (Beauty Shot)"},
		{ID: "action", Label: "Gigitan Pertama (Action)"},
		{ID: "reaction", Label: "Reaksi Emosional"},
		{ID: "cta", Label: "Ajakan & Produk (CTA)"},
	},
}

// scriptlessStyles produce pure b-roll, their plans carry no script.
var scriptlessStyles = map[ContentStyle]bool{
	StyleFashionBRoll: true,
	StyleTreadmill:    true,
	StyleAestheticPOV: true,
}

// searchGroundedStyles describe real places and get the search tool.
var searchGroundedStyles = map[ContentStyle]bool{
	StyleTravel:   true,
	StyleProperty: true,
}

// StoryFlow returns the shot templates for a style.
func StoryFlow(style ContentStyle) []ShotTemplate {
	return storyFlows[style]
}

// IsScriptless reports whether the style skips narration entirely.
func IsScriptless(style ContentStyle) bool {
	return scriptlessStyles[style]
}

// UsesSearchGrounding reports whether planning needs the search tool.
func UsesSearchGrounding(style ContentStyle) bool {
	return searchGroundedStyles[style]
}

// BuildPlanInstruction assembles the planner system instruction and
// user payload for a request.
func BuildPlanInstruction(req GenerationRequest, profile *BrandProfile) (systemInstruction, userPayload string) {
	flow := storyFlows[req.Style]
	langName := Languages[req.Language]
	if langName == "" {
		langName = req.Language
	}

	shotList := make([]string, len(flow))
	for i, s := range flow {
		shotList[i] = s.Label
	}
	shotSpec := fmt.Sprintf("%d shots (%s)", len(flow), strings.Join(shotList, ", "))
	if req.Style == StyleTreadmill {
		shotSpec = "1 base prompt"
	}

	qualitySuffix := fmt.Sprintf("4K, %s aspect ratio, cinematic, hyper-realistic, detailed texture", req.Orientation)

	base := "You are an AI Creative Director. Produce a content plan (storyboard) for affiliate marketing.\n\n" +
		brandPersonaSection(profile, req.ScriptStyle) + "\n\n" +
		"JSON OUTPUT RULES:\n" +
		"1. Return EXACTLY one valid JSON block.\n" +
		"2. Structure: { \"masterScene\": { \"character\": \"...\", \"clothing\": \"...\", \"location\": \"...\", \"property\": \"...\", \"style\": \"...\" }, \"tiktokScript\": \"...\", \"shotPrompts\": [\"...\"], \"tiktokMetadata\": { \"keywords\": [\"...\"], \"description\": \"...\" } }\n" +
		fmt.Sprintf("3. Metadata 'keywords' (5-7 words) and 'description' (short title) must be in: %s.\n", langName)

	var styleSection string
	switch req.Style {
	case StyleDirect, StyleQuickReview:
		styleSection = "STYLE: DIRECT SELLING / REVIEW.\n\n" +
			"SPECIAL INSTRUCTIONS:\n" +
			"1. CHARACTER & OUTFIT CONSISTENCY: if a model photo is provided, describe the person in detail and repeat that description in every shot.\n" +
			"2. LOCATION CONSISTENCY: pick one logical location and keep it.\n\n" +
			fmt.Sprintf("SCRIPT (tiktokScript): write 40-60 words in %s, soft selling tone.\n", langName) +
			fmt.Sprintf("IMAGE PROMPTS (shotPrompts): produce %s. End every prompt with \"%s\".", shotSpec, qualitySuffix)

	case StyleFashionBRoll:
		styleSection = "STYLE: FASHION B-ROLL.\n\n" +
			"SPECIAL INSTRUCTIONS:\n" +
			"1. THE OUTFIT IS KING: describe the clothing with obsessive detail.\n" +
			"2. CHARACTER: the model's face and hair MUST stay 100% consistent.\n\n" +
			"SCRIPT (tiktokScript): EMPTY string (\"\").\n" +
			fmt.Sprintf("IMAGE PROMPTS (shotPrompts): produce 5 prompts varying POSE and ANGLE. End every prompt with \"%s, fashion photography lighting\".", qualitySuffix)

	case StyleTreadmill:
		styleSection = "STYLE: TREADMILL FASHION SHOW.\n\n" +
			"SPECIAL INSTRUCTIONS:\n" +
			"1. The prompt must describe: \"Full body shot of [Character Description] walking confidently on a treadmill, facing forward.\"\n\n" +
			"SCRIPT (tiktokScript): EMPTY string (\"\").\n" +
			fmt.Sprintf("IMAGE PROMPTS (shotPrompts): produce ONLY 1 highly detailed base prompt. End it with \"%s\".", qualitySuffix)

	case StyleTravel:
		styleSection = "STYLE: TRAVEL VLOG.\n\n" +
			"SPECIAL INSTRUCTIONS:\n" +
			"1. LOCATION: prioritize visual accuracy of the real place.\n" +
			"2. CHARACTER: add a person for scale.\n\n" +
			fmt.Sprintf("SCRIPT (tiktokScript): 40-60 words in %s, use real facts about the location.\n", langName) +
			fmt.Sprintf("IMAGE PROMPTS (shotPrompts): produce %s. End every prompt with \"%s, natural sunlight\".", shotSpec, qualitySuffix)

	case StyleProperty:
		styleSection = "STYLE: PROPERTY PROMO.\n\n" +
			"SPECIAL INSTRUCTIONS:\n" +
			"1. DO NOT ALTER THE PROPERTY: prompts must stay anchored on \"A realistic photo of the provided room...\".\n" +
			"2. PEOPLE: add people for scale.\n\n" +
			fmt.Sprintf("SCRIPT (tiktokScript): 40-60 words in %s.\n", langName) +
			fmt.Sprintf("IMAGE PROMPTS (shotPrompts): produce %s. End every prompt with \"keep architecture unchanged. %s\".", shotSpec, qualitySuffix)

	case StyleAestheticPOV:
		styleSection = "STYLE: AESTHETIC HANDS ON (POV).\n\n" +
			"SPECIAL INSTRUCTIONS:\n" +
			"1. SHOT 1 IS THE KEY (POV HOLDING): the first shot MUST be a first person point of view of hands holding the product aesthetically.\n" +
			"2. SHOT VARIETY: later shots focus on texture, usage and pairing.\n\n" +
			"SCRIPT (tiktokScript): EMPTY string (\"\").\n" +
			fmt.Sprintf("IMAGE PROMPTS (shotPrompts): produce 5 prompts. End every prompt with \"%s, pov photography\".", qualitySuffix)

	case StyleFoodPromo:
		styleSection = "STYLE: FOOD VLOGGER / FOOD REVIEW.\n\n" +
			"SPECIAL INSTRUCTIONS:\n" +
			"1. APPETITE APPEAL: the food must look irresistibly delicious, glistening, steaming where relevant.\n" +
			"2. REACTION: include a shot of someone eating with a delighted expression.\n\n" +
			fmt.Sprintf("SCRIPT (tiktokScript): 40-60 words in %s, hungry influencer tone.\n", langName) +
			fmt.Sprintf("IMAGE PROMPTS (shotPrompts): produce %s. End every prompt with \"%s, food photography, macro depth of field\".", shotSpec, qualitySuffix)
	}

	description := req.TravelDescription
	if description == "" {
		description = req.ExtraNotes
	}
	if description == "" {
		description = "No description"
	}

	userPayload = fmt.Sprintf("User description: %s\nProduct: %s\nScript language: %s\nScript style: %s\nTask: produce the creative plan JSON.",
		description, req.ProductName, langName, req.ScriptStyle)

	if UsesSearchGrounding(req.Style) {
		userPayload = fmt.Sprintf("Content style: %s\n(Use Google Search to find visual facts about this location.)\n%s", req.Style, userPayload)
	}

	return base + "\n" + styleSection, userPayload
}

// brandPersonaSection injects the stored brand context, or falls back
// to the selected script style.
func brandPersonaSection(profile *BrandProfile, scriptStyle ScriptStyle) string {
	if profile == nil || profile.BrandName == "" {
		return fmt.Sprintf("=== BRAND PERSONA ===\nUse a tone of voice matching the '%s' script style.", scriptStyle)
	}

	tone := profile.ToneOfVoice
	if tone == "" {
		tone = "Professional & Trustworthy"
	}
	audience := profile.TargetAudience
	if audience == "" {
		audience = "General Audience"
	}

	return fmt.Sprintf("=== BRAND PERSONA (MUST FOLLOW) ===\nBrand Name: %s\nTone of Voice: %s\nTarget Audience: %s\n\n"+
		"SCRIPT INSTRUCTIONS:\nUse the tone of voice above when writing 'tiktokScript'. Adapt the wording to the target audience. Mention the brand \"%s\" naturally.",
		profile.BrandName, tone, audience, profile.BrandName)
}

// PlanContextAssets picks the single reference image the planner sees:
// product first, then the first location, then the first fashion item.
func PlanContextAssets(bundle *assets.AssetBundle) (label string, asset *assets.UploadedAsset) {
	if bundle == nil {
		return "", nil
	}
	if bundle.Product != nil {
		return "This is the main product image:", bundle.Product
	}
	if len(bundle.Locations) > 0 {
		return "This is the location/property/food image:", bundle.Locations[0]
	}
	if len(bundle.FashionItems) > 0 {
		return "This is the main fashion item:", bundle.FashionItems[0]
	}
	return "", nil
}

// referenceAssets picks the reference images for one shot, in the
// order product, locations, model, background. The second food shot is
// a pure beauty shot, so the model is left out of it.
func referenceAssets(style ContentStyle, shotIndex int, bundle *assets.AssetBundle) []*assets.UploadedAsset {
	if bundle == nil {
		return nil
	}

	var refs []*assets.UploadedAsset
	if bundle.Product != nil {
		refs = append(refs, bundle.Product)
	}
	refs = append(refs, bundle.Locations...)

	if bundle.Model != nil {
		if !(style == StyleFoodPromo && shotIndex == 1) {
			refs = append(refs, bundle.Model)
		}
	}
	if bundle.Background != nil {
		refs = append(refs, bundle.Background)
	}
	return refs
}

// treadmillItemAssets builds the per-item reference list: the fashion
// item being walked, then background and model when present.
func treadmillItemAssets(bundle *assets.AssetBundle, item *assets.UploadedAsset) []*assets.UploadedAsset {
	var refs []*assets.UploadedAsset
	if item != nil {
		refs = append(refs, item)
	}
	if bundle == nil {
		return refs
	}
	if bundle.Background != nil {
		refs = append(refs, bundle.Background)
	}
	if bundle.Model != nil {
		refs = append(refs, bundle.Model)
	}
	return refs
}

// MainAssetRole names the required upload role for a style.
func MainAssetRole(style ContentStyle) string {
	switch style {
	case StyleDirect, StyleQuickReview, StyleFashionBRoll, StyleAestheticPOV:
		return assets.RoleProduct
	case StyleTravel, StyleProperty, StyleFoodPromo:
		return assets.RoleLocations
	case StyleTreadmill:
		return assets.RoleFashionItems
	}
	return ""
}

// HasMainAsset checks that the style's required upload is present.
func HasMainAsset(style ContentStyle, bundle *assets.AssetBundle) bool {
	if bundle == nil {
		return false
	}
	switch MainAssetRole(style) {
	case assets.RoleProduct:
		return bundle.Product != nil
	case assets.RoleLocations:
		return len(bundle.Locations) > 0
	case assets.RoleFashionItems:
		return len(bundle.FashionItems) > 0
	}
	return false
}

// motionSuggestionPrompt asks for a short camera/subject motion line.
func motionSuggestionPrompt(imagePrompt string) string {
	return fmt.Sprintf("Create a concise motion prompt for an AI video generator based on this image description: %q.\n"+
		"Focus on camera movement (pan, zoom) and subject motion. Max 15 words. "+
		"Example: \"Slow pan right, subtle dust particles floating, cinematic lighting.\"", imagePrompt)
}

// imagePromptText wraps a shot prompt for the image model.
func imagePromptText(prompt string) string {
	return "Generate a photorealistic image based on this prompt: " + prompt
}
