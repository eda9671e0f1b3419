package studio

import (
	"time"

	"engagepro-studio-server/modules/assets"
)

// ContentStyle selects the storyboard template and prompt strategy.
type ContentStyle string

const (
	StyleDirect       ContentStyle = "direct"
	StyleQuickReview  ContentStyle = "quick_review"
	StyleFashionBRoll ContentStyle = "fashion_broll"
	StyleTravel       ContentStyle = "travel"
	StyleProperty     ContentStyle = "property"
	StyleTreadmill    ContentStyle = "treadmill_fashion_show"
	StyleAestheticPOV ContentStyle = "aesthetic_hands_on"
	StyleFoodPromo    ContentStyle = "food_promo"
)

// ScriptStyle steers the narration tone.
type ScriptStyle string

const (
	ScriptDirect      ScriptStyle = "direct"
	ScriptPoetic      ScriptStyle = "poetic"
	ScriptHumorous    ScriptStyle = "humorous"
	ScriptInformative ScriptStyle = "informative"
	ScriptMysterious  ScriptStyle = "mysterious"
	ScriptAbsurd      ScriptStyle = "absurd"
)

// Job status values written to the job state key.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusCancelled  = "cancelled"
)

// Orientations accepted for image generation.
var Orientations = []string{"9:16", "16:9", "1:1"}

// Languages offered for scripts and narration.
var Languages = map[string]string{
	"id-ID": "Bahasa Indonesia",
	"ms-MY": "Bahasa Melayu",
	"en-US": "English",
}

// TTSVoices lists the prebuilt narrator voices.
var TTSVoices = []string{"Kore", "Puck", "Gacrux", "Zephyr", "Leda", "Aoede", "Sulafat"}

// MasterScene anchors every shot to one consistent subject and setting.
type MasterScene struct {
	Character string `json:"character"`
	Clothing  string `json:"clothing,omitempty"`
	Location  string `json:"location"`
	Property  string `json:"property,omitempty"`
	Style     string `json:"style"`
}

// PlanMetadata is the publishing metadata the planner produces.
type PlanMetadata struct {
	Keywords    []string `json:"keywords"`
	Description string   `json:"description"`
}

// CreativePlan is the single planning artifact for a run. It is built
// once and never mutated afterwards.
type CreativePlan struct {
	MasterScene MasterScene  `json:"masterScene"`
	Script      string       `json:"tiktokScript"`
	ShotPrompts []string     `json:"shotPrompts"`
	Metadata    PlanMetadata `json:"tiktokMetadata"`
}

// ShotResult records one storyboard frame attempt.
type ShotResult struct {
	Index       int    `json:"index"`
	Prompt      string `json:"prompt"`
	ImageData   []byte `json:"imageData,omitempty"` // PNG
	StoragePath string `json:"storagePath,omitempty"`
	Success     bool   `json:"success"`
	ErrorDetail string `json:"errorDetail,omitempty"`
}

// GenerationRequest is the client payload that starts a run.
type GenerationRequest struct {
	UserID            string              `json:"userId"`
	Style             ContentStyle        `json:"style"`
	ScriptStyle       ScriptStyle         `json:"scriptStyle"`
	Language          string              `json:"language"`
	Voice             string              `json:"voice,omitempty"`
	Orientation       string              `json:"orientation"`
	ProductName       string              `json:"productName"`
	ExtraNotes        string              `json:"extraNotes,omitempty"`
	TravelDescription string              `json:"travelDescription,omitempty"`
	Narrate           bool                `json:"narrate"`
	Assets            *assets.AssetBundle `json:"assets"`
}

// GenerationSession is the full state of one run.
type GenerationSession struct {
	ID            string            `json:"id"`
	UserID        string            `json:"userId"`
	Request       GenerationRequest `json:"request"`
	Plan          *CreativePlan     `json:"plan,omitempty"`
	Shots         []ShotResult      `json:"shots,omitempty"`
	MotionPrompts []*string         `json:"motionPrompts,omitempty"`
	NarrationWAV  []byte            `json:"narrationWav,omitempty"`
	Status        string            `json:"status"`
	ErrorDetail   string            `json:"errorDetail,omitempty"`
	CreatedAt     time.Time         `json:"createdAt"`
}

// BrandProfile carries persistent brand context into the planner.
type BrandProfile struct {
	BrandName      string `json:"brandName"`
	ToneOfVoice    string `json:"toneOfVoice"`
	TargetAudience string `json:"targetAudience"`
}

// SuccessCount reports how many shots rendered.
func (s *GenerationSession) SuccessCount() int {
	count := 0
	for _, shot := range s.Shots {
		if shot.Success {
			count++
		}
	}
	return count
}

// ValidStyle reports whether the style is one of the catalog entries.
func ValidStyle(style ContentStyle) bool {
	_, ok := storyFlows[style]
	return ok
}

// ValidOrientation checks the aspect ratio against the allowed set.
func ValidOrientation(orientation string) bool {
	for _, o := range Orientations {
		if o == orientation {
			return true
		}
	}
	return false
}

// ValidVoice checks a narrator voice name.
func ValidVoice(voice string) bool {
	for _, v := range TTSVoices {
		if v == voice {
			return true
		}
	}
	return false
}
