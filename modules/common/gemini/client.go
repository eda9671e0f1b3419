package gemini

import (
	"context"
	"fmt"
	"log"
	"strings"

	"engagepro-studio-server/modules/common/config"
	"google.golang.org/genai"
)

// ImageRef is a reference image passed alongside a prompt.
type ImageRef struct {
	MIMEType string
	Data     []byte
}

// Client wraps the Gemini SDK with the model set and key rotation used
// by every pipeline stage.
type Client struct {
	apiKeys              []string
	plannerModel         string
	plannerGroundedModel string
	imageModel           string
	textModel            string
	ttsModel             string
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		apiKeys:              cfg.GeminiAPIKeys,
		plannerModel:         cfg.PlannerModel,
		plannerGroundedModel: cfg.PlannerGroundedModel,
		imageModel:           cfg.ImageModel,
		textModel:            cfg.TextModel,
		ttsModel:             cfg.TTSModel,
	}
}

// GeneratePlanJSON runs the planning call and returns the raw model text.
// With useSearch the grounded model is used and the JSON response MIME
// must be dropped, the API rejects tools combined with forced JSON.
func (c *Client) GeneratePlanJSON(ctx context.Context, systemInstruction, payload string, refs []ImageRef, useSearch bool) (string, error) {
	parts := []*genai.Part{genai.NewPartFromText(payload)}
	for _, ref := range refs {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{
				MIMEType: ref.MIMEType,
				Data:     ref.Data,
			},
		})
	}

	genConfig := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{genai.NewPartFromText(systemInstruction)},
		},
	}

	model := c.plannerModel
	if useSearch {
		model = c.plannerGroundedModel
		genConfig.Tools = []*genai.Tool{
			{GoogleSearch: &genai.GoogleSearch{}},
		}
	} else {
		genConfig.ResponseMIMEType = "application/json"
	}

	log.Printf("📝 Calling planner (model: %s, refs: %d, search: %v)", model, len(refs), useSearch)

	result, err := generateWithRetry(ctx, c.apiKeys, model, []*genai.Content{{Parts: parts}}, genConfig)
	if err != nil {
		return "", err
	}

	text := collectText(result)
	if text == "" {
		return "", fmt.Errorf("no text in planner response")
	}
	return text, nil
}

// GenerateImage produces one PNG for the given prompt and references.
func (c *Client) GenerateImage(ctx context.Context, prompt string, refs []ImageRef, aspectRatio string) ([]byte, error) {
	if aspectRatio == "" {
		aspectRatio = "9:16"
	}

	log.Printf("🎨 Calling image model (model: %s, prompt: %d chars, refs: %d, aspect-ratio: %s)",
		c.imageModel, len(prompt), len(refs), aspectRatio)

	var parts []*genai.Part
	for _, ref := range refs {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{
				MIMEType: ref.MIMEType,
				Data:     ref.Data,
			},
		})
	}
	parts = append(parts, genai.NewPartFromText(prompt))

	result, err := generateWithRetry(ctx, c.apiKeys, c.imageModel, []*genai.Content{{Parts: parts}},
		&genai.GenerateContentConfig{
			ImageConfig: &genai.ImageConfig{
				AspectRatio: aspectRatio,
			},
			Temperature: floatPtr(0.45),
		})
	if err != nil {
		return nil, err
	}

	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				log.Printf("✅ Received image: %d bytes", len(part.InlineData.Data))
				return part.InlineData.Data, nil
			}
		}
	}

	return nil, fmt.Errorf("no image data in response")
}

// GenerateText runs a plain text call (translation, motion suggestions).
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	result, err := generateWithRetry(ctx, c.apiKeys, c.textModel,
		[]*genai.Content{{Parts: []*genai.Part{genai.NewPartFromText(prompt)}}},
		&genai.GenerateContentConfig{})
	if err != nil {
		return "", err
	}

	text := strings.TrimSpace(collectText(result))
	if text == "" {
		return "", fmt.Errorf("no text in response")
	}
	return text, nil
}

// DescribeImage runs a text call with a reference image attached.
func (c *Client) DescribeImage(ctx context.Context, prompt string, ref ImageRef) (string, error) {
	log.Printf("🔍 Calling vision analysis (model: %s, image: %d bytes)", c.textModel, len(ref.Data))

	parts := []*genai.Part{
		genai.NewPartFromText(prompt),
		{InlineData: &genai.Blob{MIMEType: ref.MIMEType, Data: ref.Data}},
	}

	result, err := generateWithRetry(ctx, c.apiKeys, c.textModel,
		[]*genai.Content{{Parts: parts}}, &genai.GenerateContentConfig{})
	if err != nil {
		return "", err
	}

	text := strings.TrimSpace(collectText(result))
	if text == "" {
		return "", fmt.Errorf("no text in response")
	}
	return text, nil
}

// SynthesizeSpeech returns raw PCM bytes plus the MIME type the provider
// reported (the sample rate rides in the MIME parameters).
func (c *Client) SynthesizeSpeech(ctx context.Context, text, voice string) ([]byte, string, error) {
	log.Printf("🎙️ Calling TTS (model: %s, voice: %s, text: %d chars)", c.ttsModel, voice, len(text))

	result, err := generateWithRetry(ctx, c.apiKeys, c.ttsModel,
		[]*genai.Content{{Parts: []*genai.Part{genai.NewPartFromText(text)}}},
		&genai.GenerateContentConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: &genai.SpeechConfig{
				VoiceConfig: &genai.VoiceConfig{
					PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{
						VoiceName: voice,
					},
				},
			},
		})
	if err != nil {
		return nil, "", err
	}

	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				log.Printf("✅ Received audio: %d bytes (%s)", len(part.InlineData.Data), part.InlineData.MIMEType)
				return part.InlineData.Data, part.InlineData.MIMEType, nil
			}
		}
	}

	return nil, "", fmt.Errorf("no audio data in response")
}

// collectText concatenates every text part across candidates.
func collectText(result *genai.GenerateContentResponse) string {
	var sb strings.Builder
	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				sb.WriteString(part.Text)
			}
		}
	}
	return sb.String()
}

func floatPtr(f float64) *float32 {
	f32 := float32(f)
	return &f32
}
