package promptlab

import (
	"context"
	"fmt"
	"log"

	"engagepro-studio-server/modules/assets"
	"engagepro-studio-server/modules/common/gemini"
)

// Provider is the slice of the Gemini client the prompt lab needs.
type Provider interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
	DescribeImage(ctx context.Context, prompt string, ref gemini.ImageRef) (string, error)
}

// Service turns rough ideas and reference images into polished
// generation prompts.
type Service struct {
	provider Provider
}

func NewService(provider Provider) *Service {
	return &Service{provider: provider}
}

// MagicPrompt expands a short idea into a detailed image prompt.
func (s *Service) MagicPrompt(ctx context.Context, input string) (string, error) {
	if input == "" {
		return "", fmt.Errorf("input idea is empty")
	}

	prompt := fmt.Sprintf("You are a Prompt Engineer. Expand this short idea into a detailed, high-quality image generation prompt (Midjourney/Flux style).\n"+
		"Include: Subject details, Lighting, Camera Angle, Art Style, and Render quality (4k, 8k).\n\n"+
		"Input: %q\n\n"+
		"Output (Prompt Only):", input)

	result, err := s.provider.GenerateText(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("magic prompt failed: %w", err)
	}

	log.Printf("✨ Magic prompt expanded: %d -> %d chars", len(input), len(result))
	return result, nil
}

// VideoPrompt converts an idea into a prompt for AI video generators.
func (s *Service) VideoPrompt(ctx context.Context, input string) (string, error) {
	if input == "" {
		return "", fmt.Errorf("input idea is empty")
	}

	prompt := fmt.Sprintf("You are a Video Director. Convert this idea into a prompt for AI Video Generators (Sora, Veo, Kling).\n"+
		"Focus on: Physics, Camera Movement (Pan/Zoom/Truck), Lighting consistency, and Action.\n\n"+
		"Input: %q\n\n"+
		"Output (Prompt Only):", input)

	result, err := s.provider.GenerateText(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("video prompt failed: %w", err)
	}

	log.Printf("🎬 Video prompt produced: %d chars", len(result))
	return result, nil
}

// AnalyzeImage reverse-engineers an uploaded image into a prompt that
// would recreate it.
func (s *Service) AnalyzeImage(ctx context.Context, asset *assets.UploadedAsset) (string, error) {
	if asset == nil {
		return "", fmt.Errorf("image is required")
	}

	raw, err := asset.RawBytes()
	if err != nil {
		return "", err
	}

	result, err := s.provider.DescribeImage(ctx,
		"Analyze this image and write a detailed prompt to recreate it using AI. "+
			"Describe the subject, composition, lighting, style, and camera settings.",
		gemini.ImageRef{MIMEType: asset.MIMEType, Data: raw})
	if err != nil {
		return "", fmt.Errorf("image analysis failed: %w", err)
	}

	log.Printf("🔍 Image analyzed into prompt: %d chars", len(result))
	return result, nil
}
