package studio

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"engagepro-studio-server/modules/assets"
	"engagepro-studio-server/modules/common/gemini"
	"engagepro-studio-server/modules/common/storage"
)

// Provider is the slice of the Gemini client the pipeline needs.
type Provider interface {
	GeneratePlanJSON(ctx context.Context, systemInstruction, payload string, refs []gemini.ImageRef, useSearch bool) (string, error)
	GenerateImage(ctx context.Context, prompt string, refs []gemini.ImageRef, aspectRatio string) ([]byte, error)
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// ShotStore offloads rendered shots to external storage.
type ShotStore interface {
	UploadShot(ctx context.Context, pngData []byte, userID string, shotIndex int) (string, int64, error)
	RecordShotAsset(ctx context.Context, asset storage.ShotAsset) error
}

// Service drives planning, the shot loop and motion suggestions.
type Service struct {
	provider Provider
	store    ShotStore
	pacing   time.Duration
}

// NewService wires the pipeline. store may be nil, shots then stay
// in-memory only.
func NewService(provider Provider, store ShotStore, pacing time.Duration) *Service {
	return &Service{
		provider: provider,
		store:    store,
		pacing:   pacing,
	}
}

// GenerateShots runs the storyboard loop. Calls are strictly
// sequential with a fixed pacing delay between consecutive calls (none
// after the last). A failed shot is recorded and the loop continues; a
// credential rejection aborts the remainder. Cancelling the context
// stops the loop before the next shot.
func (s *Service) GenerateShots(ctx context.Context, sessionID string, req GenerationRequest, plan *CreativePlan, onShot func(ShotResult)) ([]ShotResult, error) {
	type shotInput struct {
		prompt string
		refs   []*assets.UploadedAsset
	}

	var inputs []shotInput
	if req.Style == StyleTreadmill && req.Assets != nil && len(req.Assets.FashionItems) > 0 {
		// Per-item mode: the single base prompt walks every fashion item
		basePrompt := plan.ShotPrompts[0]
		for _, item := range req.Assets.FashionItems {
			inputs = append(inputs, shotInput{
				prompt: basePrompt,
				refs:   treadmillItemAssets(req.Assets, item),
			})
		}
		log.Printf("🚀 Starting per-item generation: %d fashion items, shared base prompt", len(inputs))
	} else {
		for i, prompt := range plan.ShotPrompts {
			inputs = append(inputs, shotInput{
				prompt: prompt,
				refs:   referenceAssets(req.Style, i, req.Assets),
			})
		}
		log.Printf("🚀 Starting sequential generation: %d shots", len(inputs))
	}

	results := make([]ShotResult, 0, len(inputs))
	var firstErr error
	completedCount := 0

	for i, input := range inputs {
		if err := ctx.Err(); err != nil {
			log.Printf("🛑 Generation stopped before shot %d/%d: %v", i+1, len(inputs), err)
			return results, err
		}
		if i > 0 && s.pacing > 0 {
			log.Printf("⏳ Pacing delay %v before shot %d/%d", s.pacing, i+1, len(inputs))
			time.Sleep(s.pacing)
		}

		log.Printf("🎨 Generating shot %d/%d...", i+1, len(inputs))

		result := ShotResult{Index: i, Prompt: input.prompt}

		refs, err := decodeRefs(input.refs)
		if err == nil {
			var imgData []byte
			imgData, err = s.provider.GenerateImage(ctx, imagePromptText(input.prompt), refs, req.Orientation)
			if err == nil {
				result.Success = true
				result.ImageData = imgData
				completedCount++
				s.offloadShot(ctx, sessionID, req.UserID, i, &result)
			}
		}

		if err != nil {
			shotErr := &ShotGenerationError{Index: i, Err: err}
			result.ErrorDetail = shotErr.Error()
			if firstErr == nil {
				firstErr = shotErr
			}

			var credErr *gemini.CredentialError
			if errors.As(err, &credErr) {
				// A bad key fails every remaining call too, stop here
				results = append(results, result)
				if onShot != nil {
					onShot(result)
				}
				log.Printf("❌ Credential rejection on shot %d, aborting remaining %d shots", i+1, len(inputs)-i-1)
				return results, credErr
			}

			log.Printf("❌ Shot %d/%d failed: %v", i+1, len(inputs), err)
		}

		results = append(results, result)
		if onShot != nil {
			onShot(result)
		}
	}

	log.Printf("✅ Shot loop finished: %d/%d succeeded", completedCount, len(inputs))

	if completedCount == 0 {
		return results, &BatchGenerationFailure{Total: len(inputs), First: firstErr}
	}
	return results, nil
}

// offloadShot pushes the rendered PNG to storage. Failures are logged
// and never fail the shot.
func (s *Service) offloadShot(ctx context.Context, sessionID, userID string, index int, result *ShotResult) {
	if s.store == nil {
		return
	}

	path, size, err := s.store.UploadShot(ctx, result.ImageData, userID, index)
	if err != nil {
		log.Printf("⚠️  Failed to offload shot %d: %v", index+1, err)
		return
	}
	result.StoragePath = path

	if err := s.store.RecordShotAsset(ctx, storage.ShotAsset{
		SessionID: sessionID,
		UserID:    userID,
		ShotIndex: index,
		FilePath:  path,
		FileSize:  size,
	}); err != nil {
		log.Printf("⚠️  Failed to record shot asset %d: %v", index+1, err)
	}
}

// SuggestMotion produces a short motion prompt for every successful
// shot, concurrently. Failures degrade to nil for that slot and never
// fail the run. The slice stays index-aligned with the shots. A
// cancelled context skips the stage entirely.
func (s *Service) SuggestMotion(ctx context.Context, shots []ShotResult) []*string {
	suggestions := make([]*string, len(shots))
	if ctx.Err() != nil {
		log.Printf("🛑 Motion suggestions skipped, job cancelled")
		return suggestions
	}

	var wg sync.WaitGroup
	for i, shot := range shots {
		if !shot.Success {
			continue
		}

		wg.Add(1)
		go func(idx int, prompt string) {
			defer wg.Done()

			text, err := s.provider.GenerateText(ctx, motionSuggestionPrompt(prompt))
			if err != nil || text == "" {
				log.Printf("⚠️  Motion suggestion %d failed: %v", idx+1, err)
				return
			}
			suggestions[idx] = &text
		}(i, shot.Prompt)
	}
	wg.Wait()

	count := 0
	for _, sg := range suggestions {
		if sg != nil {
			count++
		}
	}
	log.Printf("✅ Motion suggestions: %d/%d produced", count, len(shots))

	return suggestions
}

// decodeRefs converts uploaded assets into provider image references.
func decodeRefs(refs []*assets.UploadedAsset) ([]gemini.ImageRef, error) {
	var out []gemini.ImageRef
	for _, ref := range refs {
		raw, err := ref.RawBytes()
		if err != nil {
			return nil, err
		}
		out = append(out, gemini.ImageRef{MIMEType: ref.MIMEType, Data: raw})
	}
	return out, nil
}
