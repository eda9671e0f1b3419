package studio

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"engagepro-studio-server/modules/assets"
	"engagepro-studio-server/modules/common/gemini"
	"engagepro-studio-server/modules/common/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type imageCall struct {
	prompt      string
	refs        []gemini.ImageRef
	aspectRatio string
}

// fakeProvider records calls and answers from configurable functions.
type fakeProvider struct {
	mu         sync.Mutex
	planFn     func(systemInstruction, payload string, refs []gemini.ImageRef, useSearch bool) (string, error)
	imageFn    func(call imageCall) ([]byte, error)
	textFn     func(prompt string) (string, error)
	planCalls  int
	imageCalls []imageCall
	textCalls  []string
}

func (f *fakeProvider) GeneratePlanJSON(_ context.Context, systemInstruction, payload string, refs []gemini.ImageRef, useSearch bool) (string, error) {
	f.mu.Lock()
	f.planCalls++
	f.mu.Unlock()
	if f.planFn == nil {
		return "{}", nil
	}
	return f.planFn(systemInstruction, payload, refs, useSearch)
}

func (f *fakeProvider) GenerateImage(_ context.Context, prompt string, refs []gemini.ImageRef, aspectRatio string) ([]byte, error) {
	call := imageCall{prompt: prompt, refs: refs, aspectRatio: aspectRatio}
	f.mu.Lock()
	f.imageCalls = append(f.imageCalls, call)
	f.mu.Unlock()
	if f.imageFn == nil {
		return []byte("png"), nil
	}
	return f.imageFn(call)
}

func (f *fakeProvider) GenerateText(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.textCalls = append(f.textCalls, prompt)
	f.mu.Unlock()
	if f.textFn == nil {
		return "slow pan right", nil
	}
	return f.textFn(prompt)
}

// fakeShotStore records offloaded shots.
type fakeShotStore struct {
	mu       sync.Mutex
	uploads  []int
	recorded []storage.ShotAsset
}

func (f *fakeShotStore) UploadShot(_ context.Context, _ []byte, userID string, shotIndex int) (string, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, shotIndex)
	return fmt.Sprintf("storyboards/user-%s/shot_%d.webp", userID, shotIndex), 128, nil
}

func (f *fakeShotStore) RecordShotAsset(_ context.Context, asset storage.ShotAsset) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recorded = append(f.recorded, asset)
	return nil
}

func fiveShotPlan() *CreativePlan {
	return &CreativePlan{
		Script:      "Naskah",
		ShotPrompts: []string{"p1", "p2", "p3", "p4", "p5"},
	}
}

func directRequest() GenerationRequest {
	return GenerationRequest{
		UserID:      "user-1",
		Style:       StyleDirect,
		Orientation: "9:16",
		Assets:      &assets.AssetBundle{Product: makeAsset("product")},
	}
}

func TestGenerateShotsSequential(t *testing.T) {
	provider := &fakeProvider{}
	svc := NewService(provider, nil, 0)

	var events []ShotResult
	results, err := svc.GenerateShots(context.Background(), "job-1", directRequest(), fiveShotPlan(), func(r ShotResult) {
		events = append(events, r)
	})

	require.NoError(t, err)
	require.Len(t, results, 5)
	require.Len(t, provider.imageCalls, 5)

	for i, result := range results {
		assert.Equal(t, i, result.Index)
		assert.True(t, result.Success)
		assert.Equal(t, []byte("png"), result.ImageData)
	}

	// Prompts go out in plan order with the photorealistic wrapper
	assert.Equal(t, "Generate a photorealistic image based on this prompt: p1", provider.imageCalls[0].prompt)
	assert.Equal(t, "Generate a photorealistic image based on this prompt: p5", provider.imageCalls[4].prompt)
	assert.Equal(t, "9:16", provider.imageCalls[0].aspectRatio)

	// Per-shot callback fired for every slot
	require.Len(t, events, 5)
}

func TestGenerateShotsContinuesAfterFailure(t *testing.T) {
	provider := &fakeProvider{
		imageFn: func(call imageCall) ([]byte, error) {
			if strings.Contains(call.prompt, "p2") {
				return nil, errors.New("model overloaded")
			}
			return []byte("png"), nil
		},
	}
	svc := NewService(provider, nil, 0)

	results, err := svc.GenerateShots(context.Background(), "job-1", directRequest(), fiveShotPlan(), nil)

	// Partial success is not an error
	require.NoError(t, err)
	require.Len(t, results, 5)

	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
	assert.Contains(t, results[1].ErrorDetail, "model overloaded")
	assert.True(t, results[2].Success)
	assert.True(t, results[4].Success)
}

func TestGenerateShotsAllFailed(t *testing.T) {
	provider := &fakeProvider{
		imageFn: func(imageCall) ([]byte, error) {
			return nil, errors.New("model overloaded")
		},
	}
	svc := NewService(provider, nil, 0)

	results, err := svc.GenerateShots(context.Background(), "job-1", directRequest(), fiveShotPlan(), nil)

	require.Len(t, results, 5)

	var batchErr *BatchGenerationFailure
	require.ErrorAs(t, err, &batchErr)
	assert.Equal(t, 5, batchErr.Total)

	// The first shot's failure is the reported cause
	var shotErr *ShotGenerationError
	require.ErrorAs(t, batchErr.First, &shotErr)
	assert.Equal(t, 0, shotErr.Index)
}

func TestGenerateShotsCredentialRejectionAborts(t *testing.T) {
	provider := &fakeProvider{
		imageFn: func(call imageCall) ([]byte, error) {
			if strings.Contains(call.prompt, "p3") {
				return nil, &gemini.CredentialError{Err: errors.New("API key not valid")}
			}
			return []byte("png"), nil
		},
	}
	svc := NewService(provider, nil, 0)

	results, err := svc.GenerateShots(context.Background(), "job-1", directRequest(), fiveShotPlan(), nil)

	// Shots 4 and 5 are never attempted
	require.Len(t, results, 3)
	require.Len(t, provider.imageCalls, 3)

	assert.True(t, results[0].Success)
	assert.True(t, results[1].Success)
	assert.False(t, results[2].Success)

	var credErr *gemini.CredentialError
	require.ErrorAs(t, err, &credErr)
}

func TestGenerateShotsStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	provider := &fakeProvider{
		imageFn: func(call imageCall) ([]byte, error) {
			if strings.Contains(call.prompt, "p2") {
				// Cancellation arrives while shot 2 is in flight
				cancel()
			}
			return []byte("png"), nil
		},
	}
	svc := NewService(provider, nil, 0)

	results, err := svc.GenerateShots(ctx, "job-1", directRequest(), fiveShotPlan(), nil)

	require.ErrorIs(t, err, context.Canceled)
	// The in-flight shot finishes, the rest are never attempted
	require.Len(t, results, 2)
	assert.True(t, results[0].Success)
	assert.True(t, results[1].Success)
	assert.Len(t, provider.imageCalls, 2)
}

func TestGenerateShotsTreadmillPerItemMode(t *testing.T) {
	provider := &fakeProvider{}
	svc := NewService(provider, nil, 0)

	req := GenerationRequest{
		UserID:      "user-1",
		Style:       StyleTreadmill,
		Orientation: "9:16",
		Assets: &assets.AssetBundle{
			Model:      makeAsset("model"),
			Background: makeAsset("background"),
			FashionItems: []*assets.UploadedAsset{
				makeAsset("dress"), makeAsset("jacket"), makeAsset("shoes"),
			},
		},
	}
	plan := &CreativePlan{ShotPrompts: []string{"base walk prompt"}}

	results, err := svc.GenerateShots(context.Background(), "job-1", req, plan, nil)

	require.NoError(t, err)
	// One shot per fashion item, all reusing the single base prompt
	require.Len(t, results, 3)
	require.Len(t, provider.imageCalls, 3)
	for _, call := range provider.imageCalls {
		assert.Contains(t, call.prompt, "base walk prompt")
		// item, background, model
		require.Len(t, call.refs, 3)
	}
	assert.Equal(t, []byte("dress"), provider.imageCalls[0].refs[0].Data)
	assert.Equal(t, []byte("jacket"), provider.imageCalls[1].refs[0].Data)
	assert.Equal(t, []byte("shoes"), provider.imageCalls[2].refs[0].Data)
}

func TestGenerateShotsOffloadsToStorage(t *testing.T) {
	provider := &fakeProvider{}
	store := &fakeShotStore{}
	svc := NewService(provider, store, 0)

	results, err := svc.GenerateShots(context.Background(), "job-7", directRequest(), fiveShotPlan(), nil)

	require.NoError(t, err)
	assert.Len(t, store.uploads, 5)
	assert.Len(t, store.recorded, 5)
	assert.Equal(t, "job-7", store.recorded[0].SessionID)
	assert.Equal(t, "storyboards/user-user-1/shot_0.webp", results[0].StoragePath)
}

func TestGenerateShotsWithoutStoreSkipsOffload(t *testing.T) {
	provider := &fakeProvider{}
	svc := NewService(provider, nil, 0)

	results, err := svc.GenerateShots(context.Background(), "job-1", directRequest(), fiveShotPlan(), nil)

	require.NoError(t, err)
	for _, result := range results {
		assert.True(t, result.Success)
		assert.Empty(t, result.StoragePath)
	}
}

func TestSuggestMotionSkipsWhenCancelled(t *testing.T) {
	provider := &fakeProvider{}
	svc := NewService(provider, nil, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	shots := []ShotResult{
		{Index: 0, Prompt: "p1", Success: true},
		{Index: 1, Prompt: "p2", Success: true},
	}

	suggestions := svc.SuggestMotion(ctx, shots)

	require.Len(t, suggestions, 2)
	assert.Nil(t, suggestions[0])
	assert.Nil(t, suggestions[1])
	assert.Empty(t, provider.textCalls)
}

func TestSuggestMotionAlignsWithShots(t *testing.T) {
	provider := &fakeProvider{
		textFn: func(prompt string) (string, error) {
			if strings.Contains(prompt, "p2") {
				return "", errors.New("quota")
			}
			return "zoom in slowly", nil
		},
	}
	svc := NewService(provider, nil, 0)

	shots := []ShotResult{
		{Index: 0, Prompt: "p1", Success: true},
		{Index: 1, Prompt: "p2", Success: true},
		{Index: 2, Prompt: "p3", Success: false},
		{Index: 3, Prompt: "p4", Success: true},
	}

	suggestions := svc.SuggestMotion(context.Background(), shots)

	require.Len(t, suggestions, 4)
	require.NotNil(t, suggestions[0])
	assert.Equal(t, "zoom in slowly", *suggestions[0])
	assert.Nil(t, suggestions[1], "failed suggestion degrades to nil")
	assert.Nil(t, suggestions[2], "failed shot gets no suggestion")
	require.NotNil(t, suggestions[3])

	// Only successful shots trigger a text call
	assert.Len(t, provider.textCalls, 3)
}
