package gemini

import (
	"context"
	"fmt"
	"log"
	"time"

	"google.golang.org/genai"
)

// generateWithRetry calls the model, rotating through the configured API
// keys on rate limits. Each key gets up to 3 attempts with a 2 second
// pause between them. Credential and other non-429 errors return
// immediately since retrying cannot fix them.
func generateWithRetry(
	ctx context.Context,
	apiKeys []string,
	model string,
	contents []*genai.Content,
	config *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error) {

	if len(apiKeys) == 0 {
		return nil, fmt.Errorf("no API keys provided")
	}

	const maxRetriesPerKey = 3
	var lastErr error

	for keyIndex, apiKey := range apiKeys {
		if len(apiKeys) > 1 {
			log.Printf("🔑 [Gemini] Trying API key #%d/%d", keyIndex+1, len(apiKeys))
		}

		for attempt := 1; attempt <= maxRetriesPerKey; attempt++ {
			if attempt > 1 {
				log.Printf("   🔄 Retry attempt %d/%d for key #%d", attempt, maxRetriesPerKey, keyIndex+1)
			}

			client, err := genai.NewClient(ctx, &genai.ClientConfig{
				APIKey:  apiKey,
				Backend: genai.BackendGeminiAPI,
			})
			if err != nil {
				log.Printf("⚠️  [Gemini] Failed to create client with key #%d (attempt %d): %v", keyIndex+1, attempt, err)
				lastErr = err
				continue
			}

			result, err := client.Models.GenerateContent(ctx, model, contents, config)
			if err == nil {
				return result, nil
			}

			lastErr = err

			if IsCredentialError(err) {
				log.Printf("❌ [Gemini] Key #%d rejected: %v", keyIndex+1, err)
				return nil, &CredentialError{Err: err}
			}

			if !isRateLimitError(err) {
				log.Printf("❌ [Gemini] Key #%d failed with non-retryable error: %v", keyIndex+1, err)
				return nil, err
			}

			log.Printf("⚠️  [Gemini] Key #%d hit rate limit on attempt %d/%d", keyIndex+1, attempt, maxRetriesPerKey)

			if attempt < maxRetriesPerKey {
				time.Sleep(time.Second * 2)
			}
		}

		log.Printf("⚠️  [Gemini] Key #%d exhausted all %d attempts, trying next key...", keyIndex+1, maxRetriesPerKey)
	}

	return nil, fmt.Errorf("all %d API keys exhausted (%d attempts each), last error: %w", len(apiKeys), maxRetriesPerKey, lastErr)
}
