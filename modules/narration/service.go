package narration

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"
)

// SynthesisError marks a speech synthesis failure, including audio the
// provider returned in a shape we cannot wrap.
type SynthesisError struct {
	Reason string
	Err    error
}

func (e *SynthesisError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("speech synthesis failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("speech synthesis failed: %s", e.Reason)
}

func (e *SynthesisError) Unwrap() error {
	return e.Err
}

// SpeechProvider is the slice of the Gemini client narration needs.
type SpeechProvider interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
	SynthesizeSpeech(ctx context.Context, text, voice string) (pcm []byte, mimeType string, err error)
}

type Service struct {
	provider SpeechProvider
}

func NewService(provider SpeechProvider) *Service {
	return &Service{provider: provider}
}

// TranslateScript adapts the script into the target language. An empty
// script returns "" without touching the provider.
func (s *Service) TranslateScript(ctx context.Context, script, targetLanguage string, scriptStyle string) (string, error) {
	if strings.TrimSpace(script) == "" {
		return "", nil
	}

	log.Printf("🌐 Translating script to %s (%d chars)", targetLanguage, len(script))

	prompt := fmt.Sprintf("Translate and adapt the following script to %s with a %s style. Keep it concise for TikTok:\n\n%q",
		targetLanguage, scriptStyle, script)

	translated, err := s.provider.GenerateText(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("translation failed: %w", err)
	}
	return strings.TrimSpace(translated), nil
}

// SynthesizeNarration produces a WAV for the script. An empty script
// returns nil without a provider call.
func (s *Service) SynthesizeNarration(ctx context.Context, script, voice string) ([]byte, error) {
	if strings.TrimSpace(script) == "" {
		return nil, nil
	}

	pcm, mimeType, err := s.provider.SynthesizeSpeech(ctx, script, voice)
	if err != nil {
		return nil, &SynthesisError{Reason: "provider call failed", Err: err}
	}
	if len(pcm) == 0 {
		return nil, &SynthesisError{Reason: "provider returned empty audio"}
	}

	sampleRate, err := parseSampleRate(mimeType)
	if err != nil {
		return nil, &SynthesisError{Reason: "unusable audio format", Err: err}
	}

	wav := PCMToWAV(pcm, sampleRate)
	log.Printf("🎙️ Narration synthesized: %d PCM bytes at %d Hz → %d byte WAV", len(pcm), sampleRate, len(wav))
	return wav, nil
}

var sampleRatePattern = regexp.MustCompile(`rate=(\d+)`)

// parseSampleRate extracts the PCM rate from a MIME type like
// "audio/L16;codec=pcm;rate=24000".
func parseSampleRate(mimeType string) (int, error) {
	match := sampleRatePattern.FindStringSubmatch(mimeType)
	if match == nil {
		return 0, fmt.Errorf("no sample rate in MIME type %q", mimeType)
	}
	rate, err := strconv.Atoi(match[1])
	if err != nil || rate <= 0 {
		return 0, fmt.Errorf("invalid sample rate in MIME type %q", mimeType)
	}
	return rate, nil
}
