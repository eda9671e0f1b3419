package narration

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSpeechProvider struct {
	textResponse string
	textErr      error
	pcm          []byte
	mimeType     string
	speechErr    error
	textCalls    int
	speechCalls  int
}

func (f *fakeSpeechProvider) GenerateText(ctx context.Context, prompt string) (string, error) {
	f.textCalls++
	return f.textResponse, f.textErr
}

func (f *fakeSpeechProvider) SynthesizeSpeech(ctx context.Context, text, voice string) ([]byte, string, error) {
	f.speechCalls++
	return f.pcm, f.mimeType, f.speechErr
}

func TestTranslateScriptEmptyInputSkipsProvider(t *testing.T) {
	provider := &fakeSpeechProvider{}
	svc := NewService(provider)

	out, err := svc.TranslateScript(context.Background(), "   ", "English", "direct")
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Zero(t, provider.textCalls)
}

func TestTranslateScriptTrimsResult(t *testing.T) {
	provider := &fakeSpeechProvider{textResponse: "  Hasil terjemahan.  "}
	svc := NewService(provider)

	out, err := svc.TranslateScript(context.Background(), "Original script", "Bahasa Indonesia", "poetic")
	require.NoError(t, err)
	assert.Equal(t, "Hasil terjemahan.", out)
	assert.Equal(t, 1, provider.textCalls)
}

func TestSynthesizeNarrationEmptyScriptReturnsNil(t *testing.T) {
	provider := &fakeSpeechProvider{}
	svc := NewService(provider)

	wav, err := svc.SynthesizeNarration(context.Background(), "", "Kore")
	require.NoError(t, err)
	assert.Nil(t, wav)
	assert.Zero(t, provider.speechCalls)
}

func TestSynthesizeNarrationWrapsPCM(t *testing.T) {
	provider := &fakeSpeechProvider{
		pcm:      []byte{0x01, 0x00, 0x02, 0x00},
		mimeType: "audio/L16;codec=pcm;rate=24000",
	}
	svc := NewService(provider)

	wav, err := svc.SynthesizeNarration(context.Background(), "Halo semua", "Zephyr")
	require.NoError(t, err)
	require.Len(t, wav, 44+4)
	assert.Equal(t, "RIFF", string(wav[0:4]))
}

func TestSynthesizeNarrationProviderFailure(t *testing.T) {
	provider := &fakeSpeechProvider{speechErr: errors.New("503 overloaded")}
	svc := NewService(provider)

	_, err := svc.SynthesizeNarration(context.Background(), "Halo", "Kore")

	var synthErr *SynthesisError
	require.ErrorAs(t, err, &synthErr)
}

func TestSynthesizeNarrationEmptyAudio(t *testing.T) {
	provider := &fakeSpeechProvider{pcm: nil, mimeType: "audio/L16;rate=24000"}
	svc := NewService(provider)

	_, err := svc.SynthesizeNarration(context.Background(), "Halo", "Kore")

	var synthErr *SynthesisError
	require.ErrorAs(t, err, &synthErr)
}

func TestSynthesizeNarrationUnparseableRate(t *testing.T) {
	provider := &fakeSpeechProvider{pcm: []byte{0x01, 0x00}, mimeType: "audio/mpeg"}
	svc := NewService(provider)

	_, err := svc.SynthesizeNarration(context.Background(), "Halo", "Kore")

	var synthErr *SynthesisError
	require.ErrorAs(t, err, &synthErr)
}

func TestParseSampleRate(t *testing.T) {
	rate, err := parseSampleRate("audio/L16;codec=pcm;rate=24000")
	require.NoError(t, err)
	assert.Equal(t, 24000, rate)

	rate, err = parseSampleRate("audio/L16;rate=16000;codec=pcm")
	require.NoError(t, err)
	assert.Equal(t, 16000, rate)

	_, err = parseSampleRate("audio/wav")
	assert.Error(t, err)

	_, err = parseSampleRate("")
	assert.Error(t, err)
}
