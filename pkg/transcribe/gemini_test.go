package transcribe

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/gbvolkov/shipment-data-maintenance-bot/pkg/config"
)

type fakeGenerator struct {
	answer   string
	err      error
	contents []*genai.Content
}

func (f *fakeGenerator) GenerateContent(_ context.Context, _ string, contents []*genai.Content, _ *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.contents = contents
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: genai.RoleModel, Parts: []*genai.Part{{Text: f.answer}}},
		}},
	}, nil
}

func newTestGemini(t *testing.T, gen *fakeGenerator) *Gemini {
	t.Helper()
	g, err := NewGemini(context.Background(), config.TranscriptionConfig{}, func(o *Options) { o.Generator = gen })
	require.NoError(t, err)
	return g
}

func TestGeminiTranscribe(t *testing.T) {
	gen := &fakeGenerator{answer: "привезти песок\n"}

	text, err := newTestGemini(t, gen).Transcribe(context.Background(), Audio{Data: []byte("OggS")})
	require.NoError(t, err)

	assert.Equal(t, "привезти песок", text)
	require.Len(t, gen.contents, 1)
	parts := gen.contents[0].Parts
	require.Len(t, parts, 2)
	require.NotNil(t, parts[1].InlineData)
	assert.Equal(t, "audio/ogg", parts[1].InlineData.MIMEType)
	assert.Equal(t, []byte("OggS"), parts[1].InlineData.Data)
}

func TestGeminiTranscribeFailures(t *testing.T) {
	_, err := newTestGemini(t, &fakeGenerator{answer: ""}).Transcribe(context.Background(), Audio{Data: []byte("x")})
	require.ErrorIs(t, err, ErrNothingRecognized)

	_, err = newTestGemini(t, &fakeGenerator{err: errors.New("quota")}).Transcribe(context.Background(), Audio{Data: []byte("x")})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNothingRecognized)
}

func TestNewSelectsProvider(t *testing.T) {
	tr, err := New(context.Background(), config.TranscriptionConfig{Provider: config.ProviderWhisper, APIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &Whisper{}, tr)

	_, err = New(context.Background(), config.TranscriptionConfig{Provider: "vosk"})
	require.Error(t, err)
}
