package relay

import (
	"context"
	"errors"
	"strings"
	"testing"

	"nutrichat/internal/llm"
	"nutrichat/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStreamer replays a scripted fragment sequence.
type fakeStreamer struct {
	fragments  []llm.Fragment
	openErr    error
	gotPayload []llm.Message
}

func (f *fakeStreamer) StreamChat(ctx context.Context, messages []llm.Message) (<-chan llm.Fragment, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	f.gotPayload = messages
	out := make(chan llm.Fragment)
	go func() {
		defer close(out)
		for _, frag := range f.fragments {
			select {
			case out <- frag:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func TestSystemPrompt_ContainsProfileFields(t *testing.T) {
	profile := models.HealthProfile{
		Gender:             "หญิง",
		Age:                30,
		HeightCM:           160,
		WeightKG:           52.5,
		ActivityLevel:      "ปานกลาง",
		DietaryPreferences: []string{"มังสวิรัติ", "ฮาลาล"},
		Allergies:          "ถั่วลิสง",
	}

	prompt := SystemPrompt(profile)
	assert.Contains(t, prompt, "หญิง")
	assert.Contains(t, prompt, "30")
	assert.Contains(t, prompt, "160 cm")
	assert.Contains(t, prompt, "52.5 kg")
	assert.Contains(t, prompt, "ปานกลาง")
	assert.Contains(t, prompt, "มังสวิรัติ, ฮาลาล")
	assert.Contains(t, prompt, "ถั่วลิสง")
}

func TestSystemPrompt_SkipsUnsetFields(t *testing.T) {
	prompt := SystemPrompt(models.HealthProfile{Gender: "male", ActivityLevel: "low"})
	assert.NotContains(t, prompt, "age")
	assert.NotContains(t, prompt, "allergies")
}

func TestGenerate_AccumulatesFragments(t *testing.T) {
	streamer := &fakeStreamer{fragments: []llm.Fragment{
		{Content: "สวัส"},
		{Content: "ดีค่ะ"},
	}}
	r := New(streamer)

	var displays []string
	sink := func(display string) { displays = append(displays, display) }

	history := []models.Message{{Role: models.RoleUser, Content: "แนะนำอาหารเช้า"}}
	full, err := r.Generate(context.Background(), models.HealthProfile{Gender: "หญิง"}, history, sink)
	require.NoError(t, err)
	assert.Equal(t, "สวัสดีค่ะ", full)

	// interim updates carry the cursor, the final one does not
	require.Len(t, displays, 3)
	assert.Equal(t, "สวัส"+Cursor, displays[0])
	assert.Equal(t, "สวัสดีค่ะ"+Cursor, displays[1])
	assert.Equal(t, "สวัสดีค่ะ", displays[2])
	assert.False(t, strings.Contains(full, Cursor))
}

func TestGenerate_PayloadIsSystemPromptPlusHistory(t *testing.T) {
	streamer := &fakeStreamer{fragments: []llm.Fragment{{Content: "ok"}}}
	r := New(streamer)

	history := []models.Message{
		{Role: models.RoleUser, Content: "first"},
		{Role: models.RoleAssistant, Content: "reply"},
		{Role: models.RoleUser, Content: "second"},
	}
	_, err := r.Generate(context.Background(), models.HealthProfile{Gender: "หญิง", ActivityLevel: "ปานกลาง"}, history, nil)
	require.NoError(t, err)

	require.Len(t, streamer.gotPayload, 4)
	assert.Equal(t, models.RoleSystem, streamer.gotPayload[0].Role)
	assert.Contains(t, streamer.gotPayload[0].Content, "หญิง")
	assert.Equal(t, "first", streamer.gotPayload[1].Content)
	assert.Equal(t, "reply", streamer.gotPayload[2].Content)
	assert.Equal(t, "second", streamer.gotPayload[3].Content)
}

func TestGenerate_PartialTextKeptOnStreamFailure(t *testing.T) {
	streamErr := errors.New("connection reset")
	streamer := &fakeStreamer{fragments: []llm.Fragment{
		{Content: "สวัสดี"},
		{Err: streamErr},
	}}
	r := New(streamer)

	full, err := r.Generate(context.Background(), models.HealthProfile{}, nil, nil)
	require.ErrorIs(t, err, streamErr)
	assert.Equal(t, "สวัสดี", full)
}

func TestGenerate_OpenFailureSurfaced(t *testing.T) {
	openErr := errors.New("connection refused")
	r := New(&fakeStreamer{openErr: openErr})

	full, err := r.Generate(context.Background(), models.HealthProfile{}, nil, nil)
	require.ErrorIs(t, err, openErr)
	assert.Empty(t, full)
}

// hangingStreamer delivers its fragments and then stays open until the
// context is cancelled, like a model still thinking about its next token.
type hangingStreamer struct {
	fragments []llm.Fragment
}

func (h *hangingStreamer) StreamChat(ctx context.Context, _ []llm.Message) (<-chan llm.Fragment, error) {
	out := make(chan llm.Fragment)
	go func() {
		defer close(out)
		for _, frag := range h.fragments {
			select {
			case out <- frag:
			case <-ctx.Done():
				return
			}
		}
		<-ctx.Done()
	}()
	return out, nil
}

func TestGenerate_StopBetweenFragments(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	streamer := &hangingStreamer{fragments: []llm.Fragment{
		{Content: "keep "},
		{Content: "this"},
	}}
	r := New(streamer)

	sink := func(display string) {
		if strings.HasPrefix(display, "keep this") {
			cancel() // user hits stop after the second fragment
		}
	}

	full, err := r.Generate(ctx, models.HealthProfile{}, nil, sink)
	require.NoError(t, err)
	assert.Equal(t, "keep this", full)
}
