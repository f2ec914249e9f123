package relay

import (
	"context"
	"fmt"
	"strings"

	"nutrichat/internal/llm"
	"nutrichat/internal/models"
)

// Cursor trails every interim display update while the model is still
// writing. It is presentation-only and never persisted.
const Cursor = "▌"

const promptTemplate = `You are a personal nutrition and wellness assistant. Always answer in the language the user writes in.
Tailor every recommendation to this user's health profile:

%sKeep advice practical, specific to this person, and remind them to consult a professional for medical decisions.`

// Streamer produces a finite stream of content fragments for one
// completion request.
type Streamer interface {
	StreamChat(ctx context.Context, messages []llm.Message) (<-chan llm.Fragment, error)
}

// Sink receives each interim display update during generation.
type Sink func(display string)

// Relay forwards one turn of conversation to the model process and
// accumulates the streamed reply.
type Relay struct {
	streamer Streamer
}

func New(streamer Streamer) *Relay {
	return &Relay{streamer: streamer}
}

// SystemPrompt builds the instruction string from the user's saved profile.
// It is recomputed from the latest profile on every turn, never cached.
func SystemPrompt(profile models.HealthProfile) string {
	var b strings.Builder
	field := func(name, value string) {
		if strings.TrimSpace(value) != "" {
			fmt.Fprintf(&b, "- %s: %s\n", name, value)
		}
	}
	field("gender", profile.Gender)
	if profile.Age > 0 {
		fmt.Fprintf(&b, "- age: %d\n", profile.Age)
	}
	if profile.HeightCM > 0 {
		fmt.Fprintf(&b, "- height: %.0f cm\n", profile.HeightCM)
	}
	if profile.WeightKG > 0 {
		fmt.Fprintf(&b, "- weight: %.1f kg\n", profile.WeightKG)
	}
	field("activity level", profile.ActivityLevel)
	field("dietary preferences", strings.Join(profile.DietaryPreferences, ", "))
	field("medical conditions", strings.Join(profile.MedicalConditions, ", "))
	field("medications", profile.Medications)
	field("allergies", profile.Allergies)
	if b.Len() == 0 {
		b.WriteString("- (no profile on file yet)\n")
	}
	return fmt.Sprintf(promptTemplate, b.String())
}

// Generate runs one completion turn: system prompt plus the full history,
// streamed back fragment by fragment. Each incremental total is forwarded
// to sink with the cursor marker appended; the final total is forwarded
// without it. The accumulated text is returned even when the stream fails
// or the context is cancelled mid-way, so a partial reply is never lost.
func (r *Relay) Generate(ctx context.Context, profile models.HealthProfile, history []models.Message, sink Sink) (string, error) {
	payload := make([]llm.Message, 0, len(history)+1)
	payload = append(payload, llm.Message{Role: models.RoleSystem, Content: SystemPrompt(profile)})
	for _, m := range history {
		payload = append(payload, llm.Message{Role: m.Role, Content: m.Content})
	}

	fragments, err := r.streamer.StreamChat(ctx, payload)
	if err != nil {
		return "", err
	}

	var full strings.Builder
	for {
		select {
		case <-ctx.Done():
			// stop requested; checked between fragments only
			return full.String(), nil
		case frag, ok := <-fragments:
			if !ok {
				if sink != nil {
					sink(full.String())
				}
				return full.String(), nil
			}
			if frag.Err != nil {
				return full.String(), frag.Err
			}
			full.WriteString(frag.Content)
			if sink != nil {
				sink(full.String() + Cursor)
			}
		}
	}
}
