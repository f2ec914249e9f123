package llm

import (
	"context"
	"errors"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"
)

// ErrModelUnavailable marks failures opening the stream: server unreachable,
// model not pulled, and the like. The caller turns it into a user-facing
// hint to check the local model server.
var ErrModelUnavailable = errors.New("model unavailable")

// Message is one turn of the conversation sent to the model.
type Message struct {
	Role    string
	Content string
}

// Fragment is one incremental piece of model output. A Fragment carrying a
// non-nil Err is the last one delivered.
type Fragment struct {
	Content string
	Err     error
}

// Client streams chat completions from a local Ollama server through its
// OpenAI-compatible endpoint.
type Client struct {
	client *openai.Client
	model  string
}

func NewClient(baseURL, model string) *Client {
	cfg := openai.DefaultConfig("") // Ollama ignores the API key
	cfg.BaseURL = baseURL
	return &Client{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

func (c *Client) Model() string { return c.model }

// StreamChat opens one streaming completion and delivers content fragments
// on the returned channel until the stream is exhausted. The channel is
// closed when the stream ends for any reason; the sequence is finite and
// not restartable.
func (c *Client) StreamChat(ctx context.Context, messages []Message) (<-chan Fragment, error) {
	oaMsgs := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		oaMsgs = append(oaMsgs, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	stream, err := c.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: oaMsgs,
		Stream:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}

	out := make(chan Fragment)
	go func() {
		defer close(out)
		defer stream.Close()
		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				select {
				case out <- Fragment{Err: fmt.Errorf("stream interrupted: %w", err)}:
				case <-ctx.Done():
				}
				return
			}
			if len(resp.Choices) == 0 {
				continue
			}
			select {
			case out <- Fragment{Content: resp.Choices[0].Delta.Content}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
