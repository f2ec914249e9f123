package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// streamHandler serves an OpenAI-style SSE completion stream, the format
// Ollama's compatibility endpoint speaks. With failMidStream it emits an
// error event instead of the terminator, like a model runner dying mid-turn.
func streamHandler(t *testing.T, contents []string, failMidStream bool) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)

		var req struct {
			Model    string `json:"model"`
			Stream   bool   `json:"stream"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		assert.True(t, req.Stream)

		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, content := range contents {
			chunk := fmt.Sprintf(
				`{"id":"1","object":"chat.completion.chunk","created":1,"model":"test-model","choices":[{"index":0,"delta":{"content":%q}}]}`,
				content,
			)
			fmt.Fprintf(w, "data: %s\n\n", chunk)
			flusher.Flush()
		}
		if failMidStream {
			fmt.Fprint(w, `data: {"error":{"message":"model runner crashed","type":"server_error"}}`+"\n\n")
		} else {
			fmt.Fprint(w, "data: [DONE]\n\n")
		}
		flusher.Flush()
	}
}

func collect(t *testing.T, fragments <-chan Fragment) (string, error) {
	t.Helper()
	var full string
	for frag := range fragments {
		if frag.Err != nil {
			return full, frag.Err
		}
		full += frag.Content
	}
	return full, nil
}

func TestStreamChat_DeliversFragmentsInOrder(t *testing.T) {
	server := httptest.NewServer(streamHandler(t, []string{"สวัส", "ดี", "ค่ะ"}, false))
	defer server.Close()

	client := NewClient(server.URL, "test-model")
	fragments, err := client.StreamChat(context.Background(), []Message{{Role: "user", Content: "ทักทาย"}})
	require.NoError(t, err)

	full, streamErr := collect(t, fragments)
	require.NoError(t, streamErr)
	assert.Equal(t, "สวัสดีค่ะ", full)
}

func TestStreamChat_MidStreamFailureAfterFragments(t *testing.T) {
	server := httptest.NewServer(streamHandler(t, []string{"สวัสดี"}, true))
	defer server.Close()

	client := NewClient(server.URL, "test-model")
	fragments, err := client.StreamChat(context.Background(), []Message{{Role: "user", Content: "hi"}})
	require.NoError(t, err)

	full, streamErr := collect(t, fragments)
	require.Error(t, streamErr)
	// fragments received before the failure are not lost
	assert.Equal(t, "สวัสดี", full)
}

func TestStreamChat_ServerUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close() // connection refused from here on

	client := NewClient(server.URL, "test-model")
	_, err := client.StreamChat(context.Background(), []Message{{Role: "user", Content: "hi"}})
	require.ErrorIs(t, err, ErrModelUnavailable)
}

func TestStreamChat_ModelNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":{"message":"model \"missing\" not found","type":"invalid_request_error"}}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "missing")
	_, err := client.StreamChat(context.Background(), []Message{{Role: "user", Content: "hi"}})
	require.ErrorIs(t, err, ErrModelUnavailable)
}
