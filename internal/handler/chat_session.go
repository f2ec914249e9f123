// WebSocket chat session loop: client events in, state and stream frames
// out. One goroutine reads, one writes, and at most one generation runs at
// a time.

package handler

import (
	"context"
	"errors"
	"log"
	"sync"

	"nutrichat/internal/llm"
	"nutrichat/internal/models"
	"nutrichat/internal/session"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// client → server event types
const (
	eventMessage     = "message"
	eventStop        = "stop"
	eventProfile     = "profile"
	eventEditProfile = "edit_profile"
)

// server → client frame types
const (
	eventState = "state"
	eventDelta = "delta"
	eventDone  = "done"
	eventError = "error"
)

const modelHint = "Please ensure the model is installed and the local model server is running."

type clientEvent struct {
	Type    string                `json:"type"`
	Content string                `json:"content,omitempty"`
	Profile *models.HealthProfile `json:"profile,omitempty"`
}

type serverEvent struct {
	Type    string                `json:"type"`
	State   string                `json:"state,omitempty"`
	Content string                `json:"content,omitempty"`
	Error   string                `json:"error,omitempty"`
	Hint    string                `json:"hint,omitempty"`
	History []models.Message      `json:"history,omitempty"`
	Profile *models.HealthProfile `json:"profile,omitempty"`
}

func (h *Handler) manageChatSession(conn *websocket.Conn, sess *session.Session, username string) {
	sessionID := uuid.New().String()
	log.Printf("Chat session %s started for user: %s", sessionID, username)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serverChan := make(chan serverEvent, 64)
	var writeWG sync.WaitGroup
	writeWG.Add(1)
	go func() {
		defer writeWG.Done()
		writePump(conn, username, serverChan)
	}()

	// initial view: routed by whether the intake form was ever completed
	serverChan <- stateFrame(sess)

	var genWG sync.WaitGroup
ReadLoop:
	for {
		var ev clientEvent
		if err := conn.ReadJSON(&ev); err != nil {
			log.Printf("manageChatSession(): read ended for user %s: %v", username, err)
			break ReadLoop
		}

		switch ev.Type {
		case eventMessage:
			genWG.Add(1)
			go func(content string) {
				defer genWG.Done()
				h.runGeneration(ctx, sess, content, serverChan)
			}(ev.Content)

		case eventStop:
			sess.Stop()

		case eventProfile:
			if ev.Profile == nil {
				serverChan <- serverEvent{Type: eventError, Error: "Missing profile payload"}
				continue
			}
			if err := sess.SubmitProfile(*ev.Profile); err != nil {
				serverChan <- serverEvent{Type: eventError, Error: err.Error()}
				continue
			}
			serverChan <- stateFrame(sess)

		case eventEditProfile:
			if err := sess.EditProfile(); err != nil {
				serverChan <- serverEvent{Type: eventError, Error: err.Error()}
				continue
			}
			serverChan <- stateFrame(sess)

		default:
			serverChan <- serverEvent{Type: eventError, Error: "Unsupported event type: " + ev.Type}
		}
	}

	sess.Stop()
	genWG.Wait()
	close(serverChan)
	writeWG.Wait()
	log.Printf("Chat session %s ended for user: %s", sessionID, username)
}

// runGeneration drives one turn and streams interim totals to the client.
// ErrBusy covers a second submit racing an in-flight turn; the input box is
// disabled client-side but the server guards anyway.
func (h *Handler) runGeneration(ctx context.Context, sess *session.Session, content string, serverChan chan<- serverEvent) {
	sink := func(display string) {
		serverChan <- serverEvent{Type: eventDelta, Content: display}
	}

	full, err := sess.SubmitMessage(ctx, content, sink)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrBusy), errors.Is(err, session.ErrEmptyMessage):
			serverChan <- serverEvent{Type: eventError, Error: err.Error()}
			return
		case errors.Is(err, llm.ErrModelUnavailable):
			serverChan <- serverEvent{Type: eventError, Error: err.Error(), Hint: modelHint}
		default:
			serverChan <- serverEvent{Type: eventError, Error: "An error occurred: " + err.Error(), Hint: modelHint}
		}
		// the partial text was still persisted as the assistant turn
	}

	serverChan <- serverEvent{Type: eventDone, Content: full}
	serverChan <- stateFrame(sess)
}

func stateFrame(sess *session.Session) serverEvent {
	profile := sess.Profile()
	return serverEvent{
		Type:    eventState,
		State:   sess.State().String(),
		History: sess.History(),
		Profile: &profile,
	}
}

// writePump is the only goroutine writing to the connection. On a write
// failure it keeps draining so producers never block on a dead client.
func writePump(conn *websocket.Conn, username string, events <-chan serverEvent) {
	for ev := range events {
		if err := conn.WriteJSON(ev); err != nil {
			log.Printf("writePump(): write error for user %s: %v", username, err)
			for range events {
			}
			return
		}
	}
}
