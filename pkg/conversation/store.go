// Package conversation holds the per-session, append-only turn sequence and
// its wire serialization.
//
// Each assistant turn is kept in two representations: the wire-native content
// array exactly as the analyst emitted it (echoed back on later requests for
// context continuity) and the normalized text+sql view used for rendering.
// Dropping the wire form would silently degrade multi-turn context, since the
// service expects its own emitted shape replayed back.
package conversation

import (
	"encoding/json"
	"sync"

	"github.com/kaundalabs/dumsor/pkg/analyst"
	"github.com/kaundalabs/dumsor/pkg/analyst/envelope"
)

// Turn is one exchange unit in the conversation, attributed to either the
// user or the assistant. Turns are immutable once appended.
type Turn struct {
	// Role is analyst.RoleUser or analyst.RoleAssistant.
	Role string

	// Content is the wire-native content array for this turn. For user
	// turns it is synthesized once at append time; for assistant turns it
	// is the analyst's emitted bytes, unmodified.
	Content json.RawMessage

	// Text is the normalized narrative view. For user turns this is the
	// question itself.
	Text string

	// SQL holds the normalized SQL statements of an assistant turn, in
	// order. Empty for user turns.
	SQL []string
}

// Store is the ordered, append-only sequence of turns for one session.
// Lifetime is exactly one session: created empty at session start, dropped at
// session end, never persisted. Appends are serialized by the owning caller
// (e.g. the web session manager's in-flight flag), but reads can arrive
// concurrently from history rendering, so the turn slice is guarded
// internally.
type Store struct {
	mu    sync.RWMutex
	turns []Turn
}

func NewStore() *Store {
	return &Store{}
}

// AppendUser appends a user turn synthesized from the question text.
func (s *Store) AppendUser(question string) error {
	msg, err := analyst.NewUserMessage(question)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.turns = append(s.turns, Turn{
		Role:    analyst.RoleUser,
		Content: msg.Content,
		Text:    question,
	})

	return nil
}

// AppendAssistant appends an assistant turn from a normalized reply, keeping
// the reply's wire-native content for later echo-back.
func (s *Store) AppendAssistant(reply *envelope.Reply) {
	content := reply.Content
	if content == nil {
		content = json.RawMessage("[]")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.turns = append(s.turns, Turn{
		Role:    analyst.RoleAssistant,
		Content: content,
		Text:    reply.Text,
		SQL:     append([]string(nil), reply.SQL...),
	})
}

// History returns a snapshot copy of the turn sequence in order of occurrence.
func (s *Store) History() []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Turn(nil), s.turns...)
}

// Len returns the number of turns appended so far.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns)
}

// WireMessages serializes the full turn sequence for replay to the analyst.
// Assistant content arrays pass through exactly as received, so the same turn
// sequence always yields an identical payload.
func (s *Store) WireMessages() []analyst.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages := make([]analyst.Message, 0, len(s.turns))
	for _, turn := range s.turns {
		messages = append(messages, analyst.Message{
			Role:    turn.Role,
			Content: turn.Content,
		})
	}
	return messages
}
