package assist

import (
	"sync"

	"github.com/cloudwego/eino/schema"
)

const DefaultHistoryTurns = 6

// Transcript keeps the recent conversation of one applicant. System
// messages are always kept; of the rest only the last keep messages. A nil
// *Transcript records nothing.
type Transcript struct {
	mu       sync.Mutex
	keep     int
	messages []*schema.Message
}

func NewTranscript(keep int) *Transcript {
	if keep <= 0 {
		keep = DefaultHistoryTurns * 2
	}
	return &Transcript{keep: keep}
}

// Append adds msgs, skipping nils and a message that repeats the previous one.
func (t *Transcript) Append(msgs ...*schema.Message) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, msg := range msgs {
		if msg == nil {
			continue
		}
		if n := len(t.messages); n > 0 {
			last := t.messages[n-1]
			if last.Role == msg.Role && last.Content == msg.Content {
				continue
			}
		}
		t.messages = append(t.messages, msg)
	}
	t.messages = trimHistory(t.messages, t.keep)
}

func (t *Transcript) Messages() []*schema.Message {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]*schema.Message(nil), t.messages...)
}

// LastQuestion returns the content of the latest assistant message.
func (t *Transcript) LastQuestion() string {
	if t == nil {
		return ""
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := len(t.messages) - 1; i >= 0; i-- {
		if t.messages[i].Role == schema.Assistant {
			return t.messages[i].Content
		}
	}
	return ""
}

func (t *Transcript) Clear() {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.messages = nil
	t.mu.Unlock()
}

func trimHistory(history []*schema.Message, keep int) []*schema.Message {
	nonSystem := 0
	for _, m := range history {
		if m.Role != schema.System {
			nonSystem++
		}
	}
	drop := nonSystem - keep
	if drop <= 0 {
		return history
	}
	out := make([]*schema.Message, 0, len(history)-drop)
	for _, m := range history {
		if m.Role != schema.System && drop > 0 {
			drop--
			continue
		}
		out = append(out, m)
	}
	return out
}
