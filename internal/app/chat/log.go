/*
Package chat maintains the guild chat realtime channel and its message log.

This file defines the Log, the ordered append-only sequence of chat messages.
Messages are appended in frame arrival order and never reordered, deduplicated,
or deleted.
*/
package chat

import (
	"sync"
	"time"
)

// Log is the append-only ordered message log for one channel.
type Log struct {
	mu      sync.Mutex
	entries []Message
	nextSeq uint64
}

// NewLog returns an empty message log.
func NewLog() *Log {
	return &Log{}
}

// Append adds a message with the next local sequence id and the current
// receipt time, and returns the stored message.
func (l *Log) Append(author, body string) Message {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextSeq++
	msg := Message{
		Seq:        l.nextSeq,
		Author:     author,
		Body:       body,
		ReceivedAt: time.Now(),
	}
	l.entries = append(l.entries, msg)
	return msg
}

// Messages returns a copy of the log in append order.
func (l *Log) Messages() []Message {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Message, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of appended messages.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
