// Package notify holds user-facing notices raised outside of a request, such
// as session warnings fired by a timer or a 401 seen by the HTTP client.
// Pages drain the queue when they render.
package notify

import (
	"sync"

	"go.uber.org/zap"
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

type Message struct {
	Level Level
	Text  string
}

// Notifier is implemented by anything that can show a message to the clinician.
type Notifier interface {
	Notify(level Level, text string)
}

const defaultCapacity = 32

// Queue is a bounded FIFO of messages; when full the oldest message is dropped.
type Queue struct {
	log *zap.Logger

	mu       sync.Mutex
	capacity int
	items    []Message
}

func NewQueue(log *zap.Logger) *Queue {
	return &Queue{
		log:      log,
		capacity: defaultCapacity,
	}
}

func (q *Queue) Notify(level Level, text string) {
	q.log.Info("notification", zap.String("level", string(level)), zap.String("text", text))

	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) >= q.capacity {
		q.items = q.items[1:]
	}
	q.items = append(q.items, Message{Level: level, Text: text})
}

// Drain returns every pending message and empties the queue.
func (q *Queue) Drain() []Message {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := q.items
	q.items = nil
	return out
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
