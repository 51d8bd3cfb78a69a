// Package queue holds the pending messages of a status bar, one FIFO per
// severity level.
package queue

import (
	"container/list"
	"errors"

	"github.com/jmylchreest/statusbar/internal/message"
	"github.com/jmylchreest/statusbar/internal/severity"
)

// Errors returned by the store.
var (
	ErrInvalidLevel = errors.New("message level has no queue")
	ErrDuplicate    = errors.New("message is already queued")
)

// Counts is the number of queued messages per level.
type Counts struct {
	Info    int
	Warning int
	Error   int
}

// Total returns the number of queued messages across all levels.
func (c Counts) Total() int {
	return c.Info + c.Warning + c.Error
}

// Of returns the count for a single level.
func (c Counts) Of(level severity.Severity) int {
	switch level {
	case severity.Info:
		return c.Info
	case severity.Warning:
		return c.Warning
	case severity.Error:
		return c.Error
	default:
		return 0
	}
}

// Store keeps three FIFO queues, indexed so that a specific message can be
// removed in constant time. It is not safe for concurrent use; the owning
// status bar only touches it from its event loop.
type Store struct {
	lists map[severity.Severity]*list.List
	index map[*message.Message]*list.Element // Fast lookup for removal
}

// New creates an empty store.
func New() *Store {
	s := &Store{
		lists: make(map[severity.Severity]*list.List, len(severity.Levels)),
		index: make(map[*message.Message]*list.Element),
	}
	for _, level := range severity.Levels {
		s.lists[level] = list.New()
	}
	return s
}

// Enqueue appends msg to the tail of its severity's queue.
func (s *Store) Enqueue(msg *message.Message) error {
	l, ok := s.lists[msg.Severity]
	if !ok {
		return ErrInvalidLevel
	}
	if _, exists := s.index[msg]; exists {
		return ErrDuplicate
	}
	s.index[msg] = l.PushBack(msg)
	return nil
}

// PeekHead returns the oldest message of a level without removing it,
// or nil if the level is empty.
func (s *Store) PeekHead(level severity.Severity) *message.Message {
	l, ok := s.lists[level]
	if !ok {
		return nil
	}
	front := l.Front()
	if front == nil {
		return nil
	}
	return front.Value.(*message.Message)
}

// Remove deletes msg from its queue. It returns false if msg was not queued.
func (s *Store) Remove(msg *message.Message) bool {
	elem, ok := s.index[msg]
	if !ok {
		return false
	}
	s.lists[msg.Severity].Remove(elem)
	delete(s.index, msg)
	return true
}

// Contains reports whether msg is queued.
func (s *Store) Contains(msg *message.Message) bool {
	_, ok := s.index[msg]
	return ok
}

// IsEmpty reports whether a level has no queued messages.
func (s *Store) IsEmpty(level severity.Severity) bool {
	return s.Len(level) == 0
}

// Len returns the number of queued messages of a level.
func (s *Store) Len(level severity.Severity) int {
	l, ok := s.lists[level]
	if !ok {
		return 0
	}
	return l.Len()
}

// HighestNonEmpty returns the highest level with queued messages, or Idle.
func (s *Store) HighestNonEmpty() severity.Severity {
	for _, level := range severity.Levels {
		if s.lists[level].Len() > 0 {
			return level
		}
	}
	return severity.Idle
}

// Counts returns the per-level queue lengths.
func (s *Store) Counts() Counts {
	return Counts{
		Info:    s.lists[severity.Info].Len(),
		Warning: s.lists[severity.Warning].Len(),
		Error:   s.lists[severity.Error].Len(),
	}
}

// Drain empties every queue and returns the removed messages, highest
// level first and FIFO within a level.
func (s *Store) Drain() []*message.Message {
	out := make([]*message.Message, 0, len(s.index))
	for _, level := range severity.Levels {
		l := s.lists[level]
		for e := l.Front(); e != nil; e = e.Next() {
			out = append(out, e.Value.(*message.Message))
		}
		l.Init()
	}
	s.index = make(map[*message.Message]*list.Element)
	return out
}
