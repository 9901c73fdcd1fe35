// Package models holds the plain data types shared between the producer and the UI.
package models

import "time"

// DefaultTimestampLayout mirrors the microsecond timestamp the list has always shown.
const DefaultTimestampLayout = "2006-01-02 15:04:05.000000"

// Task is a single to-do entry in the list.
// Tasks are never mutated once produced.
type Task struct {
	// Seq is the 1-based production sequence number within a window.
	Seq int `json:"seq"`
	// Text is the label shown in the list.
	Text string `json:"text"`
	// CreatedAt is when the producer emitted the task.
	CreatedAt time.Time `json:"created_at"`
}

// NewTask builds a task whose label is the creation time formatted with layout.
// An empty layout falls back to DefaultTimestampLayout.
func NewTask(seq int, at time.Time, layout string) Task {
	if layout == "" {
		layout = DefaultTimestampLayout
	}
	return Task{
		Seq:       seq,
		Text:      at.Format(layout),
		CreatedAt: at,
	}
}

// Before reports whether t was produced before other.
func (t Task) Before(other Task) bool {
	return t.Seq < other.Seq
}
