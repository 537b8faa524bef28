package usecase

import (
	"strings"
	"sync"
)

// UtteranceAssembler accumulates final transcript fragments for one turn.
// The transcription worker appends while the connection loop finalizes, so all methods lock.
type UtteranceAssembler struct {
	mu        sync.Mutex
	fragments []string
}

// NewUtteranceAssembler creates an empty assembler
func NewUtteranceAssembler() *UtteranceAssembler {
	return &UtteranceAssembler{}
}

// Add records a recognition result. Interim results and nil or empty text are dropped;
// anything else is kept exactly as received. It reports whether the fragment was retained.
func (a *UtteranceAssembler) Add(text *string, isFinal bool) bool {
	if !isFinal || text == nil || *text == "" {
		return false
	}

	a.mu.Lock()
	a.fragments = append(a.fragments, *text)
	a.mu.Unlock()
	return true
}

// Finalize joins the retained fragments with single spaces and clears them
func (a *UtteranceAssembler) Finalize() string {
	a.mu.Lock()
	defer a.mu.Unlock()

	utterance := strings.Join(a.fragments, " ")
	a.fragments = nil
	return utterance
}

// Len returns the number of retained fragments
func (a *UtteranceAssembler) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.fragments)
}

// Reset drops all fragments
func (a *UtteranceAssembler) Reset() {
	a.mu.Lock()
	a.fragments = nil
	a.mu.Unlock()
}
