package tui

import (
	"sync"

	"github.com/Dicklesworthstone/nbview/internal/document"
)

// fallbackPrompter collects "no viewer registered" offers from controllers.
// Controllers run inside command goroutines, so offers land in a mutex'd
// slot and the update loop drains them after each assign completes.
type fallbackPrompter struct {
	mu      sync.Mutex
	pending []document.InputRef
}

func (p *fallbackPrompter) OfferOpenAsText(input document.InputRef) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = append(p.pending, input)
}

// take pops the oldest pending offer.
func (p *fallbackPrompter) take() (document.InputRef, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.pending) == 0 {
		return document.InputRef{}, false
	}
	input := p.pending[0]
	p.pending = p.pending[1:]
	return input, true
}
