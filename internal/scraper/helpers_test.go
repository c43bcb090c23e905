// internal/scraper/helpers_test.go
package scraper

import (
	"sync"
	"time"

	"github.com/Hamza-bouzid/pagine-bianche/api/schemas"
	"github.com/Hamza-bouzid/pagine-bianche/internal/browser/dom/domtest"
	"github.com/Hamza-bouzid/pagine-bianche/internal/config"
	"github.com/Hamza-bouzid/pagine-bianche/internal/progress"
)

// testScraperConfig returns production selectors with timings shrunk for tests.
func testScraperConfig() config.ScraperConfig {
	cfg := config.NewDefaultConfig().Scraper()
	cfg.ConsentTimeout = 50 * time.Millisecond
	cfg.RevealTimeout = 50 * time.Millisecond
	cfg.LoadMoreSettle = 5 * time.Millisecond
	cfg.PollInterval = 5 * time.Millisecond
	return cfg
}

// eventLog captures progress events.
type eventLog struct {
	mu     sync.Mutex
	events []schemas.ProgressEvent
}

func newEventLog() (*eventLog, *progress.Emitter) {
	l := &eventLog{}
	return l, progress.NewEmitter("test-run", progress.Func(func(ev schemas.ProgressEvent) {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.events = append(l.events, ev)
	}))
}

func (l *eventLog) messages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.events))
	for _, ev := range l.events {
		out = append(out, ev.Message)
	}
	return out
}

// newCard builds a result card. Empty fields are left out of the card entirely.
func newCard(sel config.SelectorConfig, name, address string) *domtest.Node {
	card := domtest.NewNode("")
	if name != "" {
		card.Add(sel.Name, domtest.NewNode(name))
	}
	if address != "" {
		card.Add(sel.Address, domtest.NewNode(address))
	}
	return card
}

// withReveal adds a reveal control that attaches the phone element when clicked,
// the way the live site fetches the number on demand.
func withReveal(sel config.SelectorConfig, card *domtest.Node, phone string) *domtest.Node {
	btn := domtest.NewNode("Mostra numero")
	btn.OnClick = func(*domtest.Node) {
		card.Add(sel.Phone, domtest.NewNode(phone))
	}
	card.Add(sel.PhoneReveal, btn)
	return btn
}
