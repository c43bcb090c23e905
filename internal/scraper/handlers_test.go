// internal/scraper/handlers_test.go
package scraper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"

	"github.com/Hamza-bouzid/pagine-bianche/api/schemas"
	"github.com/Hamza-bouzid/pagine-bianche/internal/browser/dom/domtest"
)

func TestBuildSearchURL(t *testing.T) {
	q := schemas.SearchQuery{Term: "Pizzeria", Location: "Roma"}

	assert.Equal(t, "https://www.paginebianche.it/ricerca?qs=Pizzeria&dv=Roma",
		BuildSearchURL("https://www.paginebianche.it", "/ricerca", q))
	assert.Equal(t, "http://127.0.0.1:8080/ricerca?qs=Pizzeria&dv=Roma",
		BuildSearchURL("http://127.0.0.1:8080/", "ricerca", q))
	assert.Equal(t, "https://x.test/ricerca?qs=Bar Sport&dv=San Marino",
		BuildSearchURL("https://x.test", "/ricerca", schemas.SearchQuery{Term: "Bar Sport", Location: "San Marino"}),
		"terms are not escaped")
}

func TestConsentHandler(t *testing.T) {
	sel := testScraperConfig().Selectors
	const timeout, poll = 30 * time.Millisecond, 5 * time.Millisecond

	t.Run("rejects cookies once", func(t *testing.T) {
		btn := domtest.NewNode("Rifiuta")
		page := domtest.NewNode("").Add(sel.ConsentReject, btn)
		events, em := newEventLog()
		h := NewConsentHandler(sel.ConsentReject, timeout, poll, zaptest.NewLogger(t))

		assert.True(t, h.Dismiss(context.Background(), page, em))
		assert.True(t, h.Dismiss(context.Background(), page, em))

		assert.Equal(t, 1, btn.Clicks(), "a dismissed banner is never clicked again")
		assert.True(t, h.Dismissed())
		assert.Equal(t, []string{"Cookies rejected"}, events.messages())
	})

	t.Run("absent banner is skipped", func(t *testing.T) {
		events, em := newEventLog()
		h := NewConsentHandler(sel.ConsentReject, timeout, poll, zaptest.NewLogger(t))

		start := time.Now()
		assert.False(t, h.Dismiss(context.Background(), domtest.NewNode(""), em))
		assert.Less(t, time.Since(start), time.Second)
		assert.False(t, h.Dismissed())
		assert.Empty(t, events.messages())
	})

	t.Run("banner appearing late is still dismissed", func(t *testing.T) {
		page := domtest.NewNode("")
		btn := domtest.NewNode("Rifiuta").SetHidden(true)
		page.Add(sel.ConsentReject, btn)
		go func() {
			time.Sleep(10 * time.Millisecond)
			btn.SetHidden(false)
		}()

		h := NewConsentHandler(sel.ConsentReject, time.Second, poll, zaptest.NewLogger(t))
		assert.True(t, h.Dismiss(context.Background(), page, nil))
		assert.Equal(t, 1, btn.Clicks())
	})

	t.Run("click failure is tolerated", func(t *testing.T) {
		btn := domtest.NewNode("Rifiuta")
		btn.ClickErr = errors.New("covered by another element")
		page := domtest.NewNode("").Add(sel.ConsentReject, btn)
		h := NewConsentHandler(sel.ConsentReject, timeout, poll, zaptest.NewLogger(t))

		assert.False(t, h.Dismiss(context.Background(), page, nil))
		assert.False(t, h.Dismissed())
	})
}

func TestPaginationHandler(t *testing.T) {
	sel := testScraperConfig().Selectors

	t.Run("clicks the control and settles", func(t *testing.T) {
		btn := domtest.NewNode("Altri risultati")
		page := domtest.NewNode("").Add(sel.LoadMore, btn)
		p := NewPaginationHandler(sel.LoadMore, 20*time.Millisecond, zaptest.NewLogger(t))

		start := time.Now()
		assert.True(t, p.Expand(context.Background(), page))
		assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
		assert.Equal(t, 1, btn.Clicks())
	})

	t.Run("absent control is a no-op", func(t *testing.T) {
		p := NewPaginationHandler(sel.LoadMore, time.Hour, zaptest.NewLogger(t))
		assert.False(t, p.Expand(context.Background(), domtest.NewNode("")))
	})

	t.Run("hidden control is a no-op", func(t *testing.T) {
		btn := domtest.NewNode("Altri").SetHidden(true)
		page := domtest.NewNode("").Add(sel.LoadMore, btn)
		p := NewPaginationHandler(sel.LoadMore, time.Hour, zaptest.NewLogger(t))

		assert.False(t, p.Expand(context.Background(), page))
		assert.Zero(t, btn.Clicks())
	})

	t.Run("lookup failure is swallowed", func(t *testing.T) {
		page := domtest.NewNode("")
		page.FindErr = errors.New("target closed")
		p := NewPaginationHandler(sel.LoadMore, time.Hour, zaptest.NewLogger(t))

		assert.False(t, p.Expand(context.Background(), page))
	})

	t.Run("settling stops on cancellation", func(t *testing.T) {
		page := domtest.NewNode("").Add(sel.LoadMore, domtest.NewNode("Altri"))
		p := NewPaginationHandler(sel.LoadMore, time.Hour, zaptest.NewLogger(t))
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		assert.True(t, p.Expand(ctx, page))
	})
}
