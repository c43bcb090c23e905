// browser/dom/locator_test.go
package dom_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hamza-bouzid/pagine-bianche/internal/browser/dom"
	"github.com/Hamza-bouzid/pagine-bianche/internal/browser/dom/domtest"
)

const poll = 5 * time.Millisecond

func TestAwaitVisible(t *testing.T) {
	t.Run("returns an element that is already visible", func(t *testing.T) {
		btn := domtest.NewNode("Rifiuta")
		root := domtest.NewNode("").Add(".reject", btn)

		el, err := dom.AwaitVisible(context.Background(), dom.Locate(root, ".reject").WithPollInterval(poll), time.Second)
		require.NoError(t, err)
		assert.Same(t, btn, el)
	})

	t.Run("waits for an element to become visible", func(t *testing.T) {
		btn := domtest.NewNode("Mostra").SetHidden(true)
		root := domtest.NewNode("").Add(".btn", btn)

		go func() {
			time.Sleep(20 * time.Millisecond)
			btn.SetHidden(false)
		}()

		el, err := dom.AwaitVisible(context.Background(), dom.Locate(root, ".btn").WithPollInterval(poll), time.Second)
		require.NoError(t, err)
		assert.Same(t, btn, el)
	})

	t.Run("waits for an element to be attached", func(t *testing.T) {
		root := domtest.NewNode("")
		go func() {
			time.Sleep(20 * time.Millisecond)
			root.Add(".late", domtest.NewNode("late"))
		}()

		el, err := dom.AwaitVisible(context.Background(), dom.Locate(root, ".late").WithPollInterval(poll), time.Second)
		require.NoError(t, err)
		require.NotNil(t, el)
	})

	t.Run("times out on an absent element", func(t *testing.T) {
		root := domtest.NewNode("")
		start := time.Now()

		_, err := dom.AwaitVisible(context.Background(), dom.Locate(root, ".missing").WithPollInterval(poll), 30*time.Millisecond)
		require.Error(t, err)
		assert.ErrorIs(t, err, dom.ErrTimeout)
		assert.Contains(t, err.Error(), ".missing")
		assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	})

	t.Run("times out on a disabled element", func(t *testing.T) {
		root := domtest.NewNode("").Add(".btn", domtest.NewNode("x").SetDisabled(true))

		_, err := dom.AwaitVisible(context.Background(), dom.Locate(root, ".btn").WithPollInterval(poll), 20*time.Millisecond)
		assert.ErrorIs(t, err, dom.ErrTimeout)
	})

	t.Run("reports the last lookup error on timeout", func(t *testing.T) {
		root := domtest.NewNode("")
		root.FindErr = errors.New("node detached")

		_, err := dom.AwaitVisible(context.Background(), dom.Locate(root, ".btn").WithPollInterval(poll), 20*time.Millisecond)
		require.Error(t, err)
		assert.ErrorIs(t, err, dom.ErrTimeout)
		assert.Contains(t, err.Error(), "node detached")
	})

	t.Run("honors caller cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := dom.AwaitVisible(ctx, dom.Locate(domtest.NewNode(""), ".btn").WithPollInterval(poll), time.Second)
		assert.ErrorIs(t, err, context.Canceled)
		assert.NotErrorIs(t, err, dom.ErrTimeout)
	})
}

func TestAwaitPresent(t *testing.T) {
	hidden := domtest.NewNode("333-1234567").SetHidden(true)
	root := domtest.NewNode("").Add(".tel", hidden)

	el, err := dom.AwaitPresent(context.Background(), dom.Locate(root, ".tel").WithPollInterval(poll), 50*time.Millisecond)
	require.NoError(t, err, "presence does not require visibility")
	assert.Same(t, hidden, el)
}

func TestClickIfPresentAndReady(t *testing.T) {
	t.Run("clicks a ready element", func(t *testing.T) {
		btn := domtest.NewNode("Altri")
		root := domtest.NewNode("").Add(".more", btn)

		clicked, err := dom.ClickIfPresentAndReady(context.Background(), dom.Locate(root, ".more"))
		require.NoError(t, err)
		assert.True(t, clicked)
		assert.Equal(t, 1, btn.Clicks())
	})

	t.Run("absent element is a no-op", func(t *testing.T) {
		clicked, err := dom.ClickIfPresentAndReady(context.Background(), dom.Locate(domtest.NewNode(""), ".more"))
		require.NoError(t, err)
		assert.False(t, clicked)
	})

	t.Run("hidden element is a no-op", func(t *testing.T) {
		btn := domtest.NewNode("Altri").SetHidden(true)
		root := domtest.NewNode("").Add(".more", btn)

		clicked, err := dom.ClickIfPresentAndReady(context.Background(), dom.Locate(root, ".more"))
		require.NoError(t, err)
		assert.False(t, clicked)
		assert.Zero(t, btn.Clicks())
	})

	t.Run("click failure is returned", func(t *testing.T) {
		btn := domtest.NewNode("Altri")
		btn.ClickErr = errors.New("intercepted")
		root := domtest.NewNode("").Add(".more", btn)

		clicked, err := dom.ClickIfPresentAndReady(context.Background(), dom.Locate(root, ".more"))
		require.Error(t, err)
		assert.False(t, clicked)
		assert.Contains(t, err.Error(), "intercepted")
	})
}

func TestReadText(t *testing.T) {
	root := domtest.NewNode("").Add(".title", domtest.NewNode("  Pizzeria Uno \n"))

	text, err := dom.ReadText(context.Background(), root, ".title")
	require.NoError(t, err)
	assert.Equal(t, "Pizzeria Uno", text)

	_, err = dom.ReadText(context.Background(), root, ".address")
	assert.ErrorIs(t, err, dom.ErrNotFound)

	broken := domtest.NewNode("")
	broken.TextErr = errors.New("stale handle")
	root.Add(".broken", broken)
	_, err = dom.ReadText(context.Background(), root, ".broken")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stale handle")
}

func TestLocatorResolve(t *testing.T) {
	root := domtest.NewNode("")
	loc := dom.Locate(root, ".late")
	assert.Equal(t, ".late", loc.Selector())

	_, found, err := loc.Resolve(context.Background())
	require.NoError(t, err)
	assert.False(t, found)

	// Locators are lazy, so later additions are seen on the next resolve.
	root.Add(".late", domtest.NewNode("now"))
	_, found, err = loc.Resolve(context.Background())
	require.NoError(t, err)
	assert.True(t, found)
}
