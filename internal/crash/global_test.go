package crash

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zorak1103/bootguard/internal/lifecycle"
)

func installForTest(t *testing.T, h *harness) {
	t.Helper()
	require.NoError(t, Install(h.interceptor))
	t.Cleanup(func() { installed.Store(nil) })
}

func startedHarness(t *testing.T) (*harness, *fakeHost) {
	t.Helper()
	h := newHarness(t)
	h.presenter.auto = decision(DecisionContinue)
	app := &fakeHost{}
	require.NoError(t, h.tracker.MarkConstructed(app))
	require.NoError(t, h.tracker.MarkStarted())
	return h, app
}

func TestInstall_OnlyOnce(t *testing.T) {
	h := newHarness(t)
	installForTest(t, h)

	assert.Same(t, h.interceptor, Installed())
	assert.ErrorIs(t, Install(newHarness(t).interceptor), ErrAlreadyInstalled)
	assert.Same(t, h.interceptor, Installed())
	assert.Error(t, Install(nil))
}

func TestRecover_WithoutInterceptorRepanics(t *testing.T) {
	installed.Store(nil)
	assert.PanicsWithValue(t, "unguarded", func() {
		defer Recover()
		panic("unguarded")
	})
}

func TestProtect_RoutesPanic(t *testing.T) {
	h, _ := startedHarness(t)
	installForTest(t, h)

	assert.NotPanics(t, func() {
		Protect(func() {
			var p *lifecycle.Tracker
			_ = p.State()
		})
	})

	require.Equal(t, 1, h.presenter.count())
	c := h.presenter.shown[0]
	assert.Equal(t, KindFatal, c.Kind)
	assert.Contains(t, c.Trace, "goroutine")
}

func TestGo_RoutesPanicFromAnyGoroutine(t *testing.T) {
	h, _ := startedHarness(t)
	installForTest(t, h)

	var wg sync.WaitGroup
	wg.Add(1)
	Go(func() {
		defer wg.Done()
		panic(errors.New("background slice failed"))
	})
	wg.Wait()

	assert.Eventually(t, func() bool { return h.presenter.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "background slice failed", h.presenter.shown[0].Message)
}

func TestReport(t *testing.T) {
	h, _ := startedHarness(t)
	installForTest(t, h)

	Report(nil)
	assert.Zero(t, h.presenter.count())

	Report(errors.New("explicit fatal"))
	require.Equal(t, 1, h.presenter.count())
	assert.Equal(t, KindError, h.presenter.shown[0].Kind)
}
