package rod

import (
	"fmt"
	"sync"

	"github.com/fwojciec/doccrawl"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
)

// DefaultMaxPages is the default number of pages before browser recycling.
const DefaultMaxPages = 75

// BrowserManager owns a headless Chrome process and replaces it after a
// fixed number of pages. Long-running Chrome instances keep growing in
// memory even when every tab is closed, which matters on large crawls.
//
// A replaced browser stays alive until the last page acquired from it is
// released. BrowserManager is safe for concurrent use.
type BrowserManager struct {
	mu        sync.Mutex
	current   *generation
	pageCount int64
	maxPages  int64
	recycles  int
	closed    bool
}

// generation is one launched browser and the pages still using it.
type generation struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	active   int
	retired  bool
}

func (g *generation) shutdown() error {
	err := g.browser.Close()
	g.launcher.Kill()
	return err
}

// ManagerOption configures a BrowserManager.
type ManagerOption func(*BrowserManager)

// WithMaxPages sets the maximum number of pages before the browser is recycled.
// Defaults to DefaultMaxPages if not specified. Zero disables recycling.
func WithMaxPages(n int64) ManagerOption {
	return func(bm *BrowserManager) {
		bm.maxPages = n
	}
}

// NewBrowserManager launches a headless Chrome browser.
// Close must be called when the BrowserManager is no longer needed.
func NewBrowserManager(opts ...ManagerOption) (*BrowserManager, error) {
	bm := &BrowserManager{
		maxPages: DefaultMaxPages,
	}
	for _, opt := range opts {
		opt(bm)
	}

	gen, err := launch()
	if err != nil {
		return nil, err
	}
	bm.current = gen

	return bm, nil
}

// Acquire returns the browser to open the next page in, first recycling it
// if it has served maxPages pages. The release func must be called once the
// page is closed. Returns an EINVALID error once the manager is closed.
func (bm *BrowserManager) Acquire() (*rod.Browser, func(), error) {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	if bm.closed {
		return nil, nil, doccrawl.Errorf(doccrawl.EINVALID, "browser manager is closed")
	}
	if bm.maxPages > 0 && bm.pageCount >= bm.maxPages {
		bm.recycle()
	}

	gen := bm.current
	gen.active++
	bm.pageCount++

	var once sync.Once
	release := func() {
		once.Do(func() { bm.release(gen) })
	}
	return gen.browser, release, nil
}

// Recycles returns how many times the browser has been replaced.
func (bm *BrowserManager) Recycles() int {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	return bm.recycles
}

// Close releases browser resources. Close is safe to call multiple times.
func (bm *BrowserManager) Close() error {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	if bm.closed {
		return nil
	}
	bm.closed = true
	bm.current.retired = true
	return bm.current.shutdown()
}

// LauncherPID returns the process ID of the current browser launcher.
func (bm *BrowserManager) LauncherPID() int {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	return bm.current.launcher.PID()
}

func (bm *BrowserManager) release(gen *generation) {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	gen.active--
	if gen.retired && gen.active == 0 && gen != bm.current {
		_ = gen.shutdown()
	}
}

// recycle replaces the current browser, keeping it if the launch fails.
// Must be called with mu held.
func (bm *BrowserManager) recycle() {
	next, err := launch()
	if err != nil {
		return
	}

	old := bm.current
	old.retired = true
	if old.active == 0 {
		_ = old.shutdown()
	}

	bm.current = next
	bm.pageCount = 0
	bm.recycles++
}

// launch starts a new browser with flags that keep background tabs rendering.
func launch() (*generation, error) {
	l := launcher.New().
		Set("disable-background-timer-throttling").
		Set("disable-backgrounding-occluded-windows").
		Set("disable-renderer-backgrounding").
		Set("disable-dev-shm-usage").
		Leakless(true).
		Headless(true)

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connecting to browser: %w", err)
	}

	return &generation{browser: browser, launcher: l}, nil
}
