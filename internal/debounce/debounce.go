package debounce

import (
	"chatapp-client/internal/store"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	CollapseWidth = 768
	QuietPeriod   = 200 * time.Millisecond
)

// Debouncer runs fn once after Trigger has not been called for the delay.
type Debouncer struct {
	mutex   sync.Mutex
	delay   time.Duration
	fn      func()
	timer   *time.Timer
	stopped bool
}

func New(delay time.Duration, fn func()) *Debouncer {
	return &Debouncer{delay: delay, fn: fn}
}

func (d *Debouncer) Trigger() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.fire)
}

func (d *Debouncer) fire() {
	d.mutex.Lock()
	if d.stopped {
		d.mutex.Unlock()
		return
	}
	d.timer = nil
	d.mutex.Unlock()

	d.fn()
}

// Stop cancels a pending run. Triggers after Stop are ignored.
func (d *Debouncer) Stop() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// SidebarCollapser hides the channel sidebar once the window has settled below
// CollapseWidth. It never shows the sidebar again on its own.
type SidebarCollapser struct {
	store     *store.Store
	debouncer *Debouncer

	mutex sync.Mutex
	width int

	sugar *zap.SugaredLogger
}

func NewSidebarCollapser(sugar *zap.SugaredLogger, st *store.Store, quietPeriod time.Duration) *SidebarCollapser {
	c := &SidebarCollapser{store: st, sugar: sugar}
	c.debouncer = New(quietPeriod, c.settle)
	return c
}

func (c *SidebarCollapser) Resize(width int) {
	c.mutex.Lock()
	c.width = width
	c.mutex.Unlock()

	c.debouncer.Trigger()
}

func (c *SidebarCollapser) settle() {
	c.mutex.Lock()
	width := c.width
	c.mutex.Unlock()

	if width >= CollapseWidth {
		return
	}

	hidden := false
	events := c.store.Dispatch(store.PatchPreferences{ChannelSidebarVisible: &hidden})
	if len(events) > 0 {
		c.sugar.Debugf("Window settled at width [%d], collapsed channel sidebar", width)
	}
}

func (c *SidebarCollapser) Stop() {
	c.debouncer.Stop()
}
