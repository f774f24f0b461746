package toast

import (
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aiton-rag/uploadui/pkg/vdom"
)

// AutoAlertClass marks banners created by this package.
const AutoAlertClass = "auto-alert"

// DefaultTTL is how long a banner stays before removal.
const DefaultTTL = 5 * time.Second

// Level is the banner's visual severity.
type Level string

const (
	LevelSuccess Level = "success"
	LevelDanger  Level = "danger"
	LevelWarning Level = "warning"
	LevelInfo    Level = "info"
)

// Options configure a Banners set.
type Options struct {
	// Root is the document searched for existing auto-alerts.
	Root *vdom.VNode

	// Container receives new banners as its first child. When nil the
	// banner goes first in Root.
	Container *vdom.VNode

	// TTL before automatic removal. Zero means DefaultTTL.
	TTL time.Duration

	// AfterFunc schedules removal. Defaults to time.AfterFunc.
	AfterFunc func(time.Duration, func()) func() bool

	// Locker guards the document during timed removal.
	Locker sync.Locker

	// OnChange is called after timed removal mutated the document.
	OnChange func()
}

// Banners shows alert banners in one document.
type Banners struct {
	opts Options
	seq  atomic.Uint64
}

// New creates a Banners set.
func New(opts Options) *Banners {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.AfterFunc == nil {
		opts.AfterFunc = func(d time.Duration, f func()) func() bool {
			return time.AfterFunc(d, f).Stop
		}
	}
	if opts.Locker == nil {
		opts.Locker = noopLocker{}
	}
	return &Banners{opts: opts}
}

// Success shows a success banner.
func (b *Banners) Success(message string) *vdom.VNode { return b.Show(LevelSuccess, message) }

// Danger shows an error banner.
func (b *Banners) Danger(message string) *vdom.VNode { return b.Show(LevelDanger, message) }

// Warning shows a warning banner.
func (b *Banners) Warning(message string) *vdom.VNode { return b.Show(LevelWarning, message) }

// Info shows an informational banner.
func (b *Banners) Info(message string) *vdom.VNode { return b.Show(LevelInfo, message) }

// Show replaces any visible auto-alert with a new banner and schedules
// its removal. The caller must hold the document lock.
func (b *Banners) Show(level Level, message string) *vdom.VNode {
	b.Clear()

	id := "alert-" + strconv.FormatUint(b.seq.Add(1), 10)
	var banner *vdom.VNode
	closeBtn := vdom.Button(
		vdom.ID(id+"-close"),
		vdom.Type("button"),
		vdom.Class("btn-close"),
		vdom.AriaLabel("Close"),
		vdom.OnClick(func() {
			b.remove(banner)
		}),
	)
	banner = vdom.Div(
		vdom.ID(id),
		vdom.Class("alert", "alert-"+string(level), "alert-dismissible", "fade", "show", AutoAlertClass),
		vdom.Role("alert"),
		vdom.Text(message),
		closeBtn,
	)

	parent := b.opts.Container
	if parent == nil {
		parent = b.opts.Root
	}
	parent.PrependChild(banner)

	b.opts.AfterFunc(b.opts.TTL, func() {
		b.opts.Locker.Lock()
		removed := b.remove(banner)
		b.opts.Locker.Unlock()
		if removed && b.opts.OnChange != nil {
			b.opts.OnChange()
		}
	})
	return banner
}

// Clear removes every auto-alert in the document.
func (b *Banners) Clear() {
	for _, old := range vdom.QueryByClass(b.opts.Root, AutoAlertClass) {
		vdom.Remove(b.opts.Root, old)
	}
}

// Visible returns the banners currently in the document.
func (b *Banners) Visible() []*vdom.VNode {
	return vdom.QueryByClass(b.opts.Root, AutoAlertClass)
}

func (b *Banners) remove(banner *vdom.VNode) bool {
	if banner == nil {
		return false
	}
	return vdom.Remove(b.opts.Root, banner)
}

type noopLocker struct{}

func (noopLocker) Lock()   {}
func (noopLocker) Unlock() {}
