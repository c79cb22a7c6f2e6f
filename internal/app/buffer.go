package app

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/dshills/vintage/internal/input/keys"
	"github.com/dshills/vintage/internal/resolver"
	"github.com/dshills/vintage/internal/session"
	"github.com/dshills/vintage/internal/session/store"
	"github.com/dshills/vintage/internal/view"
)

// Buffer is an open buffer with its own command assembly state.
type Buffer struct {
	// ID uniquely identifies the buffer for the life of the process.
	ID string

	// Name is the display name.
	Name string

	View     *view.Memory
	State    *session.State
	Resolver *resolver.Resolver
	Feeder   *keys.Feeder

	undo *undoLog

	mu       sync.Mutex
	modal    bool
	inserted strings.Builder
	// repeatInsert is set while typed text belongs to the last repeat data.
	repeatInsert bool
}

// Modal reports whether keys go through command resolution. Widgets type
// every key as text.
func (b *Buffer) Modal() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.modal
}

func (b *Buffer) setModal(v bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.modal = v
}

// startInsert begins collecting typed text.
func (b *Buffer) startInsert(repeat bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.inserted.Reset()
	b.repeatInsert = repeat
}

func (b *Buffer) addInserted(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.inserted.WriteString(text)
}

func (b *Buffer) trimInserted() {
	b.mu.Lock()
	defer b.mu.Unlock()
	text := []rune(b.inserted.String())
	if len(text) > 0 {
		b.inserted.Reset()
		b.inserted.WriteString(string(text[:len(text)-1]))
	}
}

// endInsert returns the text typed since startInsert and whether it
// extends the repeat data.
func (b *Buffer) endInsert() (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	text, repeat := b.inserted.String(), b.repeatInsert
	b.inserted.Reset()
	b.repeatInsert = false
	return text, repeat
}

// BufferManager manages all open buffers.
type BufferManager struct {
	mu      sync.RWMutex
	buffers map[string]*Buffer // id -> buffer
	views   map[view.Query]*Buffer
	active  *Buffer
	order   []string // tracks open order for navigation

	window store.Store
	build  func(b *Buffer)
}

// NewBufferManager creates a manager whose buffers share window.
// build completes every new buffer with its resolver and feeder.
func NewBufferManager(window store.Store, build func(b *Buffer)) *BufferManager {
	return &BufferManager{
		buffers: make(map[string]*Buffer),
		views:   make(map[view.Query]*Buffer),
		window:  window,
		build:   build,
	}
}

// Open creates a buffer holding text. It does not change the active
// buffer.
func (bm *BufferManager) Open(name, text string) *Buffer {
	return bm.open(name, view.NewMemory(text))
}

// OpenWidget creates a non-text input buffer.
func (bm *BufferManager) OpenWidget(name string) *Buffer {
	return bm.open(name, view.NewWidget())
}

func (bm *BufferManager) open(name string, v *view.Memory) *Buffer {
	b := &Buffer{
		ID:    uuid.NewString(),
		Name:  name,
		View:  v,
		undo:  &undoLog{},
		modal: true,
	}
	if bm.build != nil {
		bm.build(b)
	}

	bm.mu.Lock()
	defer bm.mu.Unlock()
	bm.buffers[b.ID] = b
	bm.views[v] = b
	bm.order = append(bm.order, b.ID)
	return b
}

// Close closes a buffer by id.
func (bm *BufferManager) Close(id string) error {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	b, exists := bm.buffers[id]
	if !exists {
		return ErrBufferNotFound
	}
	delete(bm.buffers, id)
	delete(bm.views, b.View)
	for i, o := range bm.order {
		if o == id {
			bm.order = append(bm.order[:i], bm.order[i+1:]...)
			break
		}
	}

	if bm.active == b {
		bm.active = nil
		if len(bm.order) > 0 {
			bm.active = bm.buffers[bm.order[len(bm.order)-1]]
		}
	}
	return nil
}

// Active returns the buffer with focus.
func (bm *BufferManager) Active() *Buffer {
	bm.mu.RLock()
	defer bm.mu.RUnlock()
	return bm.active
}

// SetActive gives b the focus.
func (bm *BufferManager) SetActive(b *Buffer) {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	bm.active = b
}

// Get returns a buffer by id.
func (bm *BufferManager) Get(id string) (*Buffer, bool) {
	bm.mu.RLock()
	defer bm.mu.RUnlock()
	b, ok := bm.buffers[id]
	return b, ok
}

// All returns the open buffers in open order.
func (bm *BufferManager) All() []*Buffer {
	bm.mu.RLock()
	defer bm.mu.RUnlock()

	out := make([]*Buffer, 0, len(bm.order))
	for _, id := range bm.order {
		out = append(out, bm.buffers[id])
	}
	return out
}

// Count returns the number of open buffers.
func (bm *BufferManager) Count() int {
	bm.mu.RLock()
	defer bm.mu.RUnlock()
	return len(bm.buffers)
}

// Next returns the buffer after the active one, wrapping around.
func (bm *BufferManager) Next() *Buffer {
	return bm.step(1)
}

// Previous returns the buffer before the active one, wrapping around.
func (bm *BufferManager) Previous() *Buffer {
	return bm.step(-1)
}

func (bm *BufferManager) step(delta int) *Buffer {
	bm.mu.RLock()
	defer bm.mu.RUnlock()

	if len(bm.order) == 0 {
		return nil
	}
	if bm.active == nil {
		return bm.buffers[bm.order[0]]
	}
	for i, id := range bm.order {
		if id == bm.active.ID {
			n := len(bm.order)
			return bm.buffers[bm.order[((i+delta)%n+n)%n]]
		}
	}
	return bm.active
}

// State implements bootstrap.Host. Views the manager does not own get a
// detached state that still shares the window store.
func (bm *BufferManager) State(v view.Query) *session.State {
	bm.mu.RLock()
	b, ok := bm.views[v]
	bm.mu.RUnlock()
	if ok {
		return b.State
	}
	return session.New(store.NewMemory(), bm.window, session.WithView(v))
}

// DisableModal implements bootstrap.Host.
func (bm *BufferManager) DisableModal(v view.Query) {
	bm.mu.RLock()
	b, ok := bm.views[v]
	bm.mu.RUnlock()
	if ok {
		b.setModal(false)
	}
}
