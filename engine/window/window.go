package window

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
	"go.uber.org/zap"
)

// Window defines the interface for a platform window that hosts a WebGPU surface.
// It exposes lifecycle control, callbacks for window events and a polled view of the
// keyboard and mouse used by camera controllers.
//
// Callbacks and platform calls run on the goroutine that created the window. Input state
// and title changes are safe to use from any goroutine.
type Window interface {
	// SetUpdateCallback sets the callback invoked once per message loop iteration.
	//
	// Parameters:
	//   - callback: function invoked each iteration
	SetUpdateCallback(callback func())

	// SetResizeCallback sets the callback invoked when the framebuffer is resized.
	//
	// Parameters:
	//   - callback: function receiving the new width and height in pixels
	SetResizeCallback(callback func(width, height int))

	// SetKeyDownCallback sets the callback invoked when a key is pressed or repeats.
	//
	// Parameters:
	//   - callback: function receiving the key code
	SetKeyDownCallback(callback func(keyCode uint32))

	// SetKeyUpCallback sets the callback invoked when a key is released.
	//
	// Parameters:
	//   - callback: function receiving the key code
	SetKeyUpCallback(callback func(keyCode uint32))

	// KeyDown reports whether the key is currently held.
	//
	// Parameters:
	//   - keyCode: the key code (see common.Key*)
	//
	// Returns:
	//   - bool: true while the key is held
	KeyDown(keyCode uint32) bool

	// MouseDelta returns the cursor movement accumulated since the previous call and resets it.
	//
	// Returns:
	//   - float64: horizontal movement in screen units
	//   - float64: vertical movement in screen units
	MouseDelta() (dx, dy float64)

	// SetTitle changes the title bar text. The change is applied on the next message loop iteration.
	//
	// Parameters:
	//   - title: the new title
	SetTitle(title string)

	// SetCursorDisabled hides the cursor and locks it to the window for unbounded mouse look.
	//
	// Parameters:
	//   - disabled: true to capture the cursor, false to release it
	SetCursorDisabled(disabled bool)

	// RequestClose asks the message loop to stop after the current iteration.
	// Safe to call from any goroutine.
	RequestClose()

	// SurfaceDescriptor returns a platform-specific surface descriptor for WebGPU surface creation.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the surface descriptor, or nil if the window is not initialized
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// IsRunning reports whether the window is still open.
	IsRunning() bool

	// Close destroys the window and terminates the platform windowing library.
	//
	// Returns:
	//   - error: error if the window was never initialized
	Close() error

	// ProcessMessages runs the blocking message loop until the window closes.
	ProcessMessages()

	// Width returns the framebuffer width in pixels.
	Width() int

	// Height returns the framebuffer height in pixels.
	Height() int
}

// engineWindow is the implementation of the Window interface.
type engineWindow struct {
	title          string
	width          int
	height         int
	minWidth       int
	minHeight      int
	cursorDisabled bool

	internalWindow any
	input          *inputState
	logger         *zap.Logger

	// pending holds main-thread work queued by other goroutines.
	mu           *sync.Mutex
	pendingTitle *string
	pendingMode  *bool
	pendingClose bool

	onUpdate  func()
	onResize  func(width, height int)
	onKeyDown func(keyCode uint32)
	onKeyUp   func(keyCode uint32)
}

var _ Window = &engineWindow{}

// NewWindow creates a new Window with the given options and opens the platform window.
// Panics if the platform window cannot be created.
//
// Parameters:
//   - options: variadic list of WindowBuilderOption functions
//
// Returns:
//   - Window: the created window
func NewWindow(options ...WindowBuilderOption) Window {
	w := &engineWindow{
		title:     "Percentage-Closer Soft Shadows",
		width:     800,
		height:    450,
		minWidth:  320,
		minHeight: 180,
		input:     newInputState(),
		logger:    zap.NewNop(),
		mu:        &sync.Mutex{},
	}
	for _, opt := range options {
		opt(w)
	}
	if err := newPlatformWindow(w); err != nil {
		panic(fmt.Sprintf("window: failed to create platform window: %v", err))
	}
	w.logger.Info("window created",
		zap.String("title", w.title),
		zap.Int("width", w.width),
		zap.Int("height", w.height),
	)
	return w
}

func (w *engineWindow) SetUpdateCallback(callback func()) {
	w.onUpdate = callback
}

func (w *engineWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *engineWindow) SetKeyDownCallback(callback func(keyCode uint32)) {
	w.onKeyDown = callback
}

func (w *engineWindow) SetKeyUpCallback(callback func(keyCode uint32)) {
	w.onKeyUp = callback
}

func (w *engineWindow) KeyDown(keyCode uint32) bool {
	return w.input.keyDown(keyCode)
}

func (w *engineWindow) MouseDelta() (float64, float64) {
	return w.input.takeMouseDelta()
}

func (w *engineWindow) SetTitle(title string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pendingTitle = &title
}

func (w *engineWindow) SetCursorDisabled(disabled bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pendingMode = &disabled
}

func (w *engineWindow) RequestClose() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pendingClose = true
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return platformGetSurfaceDescriptor(w)
}

func (w *engineWindow) IsRunning() bool {
	return platformIsRunningCheck(w)
}

func (w *engineWindow) Close() error {
	return platformCloseWindow(w)
}

func (w *engineWindow) ProcessMessages() {
	for w.IsRunning() {
		if succ := platformProcessMessages(w); !succ {
			break
		}
		w.applyPending()

		if w.onUpdate != nil {
			w.onUpdate()
		}

		runtime.Gosched()
	}
}

func (w *engineWindow) Width() int {
	return w.width
}

func (w *engineWindow) Height() int {
	return w.height
}

// applyPending flushes queued title and cursor changes on the window's own goroutine.
func (w *engineWindow) applyPending() {
	w.mu.Lock()
	title, mode, closing := w.pendingTitle, w.pendingMode, w.pendingClose
	w.pendingTitle, w.pendingMode, w.pendingClose = nil, nil, false
	w.mu.Unlock()

	if closing {
		platformRequestClose(w)
	}

	if title != nil {
		platformSetTitle(w, *title)
	}
	if mode != nil {
		w.cursorDisabled = *mode
		platformSetCursorDisabled(w, *mode)
		w.input.resetMouse()
	}
}
