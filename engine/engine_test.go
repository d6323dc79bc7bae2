package engine

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Carmen-Shannon/pcss-go/engine/camera"
	"github.com/Carmen-Shannon/pcss-go/engine/renderer"
	"github.com/Carmen-Shannon/pcss-go/engine/scene"
	"github.com/Carmen-Shannon/pcss-go/engine/window"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeWindow runs a message loop without a platform window.
type fakeWindow struct {
	window.Window

	closing  atomic.Bool
	onUpdate func()
	onResize func(width, height int)
}

func (w *fakeWindow) SetUpdateCallback(callback func())                  { w.onUpdate = callback }
func (w *fakeWindow) SetResizeCallback(callback func(width, height int)) { w.onResize = callback }
func (w *fakeWindow) RequestClose()                                      { w.closing.Store(true) }

func (w *fakeWindow) ProcessMessages() {
	for !w.closing.Load() {
		if w.onUpdate != nil {
			w.onUpdate()
		}
		time.Sleep(time.Millisecond)
	}
}

type fakeRenderer struct {
	renderer.Renderer

	log      *[]string
	beginErr error
	width    int
	height   int
}

func (r *fakeRenderer) BeginFrame() error {
	*r.log = append(*r.log, "BeginFrame")
	return r.beginErr
}

func (r *fakeRenderer) EndFrame() { *r.log = append(*r.log, "EndFrame") }
func (r *fakeRenderer) Present()  { *r.log = append(*r.log, "Present") }

func (r *fakeRenderer) Resize(width, height int) {
	r.width, r.height = width, height
}

type fakeScene struct {
	scene.Scene

	log        []string
	r          *fakeRenderer
	cam        camera.Camera
	shadowFunc func() error
	dt         []float32
}

func newFakeScene() *fakeScene {
	s := &fakeScene{cam: camera.NewCamera()}
	s.r = &fakeRenderer{log: &s.log}
	return s
}

func (s *fakeScene) Renderer() renderer.Renderer { return s.r }
func (s *fakeScene) Camera() camera.Camera       { return s.cam }

func (s *fakeScene) PrepareFrame(deltaTime float32) {
	s.dt = append(s.dt, deltaTime)
	s.log = append(s.log, "PrepareFrame")
}

func (s *fakeScene) PrepareShadows() error {
	s.log = append(s.log, "PrepareShadows")
	if s.shadowFunc != nil {
		return s.shadowFunc()
	}
	return nil
}

func (s *fakeScene) DrawCalls() error {
	s.log = append(s.log, "DrawCalls")
	return nil
}

func TestNewEngineRequiresWindow(t *testing.T) {
	_, err := NewEngine()
	require.Error(t, err)
}

func TestRunRendersPhasesInOrder(t *testing.T) {
	s := newFakeScene()
	w := &fakeWindow{}
	e, err := NewEngine(WithWindow(w), WithScene(s))
	require.NoError(t, err)

	frames := 0
	e.SetRenderCallback(func(float32) {
		s.log = append(s.log, "callback")
		frames++
		if frames == 2 {
			e.Quit()
		}
	})
	e.Run()

	frame := []string{"PrepareFrame", "PrepareShadows", "BeginFrame", "DrawCalls", "EndFrame", "Present", "callback"}
	assert.Equal(t, append(append([]string{}, frame...), frame...), s.log)
	assert.Len(t, s.dt, 2)
	assert.True(t, w.closing.Load())

	// a second Quit is a no-op
	assert.NotPanics(t, e.Quit)
}

func TestSkippedFrameDoesNotDraw(t *testing.T) {
	s := newFakeScene()
	s.r.beginErr = errors.New("surface lost")
	e, err := NewEngine(WithWindow(&fakeWindow{}), WithScene(s))
	require.NoError(t, err)

	e.SetRenderCallback(func(float32) { e.Quit() })
	e.Run()

	assert.Equal(t, []string{"PrepareFrame", "PrepareShadows", "BeginFrame"}, s.log)
}

func TestShadowErrorIsLoggedAndFrameContinues(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	s := newFakeScene()
	s.shadowFunc = func() error { return errors.New("no shadow map") }
	e, err := NewEngine(WithWindow(&fakeWindow{}), WithScene(s), WithLogger(zap.New(core)))
	require.NoError(t, err)

	e.SetRenderCallback(func(float32) { e.Quit() })
	e.Run()

	assert.Contains(t, s.log, "Present")
	assert.Equal(t, 1, logs.FilterMessage("shadow pass failed").Len())
}

func TestRenderPanicStopsEngine(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	s := newFakeScene()
	s.shadowFunc = func() error { panic("device lost") }
	w := &fakeWindow{}
	e, err := NewEngine(WithWindow(w), WithScene(s), WithLogger(zap.New(core)))
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		e.Run()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		e.Quit()
		t.Fatal("engine did not stop after a render panic")
	}
	assert.Equal(t, 1, logs.FilterMessage("render goroutine recovered from panic").Len())
	assert.True(t, w.closing.Load())
}

func TestTickCallbackRuns(t *testing.T) {
	var ticks atomic.Int32
	var once sync.Once
	e, err := NewEngine(WithWindow(&fakeWindow{}), WithTickRate(500))
	require.NoError(t, err)

	e.SetTickCallback(func(dt float32) {
		if ticks.Add(1) >= 3 {
			once.Do(e.Quit)
		}
	})
	e.SetTickRate(1000)
	e.Run()

	assert.GreaterOrEqual(t, ticks.Load(), int32(3))
}

func TestResizeUpdatesRendererAndCamera(t *testing.T) {
	s := newFakeScene()
	w := &fakeWindow{}
	_, err := NewEngine(WithWindow(w), WithScene(s))
	require.NoError(t, err)
	require.NotNil(t, w.onResize)

	w.onResize(1600, 900)
	assert.Equal(t, 1600, s.r.width)
	assert.Equal(t, 900, s.r.height)
	assert.InDelta(t, 1600.0/900.0, s.cam.Aspect(), 1e-6)

	// minimized
	w.onResize(1600, 0)
	assert.Equal(t, 900, s.r.height)
}

func TestFrameDuration(t *testing.T) {
	assert.Equal(t, time.Duration(0), frameDuration(0))
	assert.Equal(t, time.Duration(0), frameDuration(-5))
	assert.Equal(t, 16666666*time.Nanosecond, frameDuration(60))
}

func TestProfilerToggle(t *testing.T) {
	e, err := NewEngine(WithWindow(&fakeWindow{}), WithProfiling(true))
	require.NoError(t, err)
	e.DisableProfiler()
	e.EnableProfiler()
	assert.NotNil(t, e.Profiler())
	assert.Nil(t, e.Scene())
}
