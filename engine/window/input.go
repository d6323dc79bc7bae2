package window

import (
	"sync"

	"github.com/Carmen-Shannon/pcss-go/common"
)

// inputState tracks held keys and accumulated cursor motion between polls.
type inputState struct {
	mu   *sync.Mutex
	keys [common.MaxKeyCode]bool

	// hasCursor is false until the first cursor event so the first sample only seeds lastX/lastY.
	hasCursor    bool
	lastX, lastY float64
	dx, dy       float64
}

func newInputState() *inputState {
	return &inputState{mu: &sync.Mutex{}}
}

func (s *inputState) setKey(keyCode uint32, down bool) {
	if keyCode >= common.MaxKeyCode {
		return
	}
	s.mu.Lock()
	s.keys[keyCode] = down
	s.mu.Unlock()
}

func (s *inputState) keyDown(keyCode uint32) bool {
	if keyCode >= common.MaxKeyCode {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keys[keyCode]
}

func (s *inputState) cursorMoved(x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasCursor {
		s.hasCursor = true
		s.lastX, s.lastY = x, y
		return
	}
	s.dx += x - s.lastX
	s.dy += y - s.lastY
	s.lastX, s.lastY = x, y
}

func (s *inputState) takeMouseDelta() (float64, float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dx, dy := s.dx, s.dy
	s.dx, s.dy = 0, 0
	return dx, dy
}

// resetMouse drops accumulated motion and re-seeds on the next cursor event.
// Cursor mode switches jump the reported position.
func (s *inputState) resetMouse() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hasCursor = false
	s.dx, s.dy = 0, 0
}

// releaseAll clears held keys, used when the window loses focus.
func (s *inputState) releaseAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = [common.MaxKeyCode]bool{}
}
