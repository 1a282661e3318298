package stage

// syntheticEvent represents a single injected input event. Screen coordinates
// are used and converted to world coordinates through the camera, identical
// to real mouse input.
type syntheticEvent struct {
	screenX, screenY float64
	pressed          bool
	button           MouseButton
	mods             KeyModifiers
	pointer          int

	wheel          bool
	wheelX, wheelY float64
}

// InjectPress queues a pointer press event at the given screen coordinates
// (left button). The event is consumed on the next frame.
func (s *Scene) InjectPress(x, y float64) {
	s.injectQueue = append(s.injectQueue, syntheticEvent{screenX: x, screenY: y, pressed: true})
}

// InjectMove queues a pointer move event at the given screen coordinates
// with the button held down. Use this between InjectPress and InjectRelease
// to simulate a drag.
func (s *Scene) InjectMove(x, y float64) {
	s.injectQueue = append(s.injectQueue, syntheticEvent{screenX: x, screenY: y, pressed: true})
}

// InjectRelease queues a pointer release event at the given screen coordinates.
func (s *Scene) InjectRelease(x, y float64) {
	s.injectQueue = append(s.injectQueue, syntheticEvent{screenX: x, screenY: y})
}

// InjectClick is a convenience that queues a press followed by a release
// at the same screen coordinates. Consumes two frames.
func (s *Scene) InjectClick(x, y float64) {
	s.InjectPress(x, y)
	s.InjectRelease(x, y)
}

// InjectDrag queues a full drag sequence: press at (fromX, fromY),
// linearly interpolated moves over frames-2 intermediate frames, and
// release at (toX, toY). The total sequence consumes `frames` frames.
// Minimum frames is 2 (press + release).
func (s *Scene) InjectDrag(fromX, fromY, toX, toY float64, frames int) {
	if frames < 2 {
		frames = 2
	}
	s.InjectPress(fromX, fromY)
	steps := frames - 2
	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps+1)
		x := fromX + (toX-fromX)*t
		y := fromY + (toY-fromY)*t
		s.InjectMove(x, y)
	}
	s.InjectRelease(toX, toY)
}

// InjectTouch queues a touch event for slot 1-9. Two simultaneously pressed
// slots form a pinch.
func (s *Scene) InjectTouch(slot int, x, y float64, pressed bool) {
	if slot < 1 || slot >= maxPointers {
		return
	}
	s.injectQueue = append(s.injectQueue, syntheticEvent{screenX: x, screenY: y, pressed: pressed, pointer: slot})
}

// InjectWheel queues a wheel event at the given screen coordinates.
func (s *Scene) InjectWheel(x, y, dx, dy float64, mods KeyModifiers) {
	s.injectQueue = append(s.injectQueue, syntheticEvent{
		screenX: x, screenY: y, wheel: true, wheelX: dx, wheelY: dy, mods: mods,
	})
}

// PendingInput returns the number of queued synthetic events.
func (s *Scene) PendingInput() int {
	return len(s.injectQueue)
}

// processInjectedInput pops one event from the inject queue and feeds it
// through the same paths as device input. Returns true if an event was
// consumed (real device input should be skipped).
func (s *Scene) processInjectedInput() bool {
	if len(s.injectQueue) == 0 {
		return false
	}
	evt := s.injectQueue[0]
	copy(s.injectQueue, s.injectQueue[1:])
	s.injectQueue = s.injectQueue[:len(s.injectQueue)-1]

	if evt.wheel {
		s.processWheel(evt.screenX, evt.screenY, evt.wheelX, evt.wheelY, evt.mods)
		return true
	}
	s.processPointer(evt.pointer, evt.screenX, evt.screenY, evt.pressed, evt.button, evt.mods)
	if evt.pointer > 0 {
		s.detectPinch()
	}
	return true
}
