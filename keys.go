package storyboard

import (
	"context"
	"errors"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

var keyNames = map[string]ebiten.Key{
	"0": ebiten.KeyDigit0, "1": ebiten.KeyDigit1, "2": ebiten.KeyDigit2,
	"3": ebiten.KeyDigit3, "4": ebiten.KeyDigit4, "5": ebiten.KeyDigit5,
	"6": ebiten.KeyDigit6, "7": ebiten.KeyDigit7, "8": ebiten.KeyDigit8,
	"9": ebiten.KeyDigit9,
	"a": ebiten.KeyA, "b": ebiten.KeyB, "c": ebiten.KeyC, "d": ebiten.KeyD,
	"e": ebiten.KeyE, "f": ebiten.KeyF, "g": ebiten.KeyG, "h": ebiten.KeyH,
	"i": ebiten.KeyI, "j": ebiten.KeyJ, "k": ebiten.KeyK, "l": ebiten.KeyL,
	"m": ebiten.KeyM, "n": ebiten.KeyN, "o": ebiten.KeyO, "p": ebiten.KeyP,
	"q": ebiten.KeyQ, "r": ebiten.KeyR, "s": ebiten.KeyS, "t": ebiten.KeyT,
	"u": ebiten.KeyU, "v": ebiten.KeyV, "w": ebiten.KeyW, "x": ebiten.KeyX,
	"y": ebiten.KeyY, "z": ebiten.KeyZ,
}

// ParseKey maps a configured key name such as "1" or "p" to a key.
func ParseKey(name string) (ebiten.Key, bool) {
	k, ok := keyNames[strings.ToLower(strings.TrimSpace(name))]
	return k, ok
}

type toolKey struct {
	key  ebiten.Key
	tool Tool
}

// keyBindings maps keys to tools in tool order.
type keyBindings []toolKey

func newKeyBindings(kc KeysConfig) keyBindings {
	names := []struct {
		name string
		tool Tool
	}{
		{kc.Select, ToolSelect},
		{kc.Move, ToolMove},
		{kc.Panel, ToolPanel},
		{kc.Bubble, ToolBubble},
		{kc.Text, ToolText},
		{kc.Image, ToolImage},
		{kc.MarkArea, ToolMarkArea},
	}
	var kb keyBindings
	for _, n := range names {
		if k, ok := ParseKey(n.name); ok {
			kb = append(kb, toolKey{key: k, tool: n.tool})
		}
	}
	return kb
}

// toolFor returns the tool bound to k.
func (kb keyBindings) toolFor(k ebiten.Key) (Tool, bool) {
	for _, b := range kb {
		if b.key == k {
			return b.tool, true
		}
	}
	return 0, false
}

// handleKeys runs the keyboard shortcuts for this frame. While a text node
// is being edited keys go to the editor instead.
func (c *Canvas) handleKeys(ctx context.Context) {
	if c.editor != nil {
		c.handleEditorKeys()
		return
	}
	ctrl := ebiten.IsKeyPressed(ebiten.KeyControl) || ebiten.IsKeyPressed(ebiten.KeyMeta)
	shift := ebiten.IsKeyPressed(ebiten.KeyShift)
	pressed := inpututil.IsKeyJustPressed

	var err error
	switch {
	case ctrl && pressed(ebiten.KeyZ) && shift, ctrl && pressed(ebiten.KeyY):
		c.Redo(ctx)
	case ctrl && pressed(ebiten.KeyZ):
		c.Undo(ctx)
	case ctrl && pressed(ebiten.KeyD):
		_, err = c.DuplicateSelected(ctx)
	case ctrl && pressed(ebiten.KeyC):
		err = c.CopySelected()
	case ctrl && pressed(ebiten.KeyV):
		_, err = c.Paste(ctx)
	case pressed(ebiten.KeyDelete), pressed(ebiten.KeyBackspace):
		err = c.DeleteSelected()
	case pressed(ebiten.KeyBracketRight):
		l := LayerForward
		if shift {
			l = LayerToFront
		}
		_, err = c.ReorderSelected(l)
	case pressed(ebiten.KeyBracketLeft):
		l := LayerBackward
		if shift {
			l = LayerToBack
		}
		_, err = c.ReorderSelected(l)
	case pressed(ebiten.KeyEscape):
		c.SetTool(ctx, ToolSelect)
		c.ClearSelection()
	case !ctrl:
		for _, k := range inpututil.AppendJustPressedKeys(nil) {
			if t, ok := c.keys.toolFor(k); ok {
				c.SetTool(ctx, t)
				break
			}
		}
	}
	if err != nil && !errors.Is(err, ErrNoSelection) {
		c.log.Warn("shortcut", "err", err)
	}
}

func (c *Canvas) handleEditorKeys() {
	pressed := inpututil.IsKeyJustPressed
	switch {
	case pressed(ebiten.KeyEscape):
		c.CancelTextEdit()
		return
	case pressed(ebiten.KeyEnter) && ebiten.IsKeyPressed(ebiten.KeyControl):
		c.CommitTextEdit()
		return
	case pressed(ebiten.KeyEnter):
		c.Insert("\n")
	case repeating(ebiten.KeyBackspace):
		c.Backspace()
	}
	if chars := ebiten.AppendInputChars(nil); len(chars) > 0 {
		c.Insert(string(chars))
	}
}

// repeating reports a key press with the usual typing auto-repeat.
func repeating(k ebiten.Key) bool {
	const delay, interval = 30, 3
	d := inpututil.KeyPressDuration(k)
	return d == 1 || (d >= delay && (d-delay)%interval == 0)
}
