// Package terminal models structured terminal input: the event data model, an
// incremental ANSI parser, a broadcast event source with per-subscriber
// stream handles, and drivers that feed the source from a real terminal or an
// arbitrary reader.
package terminal

import (
	"fmt"
	"strings"
)

// Event is one discrete input occurrence. Implementations are immutable
// values; arrival order is significant and preserved end to end.
//
// The concrete variants are KeyEvent, ResizeEvent, FocusEvent, and
// PasteEvent.
type Event interface {
	// String returns a human-readable description, primarily for logging.
	String() string

	isEvent()
}

// KeyEventKind distinguishes press, repeat and release reports, for
// terminals that support reporting them separately. Drivers that cannot
// distinguish always report KeyPress.
type KeyEventKind uint8

const (
	KeyPress KeyEventKind = iota
	KeyRepeat
	KeyRelease
)

func (k KeyEventKind) String() string {
	switch k {
	case KeyPress:
		return `press`
	case KeyRepeat:
		return `repeat`
	case KeyRelease:
		return `release`
	default:
		return fmt.Sprintf(`KeyEventKind(%d)`, uint8(k))
	}
}

// KeyModifiers is a bitmask of modifier keys held during a key event.
type KeyModifiers uint8

const (
	ModShift KeyModifiers = 1 << iota
	ModAlt
	ModCtrl
)

func (m KeyModifiers) String() string {
	if m == 0 {
		return `none`
	}
	var parts []string
	if m&ModShift != 0 {
		parts = append(parts, `shift`)
	}
	if m&ModAlt != 0 {
		parts = append(parts, `alt`)
	}
	if m&ModCtrl != 0 {
		parts = append(parts, `ctrl`)
	}
	return strings.Join(parts, `+`)
}

// KeyCode identifies which key a KeyEvent describes. Printable input uses
// KeyRune together with the KeyEvent.Rune field.
type KeyCode uint8

const (
	// KeyRune is any printable key; the rune is carried alongside.
	KeyRune KeyCode = iota
	KeyEnter
	KeyTab
	KeyBackspace
	KeyEscape
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyInsert
	KeyDelete
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
)

var keyCodeNames = map[KeyCode]string{
	KeyRune:      `rune`,
	KeyEnter:     `enter`,
	KeyTab:       `tab`,
	KeyBackspace: `backspace`,
	KeyEscape:    `escape`,
	KeyUp:        `up`,
	KeyDown:      `down`,
	KeyLeft:      `left`,
	KeyRight:     `right`,
	KeyHome:      `home`,
	KeyEnd:       `end`,
	KeyPageUp:    `pageup`,
	KeyPageDown:  `pagedown`,
	KeyInsert:    `insert`,
	KeyDelete:    `delete`,
	KeyF1:        `f1`,
	KeyF2:        `f2`,
	KeyF3:        `f3`,
	KeyF4:        `f4`,
	KeyF5:        `f5`,
	KeyF6:        `f6`,
	KeyF7:        `f7`,
	KeyF8:        `f8`,
	KeyF9:        `f9`,
	KeyF10:       `f10`,
	KeyF11:       `f11`,
	KeyF12:       `f12`,
}

func (k KeyCode) String() string {
	if s, ok := keyCodeNames[k]; ok {
		return s
	}
	return fmt.Sprintf(`KeyCode(%d)`, uint8(k))
}

// KeyEvent reports a single key stroke.
type KeyEvent struct {
	Code      KeyCode
	Rune      rune // valid iff Code == KeyRune
	Modifiers KeyModifiers
	Kind      KeyEventKind
}

func (e KeyEvent) isEvent() {}

func (e KeyEvent) String() string {
	var b strings.Builder
	b.WriteString(`key(`)
	if e.Code == KeyRune {
		b.WriteString(string(e.Rune))
	} else {
		b.WriteString(e.Code.String())
	}
	if e.Modifiers != 0 {
		b.WriteString(` mod=`)
		b.WriteString(e.Modifiers.String())
	}
	if e.Kind != KeyPress {
		b.WriteString(` kind=`)
		b.WriteString(e.Kind.String())
	}
	b.WriteString(`)`)
	return b.String()
}

// ResizeEvent reports a change of the terminal dimensions, in cells.
type ResizeEvent struct {
	Width  int
	Height int
}

func (e ResizeEvent) isEvent() {}

func (e ResizeEvent) String() string {
	return fmt.Sprintf(`resize(%dx%d)`, e.Width, e.Height)
}

// FocusEvent reports the terminal window gaining or losing focus.
type FocusEvent struct {
	Gained bool
}

func (e FocusEvent) isEvent() {}

func (e FocusEvent) String() string {
	if e.Gained {
		return `focus(gained)`
	}
	return `focus(lost)`
}

// PasteEvent carries the contents of one bracketed paste.
type PasteEvent struct {
	Content string
}

func (e PasteEvent) isEvent() {}

func (e PasteEvent) String() string {
	return fmt.Sprintf(`paste(%d bytes)`, len(e.Content))
}
