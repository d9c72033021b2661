package terminal

import (
	"bytes"
	"strconv"
	"unicode/utf8"
)

const (
	esc = 0x1b
	del = 0x7f
)

var pasteEnd = []byte("\x1b[201~")

// Parser incrementally decodes raw terminal bytes into Events. Feed it
// whatever a read produced; bytes forming an incomplete escape sequence or a
// partial UTF-8 rune are retained until the next Feed.
//
// A Parser is not safe for concurrent use; a driver owns exactly one.
type Parser struct {
	buf     []byte
	paste   []byte
	pasting bool
}

// Feed appends b to the parser's buffer and returns all events that are now
// fully decodable, in input order.
func (p *Parser) Feed(b []byte) []Event {
	p.buf = append(p.buf, b...)
	var events []Event
	for len(p.buf) > 0 {
		if p.pasting {
			if !p.consumePaste(&events) {
				break
			}
			continue
		}
		ev, n := p.decode()
		if n == 0 {
			// incomplete; wait for more input
			break
		}
		p.buf = p.buf[n:]
		if ev != nil {
			events = append(events, ev)
		}
	}
	return events
}

// Idle resolves input that is only ambiguous while more bytes might still be
// on the wire. Drivers call it when a read would block: a buffered lone ESC
// becomes an escape key press rather than the start of a sequence.
func (p *Parser) Idle() []Event {
	if p.pasting || len(p.buf) != 1 || p.buf[0] != esc {
		return nil
	}
	p.buf = p.buf[:0]
	return []Event{KeyEvent{Code: KeyEscape}}
}

// consumePaste accumulates bracketed-paste content until the end marker,
// reporting whether progress was made.
func (p *Parser) consumePaste(events *[]Event) bool {
	if i := bytes.Index(p.buf, pasteEnd); i >= 0 {
		p.paste = append(p.paste, p.buf[:i]...)
		p.buf = p.buf[i+len(pasteEnd):]
		*events = append(*events, PasteEvent{Content: string(p.paste)})
		p.paste = nil
		p.pasting = false
		return true
	}
	// keep a potential partial end marker in the buffer
	keep := len(pasteEnd) - 1
	if keep > len(p.buf) {
		keep = len(p.buf)
	}
	cut := len(p.buf) - keep
	p.paste = append(p.paste, p.buf[:cut]...)
	p.buf = p.buf[cut:]
	return false
}

// decode decodes a single event from the head of the buffer, returning the
// event (which may be nil for swallowed sequences) and the number of bytes
// consumed. A zero count means the head is incomplete.
func (p *Parser) decode() (Event, int) {
	if p.buf[0] != esc {
		return p.decodePlain()
	}
	if len(p.buf) == 1 {
		return nil, 0
	}
	switch p.buf[1] {
	case '[':
		return p.decodeCSI()
	case 'O':
		return p.decodeSS3()
	default:
		// ESC-prefixed ordinary input: alt+key
		ev, n := p.decodeAt(1)
		if n == 0 {
			return nil, 0
		}
		if key, ok := ev.(KeyEvent); ok {
			key.Modifiers |= ModAlt
			return key, n + 1
		}
		return ev, n + 1
	}
}

func (p *Parser) decodePlain() (Event, int) {
	return p.decodeAt(0)
}

// decodeAt decodes a plain (non-escape) key starting at offset i.
func (p *Parser) decodeAt(i int) (Event, int) {
	b := p.buf[i]
	switch {
	case b == '\r' || b == '\n':
		return KeyEvent{Code: KeyEnter}, 1
	case b == '\t':
		return KeyEvent{Code: KeyTab}, 1
	case b == del || b == 0x08:
		return KeyEvent{Code: KeyBackspace}, 1
	case b == 0:
		return KeyEvent{Code: KeyRune, Rune: ' ', Modifiers: ModCtrl}, 1
	case b == esc:
		return KeyEvent{Code: KeyEscape}, 1
	case b < 0x20:
		// C0 control: ctrl+letter
		return KeyEvent{Code: KeyRune, Rune: rune(b) + 'a' - 1, Modifiers: ModCtrl}, 1
	default:
		if !utf8.FullRune(p.buf[i:]) {
			return nil, 0
		}
		r, n := utf8.DecodeRune(p.buf[i:])
		return KeyEvent{Code: KeyRune, Rune: r}, n
	}
}

// decodeCSI decodes an ESC [ sequence. Returns (nil, 0) while the final byte
// has not arrived yet; unrecognized but complete sequences are swallowed.
func (p *Parser) decodeCSI() (Event, int) {
	// find the final byte (0x40-0x7e)
	end := -1
	for i := 2; i < len(p.buf); i++ {
		if p.buf[i] >= 0x40 && p.buf[i] <= 0x7e {
			end = i
			break
		}
	}
	if end < 0 {
		return nil, 0
	}
	final := p.buf[end]
	params := csiParams(p.buf[2:end])
	n := end + 1

	mods := csiModifiers(params, 1)

	switch final {
	case 'A':
		return KeyEvent{Code: KeyUp, Modifiers: mods}, n
	case 'B':
		return KeyEvent{Code: KeyDown, Modifiers: mods}, n
	case 'C':
		return KeyEvent{Code: KeyRight, Modifiers: mods}, n
	case 'D':
		return KeyEvent{Code: KeyLeft, Modifiers: mods}, n
	case 'H':
		return KeyEvent{Code: KeyHome, Modifiers: mods}, n
	case 'F':
		return KeyEvent{Code: KeyEnd, Modifiers: mods}, n
	case 'Z':
		return KeyEvent{Code: KeyTab, Modifiers: ModShift}, n
	case 'I':
		return FocusEvent{Gained: true}, n
	case 'O':
		return FocusEvent{Gained: false}, n
	case '~':
		return p.decodeTilde(params, n)
	default:
		return nil, n
	}
}

func (p *Parser) decodeTilde(params []int, n int) (Event, int) {
	if len(params) == 0 {
		return nil, n
	}
	mods := csiModifiers(params, 1)
	var code KeyCode
	switch params[0] {
	case 1, 7:
		code = KeyHome
	case 2:
		code = KeyInsert
	case 3:
		code = KeyDelete
	case 4, 8:
		code = KeyEnd
	case 5:
		code = KeyPageUp
	case 6:
		code = KeyPageDown
	case 11, 12, 13, 14, 15:
		code = KeyF1 + KeyCode(params[0]-11)
	case 17, 18, 19, 20, 21:
		code = KeyF6 + KeyCode(params[0]-17)
	case 23, 24:
		code = KeyF11 + KeyCode(params[0]-23)
	case 200:
		p.pasting = true
		return nil, n
	case 201:
		// stray paste end; swallow
		return nil, n
	default:
		return nil, n
	}
	return KeyEvent{Code: code, Modifiers: mods}, n
}

// decodeSS3 decodes an ESC O sequence (application cursor keys, F1-F4).
func (p *Parser) decodeSS3() (Event, int) {
	if len(p.buf) < 3 {
		return nil, 0
	}
	var code KeyCode
	switch p.buf[2] {
	case 'A':
		code = KeyUp
	case 'B':
		code = KeyDown
	case 'C':
		code = KeyRight
	case 'D':
		code = KeyLeft
	case 'H':
		code = KeyHome
	case 'F':
		code = KeyEnd
	case 'P', 'Q', 'R', 'S':
		code = KeyF1 + KeyCode(p.buf[2]-'P')
	default:
		return nil, 3
	}
	return KeyEvent{Code: code}, 3
}

// csiParams parses the semicolon-separated numeric parameters of a CSI
// sequence. Empty or malformed fields parse as zero.
func csiParams(b []byte) []int {
	if len(b) == 0 {
		return nil
	}
	fields := bytes.Split(b, []byte{';'})
	params := make([]int, len(fields))
	for i, f := range fields {
		v, err := strconv.Atoi(string(f))
		if err != nil {
			v = 0
		}
		params[i] = v
	}
	return params
}

// csiModifiers maps the xterm modifier parameter (value-1 is a bitmask:
// 1=shift, 2=alt, 4=ctrl) at index i to KeyModifiers.
func csiModifiers(params []int, i int) KeyModifiers {
	if i >= len(params) || params[i] < 2 {
		return 0
	}
	bits := params[i] - 1
	var mods KeyModifiers
	if bits&1 != 0 {
		mods |= ModShift
	}
	if bits&2 != 0 {
		mods |= ModAlt
	}
	if bits&4 != 0 {
		mods |= ModCtrl
	}
	return mods
}
