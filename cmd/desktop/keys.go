package main

import "github.com/hajimehoshi/ebiten/v2"

// Hack keyboard codes for keys outside printable ASCII.
const (
	keyNewline   = 128
	keyBackspace = 129
	keyLeft      = 130
	keyUp        = 131
	keyRight     = 132
	keyDown      = 133
	keyHome      = 134
	keyEnd       = 135
	keyPageUp    = 136
	keyPageDown  = 137
	keyInsert    = 138
	keyDelete    = 139
	keyEscape    = 140
	keyF1        = 141
)

var specialKeys = map[ebiten.Key]uint16{
	ebiten.KeyEnter:       keyNewline,
	ebiten.KeyNumpadEnter: keyNewline,
	ebiten.KeyBackspace:   keyBackspace,
	ebiten.KeyArrowLeft:   keyLeft,
	ebiten.KeyArrowUp:     keyUp,
	ebiten.KeyArrowRight:  keyRight,
	ebiten.KeyArrowDown:   keyDown,
	ebiten.KeyHome:        keyHome,
	ebiten.KeyEnd:         keyEnd,
	ebiten.KeyPageUp:      keyPageUp,
	ebiten.KeyPageDown:    keyPageDown,
	ebiten.KeyInsert:      keyInsert,
	ebiten.KeyDelete:      keyDelete,
	ebiten.KeyEscape:      keyEscape,
}

var functionKeys = []ebiten.Key{
	ebiten.KeyF1, ebiten.KeyF2, ebiten.KeyF3, ebiten.KeyF4,
	ebiten.KeyF5, ebiten.KeyF6, ebiten.KeyF7, ebiten.KeyF8,
	ebiten.KeyF9, ebiten.KeyF10, ebiten.KeyF11, ebiten.KeyF12,
}

var letterKeys = []ebiten.Key{
	ebiten.KeyA, ebiten.KeyB, ebiten.KeyC, ebiten.KeyD, ebiten.KeyE, ebiten.KeyF,
	ebiten.KeyG, ebiten.KeyH, ebiten.KeyI, ebiten.KeyJ, ebiten.KeyK, ebiten.KeyL,
	ebiten.KeyM, ebiten.KeyN, ebiten.KeyO, ebiten.KeyP, ebiten.KeyQ, ebiten.KeyR,
	ebiten.KeyS, ebiten.KeyT, ebiten.KeyU, ebiten.KeyV, ebiten.KeyW, ebiten.KeyX,
	ebiten.KeyY, ebiten.KeyZ,
}

var digitKeys = []ebiten.Key{
	ebiten.KeyDigit0, ebiten.KeyDigit1, ebiten.KeyDigit2, ebiten.KeyDigit3, ebiten.KeyDigit4,
	ebiten.KeyDigit5, ebiten.KeyDigit6, ebiten.KeyDigit7, ebiten.KeyDigit8, ebiten.KeyDigit9,
}

// punctuation maps a key to its plain and shifted character.
var punctuation = map[ebiten.Key][2]byte{
	ebiten.KeySpace:        {' ', ' '},
	ebiten.KeyMinus:        {'-', '_'},
	ebiten.KeyEqual:        {'=', '+'},
	ebiten.KeyComma:        {',', '<'},
	ebiten.KeyPeriod:       {'.', '>'},
	ebiten.KeySlash:        {'/', '?'},
	ebiten.KeySemicolon:    {';', ':'},
	ebiten.KeyQuote:        {'\'', '"'},
	ebiten.KeyBracketLeft:  {'[', '{'},
	ebiten.KeyBracketRight: {']', '}'},
	ebiten.KeyBackslash:    {'\\', '|'},
	ebiten.KeyBackquote:    {'`', '~'},
}

const shiftedDigits = ")!@#$%^&*("

// hackKeyCode translates one host key into the code the keyboard register
// holds while it is down. Letters always read as upper case.
func hackKeyCode(k ebiten.Key, shift bool) (uint16, bool) {
	if code, ok := specialKeys[k]; ok {
		return code, true
	}
	for i, fk := range functionKeys {
		if fk == k {
			return uint16(keyF1 + i), true
		}
	}
	for i, lk := range letterKeys {
		if lk == k {
			return uint16('A' + i), true
		}
	}
	for i, dk := range digitKeys {
		if dk == k {
			if shift {
				return uint16(shiftedDigits[i]), true
			}
			return uint16('0' + i), true
		}
	}
	if pair, ok := punctuation[k]; ok {
		if shift {
			return uint16(pair[1]), true
		}
		return uint16(pair[0]), true
	}
	return 0, false
}

func isShift(k ebiten.Key) bool {
	return k == ebiten.KeyShift || k == ebiten.KeyShiftLeft || k == ebiten.KeyShiftRight
}

// heldKeyCode picks the code for the set of keys currently down. The most
// recently reported non-modifier key wins; zero means no key.
func heldKeyCode(pressed []ebiten.Key) uint16 {
	shift := false
	for _, k := range pressed {
		if isShift(k) {
			shift = true
		}
	}
	for i := len(pressed) - 1; i >= 0; i-- {
		if code, ok := hackKeyCode(pressed[i], shift); ok {
			return code
		}
	}
	return 0
}
