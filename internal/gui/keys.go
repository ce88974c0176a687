package gui

import (
	"runtime"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
)

// scanCodeF is the hardware code of the key in the F position, per platform:
// X11 keycodes on the unixes, set 1 scancodes on Windows and virtual key
// codes on macOS.
var scanCodeF = map[string]int{
	"linux":   41,
	"freebsd": 41,
	"netbsd":  41,
	"openbsd": 41,
	"windows": 0x21,
	"darwin":  3,
}

// isFullscreenKey matches F by name, or by its physical position when the
// active layout gives the key no name fyne knows, as Cyrillic and Greek
// layouts do.
func isFullscreenKey(ev *fyne.KeyEvent) bool {
	if ev.Name == fyne.KeyF {
		return true
	}
	if ev.Name != fyne.KeyUnknown {
		return false
	}
	code, ok := scanCodeF[runtime.GOOS]
	return ok && ev.Physical.ScanCode == code
}

func isZoomModifier(name fyne.KeyName) bool {
	switch name {
	case desktop.KeyControlLeft, desktop.KeyControlRight, desktop.KeySuperLeft, desktop.KeySuperRight:
		return true
	}
	return false
}
