package glfwwin

import (
	"fmt"
	"strings"

	"github.com/go-gl/glfw/v3.3/glfw"
)

// MousePointerEvent carries the cursor position in window pixels.
const MousePointerEvent = "mouse_pointer"

var keyNames = map[glfw.Key]string{
	glfw.KeySpace:        "SPACE",
	glfw.KeyEscape:       "ESC",
	glfw.KeyEnter:        "ENTER",
	glfw.KeyTab:          "TAB",
	glfw.KeyBackspace:    "BACKSPACE",
	glfw.KeyInsert:       "INSERT",
	glfw.KeyDelete:       "DELETE",
	glfw.KeyRight:        "RIGHT",
	glfw.KeyLeft:         "LEFT",
	glfw.KeyDown:         "DOWN",
	glfw.KeyUp:           "UP",
	glfw.KeyPageUp:       "PAGEUP",
	glfw.KeyPageDown:     "PAGEDOWN",
	glfw.KeyHome:         "HOME",
	glfw.KeyEnd:          "END",
	glfw.KeyLeftShift:    "SHIFT",
	glfw.KeyRightShift:   "SHIFT",
	glfw.KeyLeftControl:  "CTRL",
	glfw.KeyRightControl: "CTRL",
	glfw.KeyLeftAlt:      "ALT",
	glfw.KeyRightAlt:     "ALT",
}

// KeyName returns the name used in keyboard events: the printable
// character upper-cased (as reported by the layout), a fixed name for
// special keys, F1..F25, or KEY<code> for anything else.
func KeyName(key glfw.Key, printable string) string {
	if name, ok := keyNames[key]; ok {
		return name
	}
	if key >= glfw.KeyF1 && key <= glfw.KeyF25 {
		return fmt.Sprintf("F%d", int(key-glfw.KeyF1)+1)
	}
	if printable != "" {
		return strings.ToUpper(printable)
	}
	return fmt.Sprintf("KEY%d", int(key))
}

// KeyEventName builds kbd_<name>_down, kbd_<name>_up or kbd_<name>_repeat.
// Unknown keys yield an empty name.
func KeyEventName(key glfw.Key, printable string, action glfw.Action) string {
	if key == glfw.KeyUnknown {
		return ""
	}
	suffix := actionSuffix(action)
	if suffix == "" {
		return ""
	}
	return "kbd_" + KeyName(key, printable) + "_" + suffix
}

// MouseButtonEventName builds mouse_btn_<n>_down or mouse_btn_<n>_up, with
// left, right and middle named.
func MouseButtonEventName(button glfw.MouseButton, action glfw.Action) string {
	suffix := actionSuffix(action)
	if suffix == "" || action == glfw.Repeat {
		return ""
	}
	var name string
	switch button {
	case glfw.MouseButtonLeft:
		name = "left"
	case glfw.MouseButtonRight:
		name = "right"
	case glfw.MouseButtonMiddle:
		name = "middle"
	default:
		name = fmt.Sprintf("%d", int(button)+1)
	}
	return "mouse_btn_" + name + "_" + suffix
}

func actionSuffix(action glfw.Action) string {
	switch action {
	case glfw.Press:
		return "down"
	case glfw.Release:
		return "up"
	case glfw.Repeat:
		return "repeat"
	}
	return ""
}
