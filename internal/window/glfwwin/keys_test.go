package glfwwin

import (
	"testing"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/stretchr/testify/assert"

	"github.com/roach88/mvr/internal/camera"
)

func TestKeyEventName(t *testing.T) {
	tests := []struct {
		name      string
		key       glfw.Key
		printable string
		action    glfw.Action
		want      string
	}{
		{"letter press", glfw.KeyA, "a", glfw.Press, "kbd_A_down"},
		{"letter release", glfw.KeyA, "a", glfw.Release, "kbd_A_up"},
		{"repeat", glfw.KeyW, "w", glfw.Repeat, "kbd_W_repeat"},
		{"escape", glfw.KeyEscape, "", glfw.Press, QuitEvent},
		{"space ignores printable", glfw.KeySpace, " ", glfw.Press, "kbd_SPACE_down"},
		{"function key", glfw.KeyF5, "", glfw.Press, "kbd_F5_down"},
		{"arrow", glfw.KeyUp, "", glfw.Release, "kbd_UP_up"},
		{"both shifts", glfw.KeyRightShift, "", glfw.Press, "kbd_SHIFT_down"},
		{"no printable name", glfw.KeyKPEnter, "", glfw.Press, "kbd_KEY335_down"},
		{"unknown key", glfw.KeyUnknown, "", glfw.Press, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KeyEventName(tt.key, tt.printable, tt.action))
		})
	}
}

func TestMouseButtonEventName(t *testing.T) {
	assert.Equal(t, "mouse_btn_left_down", MouseButtonEventName(glfw.MouseButtonLeft, glfw.Press))
	assert.Equal(t, "mouse_btn_right_up", MouseButtonEventName(glfw.MouseButtonRight, glfw.Release))
	assert.Equal(t, "mouse_btn_middle_down", MouseButtonEventName(glfw.MouseButtonMiddle, glfw.Press))
	assert.Equal(t, "mouse_btn_4_down", MouseButtonEventName(glfw.MouseButton4, glfw.Press))
	assert.Empty(t, MouseButtonEventName(glfw.MouseButtonLeft, glfw.Repeat))
}

func TestDrawBuffer(t *testing.T) {
	assert.Equal(t, uint32(gl.BACK_LEFT), DrawBuffer(camera.Left))
	assert.Equal(t, uint32(gl.BACK_RIGHT), DrawBuffer(camera.Right))
	assert.Equal(t, uint32(gl.BACK), DrawBuffer(camera.Cyclops))
}
