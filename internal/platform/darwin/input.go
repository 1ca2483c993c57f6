//go:build darwin && cgo

package darwin

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework CoreGraphics -framework ApplicationServices -framework Foundation -framework Carbon
#include <CoreGraphics/CoreGraphics.h>
#include <Carbon/Carbon.h>
#include <unistd.h>

static int cg_move_cursor(double x, double y) {
    CGPoint point = CGPointMake(x, y);
    CGEventRef move = CGEventCreateMouseEvent(NULL, kCGEventMouseMoved, point, kCGMouseButtonLeft);
    if (!move) return -1;
    CGEventPost(kCGHIDEventTap, move);
    CFRelease(move);
    return 0;
}

static int cg_click(double x, double y, int button) {
    CGPoint point = CGPointMake(x, y);

    CGEventType downType, upType;
    CGMouseButton cgButton;
    switch (button) {
        case 1:
            cgButton = kCGMouseButtonRight;
            downType = kCGEventRightMouseDown;
            upType = kCGEventRightMouseUp;
            break;
        case 2:
            cgButton = kCGMouseButtonCenter;
            downType = kCGEventOtherMouseDown;
            upType = kCGEventOtherMouseUp;
            break;
        default:
            cgButton = kCGMouseButtonLeft;
            downType = kCGEventLeftMouseDown;
            upType = kCGEventLeftMouseUp;
            break;
    }

    CGEventRef down = CGEventCreateMouseEvent(NULL, downType, point, cgButton);
    CGEventRef up = CGEventCreateMouseEvent(NULL, upType, point, cgButton);
    if (!down || !up) {
        if (down) CFRelease(down);
        if (up) CFRelease(up);
        return -1;
    }
    CGEventPost(kCGHIDEventTap, down);
    CGEventPost(kCGHIDEventTap, up);
    CFRelease(down);
    CFRelease(up);
    return 0;
}

// Drag from (fromX,fromY) to (toX,toY) with modifier flags held for the
// whole gesture. Status items only accept relocation drags while command is
// held, so the flags ride on every event including down and up.
// Steps are interpolated linearly; delay is in microseconds per step.
static int cg_drag_mod(double fromX, double fromY, double toX, double toY,
                       uint64_t flags, int steps, int step_delay_us) {
    CGPoint startPoint = CGPointMake(fromX, fromY);
    CGPoint endPoint = CGPointMake(toX, toY);

    CGEventRef move = CGEventCreateMouseEvent(NULL, kCGEventMouseMoved, startPoint, kCGMouseButtonLeft);
    if (!move) return -1;
    CGEventSetFlags(move, (CGEventFlags)flags);
    CGEventPost(kCGHIDEventTap, move);
    CFRelease(move);
    usleep(15000);

    CGEventRef down = CGEventCreateMouseEvent(NULL, kCGEventLeftMouseDown, startPoint, kCGMouseButtonLeft);
    if (!down) return -1;
    CGEventSetFlags(down, (CGEventFlags)flags);
    CGEventPost(kCGHIDEventTap, down);
    CFRelease(down);

    if (steps < 1) steps = 20;
    for (int i = 1; i <= steps; i++) {
        double t = (double)i / (double)steps;
        CGPoint pt = CGPointMake(fromX + (toX - fromX) * t, fromY + (toY - fromY) * t);
        CGEventRef drag = CGEventCreateMouseEvent(NULL, kCGEventLeftMouseDragged, pt, kCGMouseButtonLeft);
        if (!drag) {
            CGEventRef upErr = CGEventCreateMouseEvent(NULL, kCGEventLeftMouseUp, pt, kCGMouseButtonLeft);
            if (upErr) {
                CGEventSetFlags(upErr, (CGEventFlags)flags);
                CGEventPost(kCGHIDEventTap, upErr);
                CFRelease(upErr);
            }
            return -1;
        }
        CGEventSetFlags(drag, (CGEventFlags)flags);
        CGEventPost(kCGHIDEventTap, drag);
        CFRelease(drag);
        usleep(step_delay_us);
    }

    CGEventRef up = CGEventCreateMouseEvent(NULL, kCGEventLeftMouseUp, endPoint, kCGMouseButtonLeft);
    if (!up) return -1;
    CGEventSetFlags(up, (CGEventFlags)flags);
    CGEventPost(kCGHIDEventTap, up);
    CFRelease(up);
    return 0;
}

static void cg_key_press(CGKeyCode keyCode) {
    CGEventRef keyDown = CGEventCreateKeyboardEvent(NULL, keyCode, true);
    CGEventRef keyUp = CGEventCreateKeyboardEvent(NULL, keyCode, false);
    CGEventPost(kCGHIDEventTap, keyDown);
    CGEventPost(kCGHIDEventTap, keyUp);
    CFRelease(keyDown);
    CFRelease(keyUp);
}

static void cg_hide_cursor(void) { CGDisplayHideCursor(kCGDirectMainDisplay); }
static void cg_show_cursor(void) { CGDisplayShowCursor(kCGDirectMainDisplay); }

static void cg_cursor_location(double *x, double *y) {
    CGEventRef ev = CGEventCreate(NULL);
    CGPoint p = CGEventGetLocation(ev);
    if (ev) CFRelease(ev);
    *x = p.x;
    *y = p.y;
}
*/
import "C"
import (
	"fmt"
	"strings"
	"time"

	"github.com/tidybar/tidybar/internal/geometry"
	"github.com/tidybar/tidybar/internal/platform"
)

// Input implements platform.Input for macOS.
type Input struct{}

// NewInput creates a new macOS input synthesizer.
func NewInput() *Input {
	return &Input{}
}

func (in *Input) MoveCursor(p geometry.Point) error {
	if C.cg_move_cursor(C.double(p.X), C.double(p.Y)) != 0 {
		return fmt.Errorf("failed to move cursor to (%.0f, %.0f)", p.X, p.Y)
	}
	return nil
}

func (in *Input) Click(p geometry.Point, button platform.MouseButton) error {
	cButton := C.int(0)
	switch button {
	case platform.MouseRight:
		cButton = 1
	case platform.MouseMiddle:
		cButton = 2
	}
	if C.cg_click(C.double(p.X), C.double(p.Y), cButton) != 0 {
		return fmt.Errorf("failed to click at (%.0f, %.0f)", p.X, p.Y)
	}
	return nil
}

func (in *Input) Drag(from, to geometry.Point, opts platform.DragOptions) error {
	steps := opts.Steps
	if steps < 1 {
		steps = 20
	}
	duration := opts.Duration
	if duration <= 0 {
		duration = 100 * time.Millisecond
	}
	stepDelay := int(duration.Microseconds()) / steps

	rc := C.cg_drag_mod(
		C.double(from.X), C.double(from.Y),
		C.double(to.X), C.double(to.Y),
		C.uint64_t(eventFlags(opts.Modifiers)),
		C.int(steps), C.int(stepDelay))
	if rc != 0 {
		return fmt.Errorf("failed to drag from (%.0f,%.0f) to (%.0f,%.0f)", from.X, from.Y, to.X, to.Y)
	}
	return nil
}

func (in *Input) KeyPress(key string) error {
	code, ok := keyCodeMap[strings.ToLower(strings.TrimSpace(key))]
	if !ok {
		return fmt.Errorf("unknown key: %q", key)
	}
	C.cg_key_press(C.CGKeyCode(code))
	return nil
}

func (in *Input) HideCursor() { C.cg_hide_cursor() }
func (in *Input) ShowCursor() { C.cg_show_cursor() }

func (in *Input) CursorLocation() geometry.Point {
	var x, y C.double
	C.cg_cursor_location(&x, &y)
	return geometry.Point{X: float64(x), Y: float64(y)}
}

// eventFlags converts platform modifiers to CGEventFlags bits.
func eventFlags(mods platform.Modifier) uint64 {
	var flags uint64
	if mods&platform.ModCommand != 0 {
		flags |= uint64(C.kCGEventFlagMaskCommand)
	}
	if mods&platform.ModShift != 0 {
		flags |= uint64(C.kCGEventFlagMaskShift)
	}
	if mods&platform.ModOption != 0 {
		flags |= uint64(C.kCGEventFlagMaskAlternate)
	}
	if mods&platform.ModControl != 0 {
		flags |= uint64(C.kCGEventFlagMaskControl)
	}
	return flags
}

// macOS virtual key codes from Carbon Events.h, the subset the engine needs.
var keyCodeMap = map[string]uint16{
	"return": 0x24, "enter": 0x24, "tab": 0x30, "space": 0x31,
	"escape": 0x35, "esc": 0x35,
	"up": 0x7E, "down": 0x7D, "left": 0x7B, "right": 0x7C,
}
