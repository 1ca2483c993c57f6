//go:build darwin && cgo

package darwin

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework CoreGraphics -framework CoreFoundation -framework Foundation
#include <CoreFoundation/CoreFoundation.h>
#include <CoreGraphics/CoreGraphics.h>
#include <string.h>

// Whether the main run loop is currently in the event-tracking mode menus
// and drags use.
static int cf_menu_tracking(void) {
    CFRunLoopRef rl = CFRunLoopGetMain();
    CFStringRef mode = CFRunLoopCopyCurrentMode(rl);
    if (!mode) return 0;
    // NSEventTrackingRunLoopMode bridges to this CF constant name.
    int tracking = CFStringCompare(mode, CFSTR("NSEventTrackingRunLoopMode"), 0) == kCFCompareEqualTo;
    CFRelease(mode);
    return tracking;
}

// Seconds since the last HID event of any type.
static double cg_seconds_since_input(void) {
    return CGEventSourceSecondsSinceLastEventType(
        kCGEventSourceStateCombinedSessionState, kCGAnyInputEventType);
}

// Whether the system appearance is dark.
static int cf_dark_appearance(void) {
    CFStringRef style = CFPreferencesCopyAppValue(
        CFSTR("AppleInterfaceStyle"), kCFPreferencesAnyApplication);
    if (!style) return 0;
    int dark = 0;
    if (CFGetTypeID(style) == CFStringGetTypeID()) {
        dark = CFStringCompare((CFStringRef)style, CFSTR("Dark"), kCFCompareCaseInsensitive) == kCFCompareEqualTo;
    }
    CFRelease(style);
    return dark;
}
*/
import "C"
import "time"

// UIState implements platform.UIState for macOS.
type UIState struct{}

// NewUIState creates a new macOS UI-state querier.
func NewUIState() *UIState {
	return &UIState{}
}

func (u *UIState) MenuTrackingActive() bool {
	return C.cf_menu_tracking() != 0
}

func (u *UIState) TimeSinceLastInput() time.Duration {
	return time.Duration(float64(C.cg_seconds_since_input()) * float64(time.Second))
}

func (u *UIState) DarkAppearance() bool {
	return C.cf_dark_appearance() != 0
}
