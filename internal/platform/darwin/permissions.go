//go:build darwin && cgo

package darwin

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework ApplicationServices -framework CoreGraphics -framework Foundation
#include <ApplicationServices/ApplicationServices.h>
#include <CoreGraphics/CoreGraphics.h>

static int ax_is_trusted(void) {
    return AXIsProcessTrusted();
}

static void ax_prompt_trust(void) {
    const void *keys[] = { kAXTrustedCheckOptionPrompt };
    const void *values[] = { kCFBooleanTrue };
    CFDictionaryRef opts = CFDictionaryCreate(NULL, keys, values, 1,
        &kCFTypeDictionaryKeyCallBacks, &kCFTypeDictionaryValueCallBacks);
    AXIsProcessTrustedWithOptions(opts);
    if (opts) CFRelease(opts);
}

static int cg_screen_recording_granted(void) {
    return CGPreflightScreenCaptureAccess();
}

static void cg_request_screen_recording(void) {
    CGRequestScreenCaptureAccess();
}
*/
import "C"

// Permissions implements platform.Permissions for macOS.
type Permissions struct{}

// NewPermissions creates a new macOS permission checker.
func NewPermissions() *Permissions {
	return &Permissions{}
}

// AccessibilityTrusted reports whether the process may use the AX API.
func (p *Permissions) AccessibilityTrusted() bool {
	return C.ax_is_trusted() != 0
}

// ScreenRecordingGranted reports whether window capture will succeed.
func (p *Permissions) ScreenRecordingGranted() bool {
	return C.cg_screen_recording_granted() != 0
}

// Request triggers the OS permission prompts for both capabilities.
func (p *Permissions) Request() {
	C.ax_prompt_trust()
	C.cg_request_screen_recording()
}
