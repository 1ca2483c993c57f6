//go:build darwin && cgo

package darwin

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework ApplicationServices -framework CoreFoundation -framework Foundation -framework AppKit
#import <AppKit/AppKit.h>
#include <ApplicationServices/ApplicationServices.h>
#include <stdlib.h>

typedef struct {
    char *bundleID;
    int pid;
} RunningApp;

// List all running applications that report a bundle identifier.
static int ns_running_apps(RunningApp **out, int *count) {
    @autoreleasepool {
        NSArray<NSRunningApplication *> *apps = [[NSWorkspace sharedWorkspace] runningApplications];
        RunningApp *result = malloc(sizeof(RunningApp) * apps.count);
        if (!result) return -1;
        int n = 0;
        for (NSRunningApplication *app in apps) {
            NSString *bid = app.bundleIdentifier;
            if (!bid) continue;
            result[n].bundleID = strdup(bid.UTF8String);
            result[n].pid = (int)app.processIdentifier;
            n++;
        }
        *out = result;
        *count = n;
        return 0;
    }
}

static void free_running_apps(RunningApp *apps, int count) {
    for (int i = 0; i < count; i++) free(apps[i].bundleID);
    free(apps);
}

// Copy the app-level element's extras menu bar (the right-hand status strip)
// or its regular menu bar. Returns a retained AXUIElementRef or NULL.
static void *ax_copy_bar_root(int pid, int extras) {
    AXUIElementRef app = AXUIElementCreateApplication((pid_t)pid);
    if (!app) return NULL;
    CFTypeRef root = NULL;
    CFStringRef attr = extras ? kAXExtrasMenuBarAttribute : kAXMenuBarAttribute;
    AXError err = AXUIElementCopyAttributeValue(app, attr, &root);
    CFRelease(app);
    if (err != kAXErrorSuccess || !root) return NULL;
    if (CFGetTypeID(root) != AXUIElementGetTypeID()) {
        CFRelease(root);
        return NULL;
    }
    return (void *)root;
}

static char *ns_own_bundle_id(void) {
    @autoreleasepool {
        NSString *bid = [[NSBundle mainBundle] bundleIdentifier];
        return bid ? strdup(bid.UTF8String) : NULL;
    }
}
*/
import "C"
import (
	"fmt"
	"unsafe"

	"github.com/tidybar/tidybar/internal/platform"
)

// Reader implements platform.MenuBarReader for macOS.
type Reader struct{}

// NewReader creates a new macOS menu-bar reader.
func NewReader() *Reader {
	return &Reader{}
}

// RunningApps lists running applications that expose a bundle identifier.
func (r *Reader) RunningApps() ([]platform.AppInfo, error) {
	var cApps *C.RunningApp
	var cCount C.int
	if C.ns_running_apps(&cApps, &cCount) != 0 {
		return nil, fmt.Errorf("failed to enumerate running applications")
	}
	defer C.free_running_apps(cApps, cCount)

	count := int(cCount)
	apps := make([]platform.AppInfo, 0, count)
	cSlice := unsafe.Slice(cApps, count)
	for i := 0; i < count; i++ {
		apps = append(apps, platform.AppInfo{
			BundleID: C.GoString(cSlice[i].bundleID),
			PID:      int(cSlice[i].pid),
		})
	}
	return apps, nil
}

// AppRunning reports whether any running app has the given bundle id.
func (r *Reader) AppRunning(bundleID string) bool {
	apps, err := r.RunningApps()
	if err != nil {
		return false
	}
	for _, a := range apps {
		if a.BundleID == bundleID {
			return true
		}
	}
	return false
}

// ExtrasRoot returns the app's extras-menu-bar accessibility root.
func (r *Reader) ExtrasRoot(bundleID string) (platform.Element, bool) {
	return r.barRoot(bundleID, true)
}

// MenuBarRoot returns the app's generic menu-bar root.
func (r *Reader) MenuBarRoot(bundleID string) (platform.Element, bool) {
	return r.barRoot(bundleID, false)
}

func (r *Reader) barRoot(bundleID string, extras bool) (platform.Element, bool) {
	pid, ok := r.pidFor(bundleID)
	if !ok {
		return nil, false
	}
	flag := C.int(0)
	if extras {
		flag = 1
	}
	ref := C.ax_copy_bar_root(C.int(pid), flag)
	if ref == nil {
		return nil, false
	}
	el := wrapElement(unsafe.Pointer(ref))
	if el == nil {
		return nil, false
	}
	return el, true
}

func (r *Reader) pidFor(bundleID string) (int, bool) {
	apps, err := r.RunningApps()
	if err != nil {
		return 0, false
	}
	for _, a := range apps {
		if a.BundleID == bundleID {
			return a.PID, true
		}
	}
	return 0, false
}

// ownBundleID returns this process's bundle identifier, empty when running
// outside an app bundle (plain CLI invocation).
func ownBundleID() string {
	cs := C.ns_own_bundle_id()
	if cs == nil {
		return ""
	}
	defer C.free(unsafe.Pointer(cs))
	return C.GoString(cs)
}
