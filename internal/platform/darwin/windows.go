//go:build darwin && cgo

package darwin

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework CoreGraphics -framework CoreFoundation
#include <CoreGraphics/CoreGraphics.h>
#include <stdlib.h>
#include <string.h>

typedef struct {
    int windowID;
    int pid;
    int layer;
    double x, y, w, h;
    char *owner;
} CGWindowEntry;

// List all on-screen windows with id, owner pid/name, layer, and bounds.
static int cg_list_windows(CGWindowEntry **out, int *count) {
    CFArrayRef list = CGWindowListCopyWindowInfo(
        kCGWindowListOptionOnScreenOnly | kCGWindowListExcludeDesktopElements,
        kCGNullWindowID);
    if (!list) return -1;

    CFIndex n = CFArrayGetCount(list);
    CGWindowEntry *entries = malloc(sizeof(CGWindowEntry) * (n > 0 ? n : 1));
    int m = 0;
    for (CFIndex i = 0; i < n; i++) {
        CFDictionaryRef info = CFArrayGetValueAtIndex(list, i);
        if (!info) continue;

        CGWindowEntry *e = &entries[m];
        memset(e, 0, sizeof(*e));

        CFNumberRef num;
        if ((num = CFDictionaryGetValue(info, kCGWindowNumber)))
            CFNumberGetValue(num, kCFNumberIntType, &e->windowID);
        if ((num = CFDictionaryGetValue(info, kCGWindowOwnerPID)))
            CFNumberGetValue(num, kCFNumberIntType, &e->pid);
        if ((num = CFDictionaryGetValue(info, kCGWindowLayer)))
            CFNumberGetValue(num, kCFNumberIntType, &e->layer);

        CFDictionaryRef boundsDict = CFDictionaryGetValue(info, kCGWindowBounds);
        CGRect bounds = CGRectZero;
        if (boundsDict) CGRectMakeWithDictionaryRepresentation(boundsDict, &bounds);
        e->x = bounds.origin.x;
        e->y = bounds.origin.y;
        e->w = bounds.size.width;
        e->h = bounds.size.height;

        CFStringRef name = CFDictionaryGetValue(info, kCGWindowOwnerName);
        if (name) {
            CFIndex len = CFStringGetMaximumSizeForEncoding(CFStringGetLength(name), kCFStringEncodingUTF8) + 1;
            e->owner = malloc(len);
            if (e->owner && !CFStringGetCString(name, e->owner, len, kCFStringEncodingUTF8)) {
                free(e->owner);
                e->owner = NULL;
            }
        }
        m++;
    }
    CFRelease(list);
    *out = entries;
    *count = m;
    return 0;
}

static void cg_free_windows(CGWindowEntry *entries, int count) {
    for (int i = 0; i < count; i++) free(entries[i].owner);
    free(entries);
}

// Capture one window as BGRA pixels. Caller frees *pixels.
static int cg_capture_window(int windowID, unsigned char **pixels, int *w, int *h) {
    CGImageRef img = CGWindowListCreateImage(
        CGRectNull,
        kCGWindowListOptionIncludingWindow,
        (CGWindowID)windowID,
        kCGWindowImageBoundsIgnoreFraming | kCGWindowImageBestResolution);
    if (!img) return -1;

    size_t width = CGImageGetWidth(img);
    size_t height = CGImageGetHeight(img);
    if (width == 0 || height == 0) {
        CGImageRelease(img);
        return -1;
    }

    unsigned char *buf = calloc(width * height * 4, 1);
    if (!buf) {
        CGImageRelease(img);
        return -1;
    }
    CGColorSpaceRef cs = CGColorSpaceCreateDeviceRGB();
    CGContextRef ctx = CGBitmapContextCreate(
        buf, width, height, 8, width * 4, cs,
        kCGImageAlphaPremultipliedLast | kCGBitmapByteOrder32Big);
    CGColorSpaceRelease(cs);
    if (!ctx) {
        free(buf);
        CGImageRelease(img);
        return -1;
    }
    CGContextDrawImage(ctx, CGRectMake(0, 0, width, height), img);
    CGContextRelease(ctx);
    CGImageRelease(img);

    *pixels = buf;
    *w = (int)width;
    *h = (int)height;
    return 0;
}

typedef struct {
    int id;
    double x, y, w, h;
} CGDisplayEntry;

static int cg_list_displays(CGDisplayEntry **out, int *count) {
    uint32_t max = 16, n = 0;
    CGDirectDisplayID ids[16];
    if (CGGetActiveDisplayList(max, ids, &n) != kCGErrorSuccess) return -1;

    CGDisplayEntry *entries = malloc(sizeof(CGDisplayEntry) * (n > 0 ? n : 1));
    for (uint32_t i = 0; i < n; i++) {
        CGRect bounds = CGDisplayBounds(ids[i]);
        entries[i].id = (int)ids[i];
        entries[i].x = bounds.origin.x;
        entries[i].y = bounds.origin.y;
        entries[i].w = bounds.size.width;
        entries[i].h = bounds.size.height;
    }
    *out = entries;
    *count = (int)n;
    return 0;
}
*/
import "C"
import (
	"fmt"
	"image"
	"unsafe"

	"github.com/tidybar/tidybar/internal/geometry"
	"github.com/tidybar/tidybar/internal/platform"
)

// WindowServer implements platform.WindowServer for macOS.
type WindowServer struct{}

// NewWindowServer creates a new macOS window-server client.
func NewWindowServer() *WindowServer {
	return &WindowServer{}
}

// Windows lists on-screen windows on the given layer.
func (w *WindowServer) Windows(layer int) ([]platform.WindowInfo, error) {
	var cEntries *C.CGWindowEntry
	var cCount C.int
	if C.cg_list_windows(&cEntries, &cCount) != 0 {
		return nil, fmt.Errorf("failed to enumerate windows")
	}
	defer C.cg_free_windows(cEntries, cCount)

	count := int(cCount)
	cSlice := unsafe.Slice(cEntries, count)
	var windows []platform.WindowInfo
	for i := 0; i < count; i++ {
		e := cSlice[i]
		if int(e.layer) != layer {
			continue
		}
		windows = append(windows, platform.WindowInfo{
			ID:    int(e.windowID),
			PID:   int(e.pid),
			Owner: C.GoString(e.owner),
			Layer: int(e.layer),
			Bounds: geometry.Rect{
				X: float64(e.x), Y: float64(e.y),
				Width: float64(e.w), Height: float64(e.h),
			},
		})
	}
	return windows, nil
}

// CaptureWindow captures one window's full image.
func (w *WindowServer) CaptureWindow(windowID int) (image.Image, error) {
	var pixels *C.uchar
	var cw, ch C.int
	if C.cg_capture_window(C.int(windowID), &pixels, &cw, &ch) != 0 {
		return nil, fmt.Errorf("failed to capture window %d", windowID)
	}
	defer C.free(unsafe.Pointer(pixels))

	width, height := int(cw), int(ch)
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	src := unsafe.Slice((*byte)(pixels), width*height*4)
	copy(img.Pix, src)
	return img, nil
}

// Displays enumerates active displays in top-left-origin global space.
func (w *WindowServer) Displays() ([]geometry.Display, error) {
	var cEntries *C.CGDisplayEntry
	var cCount C.int
	if C.cg_list_displays(&cEntries, &cCount) != 0 {
		return nil, fmt.Errorf("failed to enumerate displays")
	}
	defer C.free(unsafe.Pointer(cEntries))

	count := int(cCount)
	cSlice := unsafe.Slice(cEntries, count)
	displays := make([]geometry.Display, 0, count)
	for i := 0; i < count; i++ {
		e := cSlice[i]
		displays = append(displays, geometry.Display{
			ID: int(e.id),
			Frame: geometry.Rect{
				X: float64(e.x), Y: float64(e.y),
				Width: float64(e.w), Height: float64(e.h),
			},
		})
	}
	return displays, nil
}

// WindowAt returns the topmost window on the given layer containing p.
// CGWindowListCopyWindowInfo returns windows front-to-back, so the first hit
// wins.
func (w *WindowServer) WindowAt(p geometry.Point, layer int) (platform.WindowInfo, bool) {
	windows, err := w.Windows(layer)
	if err != nil {
		return platform.WindowInfo{}, false
	}
	for _, win := range windows {
		if win.Bounds.Contains(p) {
			return win, true
		}
	}
	return platform.WindowInfo{}, false
}
