//go:build darwin && cgo

package darwin

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework ApplicationServices -framework CoreFoundation -framework Foundation
#include <ApplicationServices/ApplicationServices.h>
#include <stdlib.h>
#include <string.h>

// Decoded accessibility attribute value. kind mirrors the Go AXValueKind.
typedef struct {
    int kind; // 0 unknown, 1 point, 2 size, 3 rect, 4 string, 5 bool, 6 element
    double x, y, w, h;
    char *str;
    int b;
    void *element; // retained AXUIElementRef, caller releases
} AXDecoded;

static char *cf_string_to_c(CFStringRef s) {
    if (!s) return NULL;
    CFIndex len = CFStringGetMaximumSizeForEncoding(CFStringGetLength(s), kCFStringEncodingUTF8) + 1;
    char *buf = malloc(len);
    if (!buf) return NULL;
    if (!CFStringGetCString(s, buf, len, kCFStringEncodingUTF8)) {
        free(buf);
        return NULL;
    }
    return buf;
}

// Copy and decode one attribute value. Returns 0 on success. The decode is
// the single place opaque CF values are type-checked; everything above it
// sees only the tagged struct.
static int ax_copy_attr(void *el, const char *name, AXDecoded *out) {
    memset(out, 0, sizeof(*out));
    CFStringRef cfName = CFStringCreateWithCString(NULL, name, kCFStringEncodingUTF8);
    if (!cfName) return -1;
    CFTypeRef value = NULL;
    AXError err = AXUIElementCopyAttributeValue((AXUIElementRef)el, cfName, &value);
    CFRelease(cfName);
    if (err != kAXErrorSuccess || !value) return -1;

    CFTypeID tid = CFGetTypeID(value);
    if (tid == AXValueGetTypeID()) {
        AXValueRef av = (AXValueRef)value;
        AXValueType vt = AXValueGetType(av);
        if (vt == kAXValueCGPointType) {
            CGPoint p;
            if (AXValueGetValue(av, kAXValueCGPointType, &p)) {
                out->kind = 1; out->x = p.x; out->y = p.y;
            }
        } else if (vt == kAXValueCGSizeType) {
            CGSize s;
            if (AXValueGetValue(av, kAXValueCGSizeType, &s)) {
                out->kind = 2; out->w = s.width; out->h = s.height;
            }
        } else if (vt == kAXValueCGRectType) {
            CGRect r;
            if (AXValueGetValue(av, kAXValueCGRectType, &r)) {
                out->kind = 3;
                out->x = r.origin.x; out->y = r.origin.y;
                out->w = r.size.width; out->h = r.size.height;
            }
        }
    } else if (tid == CFStringGetTypeID()) {
        out->kind = 4;
        out->str = cf_string_to_c((CFStringRef)value);
    } else if (tid == CFBooleanGetTypeID()) {
        out->kind = 5;
        out->b = CFBooleanGetValue((CFBooleanRef)value) ? 1 : 0;
    } else if (tid == AXUIElementGetTypeID()) {
        out->kind = 6;
        out->element = (void *)CFRetain(value);
    }
    CFRelease(value);
    return out->kind == 0 ? -1 : 0;
}

// Copy the element's role string, NULL on failure.
static char *ax_copy_role(void *el) {
    CFTypeRef value = NULL;
    if (AXUIElementCopyAttributeValue((AXUIElementRef)el, kAXRoleAttribute, &value) != kAXErrorSuccess || !value) {
        return NULL;
    }
    char *role = NULL;
    if (CFGetTypeID(value) == CFStringGetTypeID()) {
        role = cf_string_to_c((CFStringRef)value);
    }
    CFRelease(value);
    return role;
}

// Copy retained children refs into a malloc'd array. Returns count, -1 on error.
static int ax_copy_children(void *el, void ***out) {
    CFTypeRef value = NULL;
    if (AXUIElementCopyAttributeValue((AXUIElementRef)el, kAXChildrenAttribute, &value) != kAXErrorSuccess || !value) {
        return -1;
    }
    if (CFGetTypeID(value) != CFArrayGetTypeID()) {
        CFRelease(value);
        return -1;
    }
    CFArrayRef arr = (CFArrayRef)value;
    CFIndex n = CFArrayGetCount(arr);
    void **refs = malloc(sizeof(void *) * (n > 0 ? n : 1));
    int count = 0;
    for (CFIndex i = 0; i < n; i++) {
        CFTypeRef child = CFArrayGetValueAtIndex(arr, i);
        if (child && CFGetTypeID(child) == AXUIElementGetTypeID()) {
            refs[count++] = (void *)CFRetain(child);
        }
    }
    CFRelease(value);
    *out = refs;
    return count;
}

// Copy the element's action names into a malloc'd array of C strings.
static int ax_copy_actions(void *el, char ***out) {
    CFArrayRef names = NULL;
    if (AXUIElementCopyActionNames((AXUIElementRef)el, &names) != kAXErrorSuccess || !names) {
        return -1;
    }
    CFIndex n = CFArrayGetCount(names);
    char **strs = malloc(sizeof(char *) * (n > 0 ? n : 1));
    int count = 0;
    for (CFIndex i = 0; i < n; i++) {
        CFTypeRef name = CFArrayGetValueAtIndex(names, i);
        if (name && CFGetTypeID(name) == CFStringGetTypeID()) {
            char *s = cf_string_to_c((CFStringRef)name);
            if (s) strs[count++] = s;
        }
    }
    CFRelease(names);
    *out = strs;
    return count;
}

static int ax_perform(void *el, const char *action) {
    CFStringRef cfAction = CFStringCreateWithCString(NULL, action, kCFStringEncodingUTF8);
    if (!cfAction) return -1;
    AXError err = AXUIElementPerformAction((AXUIElementRef)el, cfAction);
    CFRelease(cfAction);
    return err == kAXErrorSuccess ? 0 : -1;
}

static int ax_element_pid(void *el) {
    pid_t pid = 0;
    if (AXUIElementGetPid((AXUIElementRef)el, &pid) != kAXErrorSuccess) return 0;
    return (int)pid;
}

static void ax_release(void *el) {
    if (el) CFRelease(el);
}

static void *ax_app_element(int pid) {
    return (void *)AXUIElementCreateApplication((pid_t)pid);
}
*/
import "C"
import (
	"fmt"
	"runtime"
	"unsafe"

	"github.com/tidybar/tidybar/internal/geometry"
	"github.com/tidybar/tidybar/internal/platform"
)

// axElement wraps a retained AXUIElementRef. The ref is released by a
// finalizer once the Go wrapper is collected.
type axElement struct {
	ref unsafe.Pointer
}

func wrapElement(ref unsafe.Pointer) *axElement {
	if ref == nil {
		return nil
	}
	el := &axElement{ref: ref}
	runtime.SetFinalizer(el, func(e *axElement) {
		C.ax_release(e.ref)
	})
	return el
}

// appElement returns the application-level accessibility element for a pid.
func appElement(pid int) *axElement {
	return wrapElement(unsafe.Pointer(C.ax_app_element(C.int(pid))))
}

func (e *axElement) Role() (string, bool) {
	cRole := C.ax_copy_role(e.ref)
	if cRole == nil {
		return "", false
	}
	defer C.free(unsafe.Pointer(cRole))
	return C.GoString(cRole), true
}

func (e *axElement) Attr(name string) (platform.AXValue, bool) {
	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))

	var out C.AXDecoded
	if C.ax_copy_attr(e.ref, cName, &out) != 0 {
		return platform.AXValue{}, false
	}
	switch out.kind {
	case 1:
		return platform.PointVal(geometry.Point{X: float64(out.x), Y: float64(out.y)}), true
	case 2:
		return platform.SizeVal(geometry.Size{Width: float64(out.w), Height: float64(out.h)}), true
	case 3:
		return platform.RectVal(geometry.Rect{
			X: float64(out.x), Y: float64(out.y),
			Width: float64(out.w), Height: float64(out.h),
		}), true
	case 4:
		s := C.GoString(out.str)
		C.free(unsafe.Pointer(out.str))
		return platform.StringVal(s), true
	case 5:
		return platform.BoolVal(out.b != 0), true
	case 6:
		return platform.ElementVal(wrapElement(out.element)), true
	default:
		return platform.AXValue{}, false
	}
}

func (e *axElement) Children() []platform.Element {
	var refs *unsafe.Pointer
	count := int(C.ax_copy_children(e.ref, &refs))
	if count <= 0 {
		return nil
	}
	defer C.free(unsafe.Pointer(refs))

	slice := unsafe.Slice(refs, count)
	children := make([]platform.Element, 0, count)
	for i := 0; i < count; i++ {
		if el := wrapElement(slice[i]); el != nil {
			children = append(children, el)
		}
	}
	return children
}

func (e *axElement) Actions() []string {
	var strs **C.char
	count := int(C.ax_copy_actions(e.ref, &strs))
	if count <= 0 {
		return nil
	}
	defer C.free(unsafe.Pointer(strs))

	slice := unsafe.Slice(strs, count)
	actions := make([]string, 0, count)
	for i := 0; i < count; i++ {
		actions = append(actions, C.GoString(slice[i]))
		C.free(unsafe.Pointer(slice[i]))
	}
	return actions
}

func (e *axElement) Perform(action string) error {
	cAction := C.CString(action)
	defer C.free(unsafe.Pointer(cAction))
	if C.ax_perform(e.ref, cAction) != 0 {
		return fmt.Errorf("accessibility action %q failed", action)
	}
	return nil
}

func (e *axElement) PID() int {
	return int(C.ax_element_pid(e.ref))
}
