package platform

import "github.com/tidybar/tidybar/internal/geometry"

// AXValueKind discriminates the decoded type of an accessibility attribute
// value.
type AXValueKind int

const (
	AXUnknown AXValueKind = iota
	AXPoint
	AXSize
	AXRect
	AXString
	AXBool
	AXElement
)

// AXValue is the decoded form of an opaque accessibility attribute value.
// Exactly one payload field matching Kind is meaningful; everything else is
// zero. Backends produce AXValues through a single validated decode so the
// rest of the engine never type-asserts OS values.
type AXValue struct {
	Kind    AXValueKind
	Point   geometry.Point
	Size    geometry.Size
	Rect    geometry.Rect
	Str     string
	Bool    bool
	Element Element
}

// AsString returns the string payload, reporting whether the value held one.
func (v AXValue) AsString() (string, bool) {
	return v.Str, v.Kind == AXString
}

// AsPoint returns the point payload.
func (v AXValue) AsPoint() (geometry.Point, bool) {
	return v.Point, v.Kind == AXPoint
}

// AsSize returns the size payload.
func (v AXValue) AsSize() (geometry.Size, bool) {
	return v.Size, v.Kind == AXSize
}

// AsRect returns the rect payload.
func (v AXValue) AsRect() (geometry.Rect, bool) {
	return v.Rect, v.Kind == AXRect
}

// AsBool returns the bool payload.
func (v AXValue) AsBool() (bool, bool) {
	return v.Bool, v.Kind == AXBool
}

// AsElement returns the element payload.
func (v AXValue) AsElement() (Element, bool) {
	return v.Element, v.Kind == AXElement
}

// StringVal builds a string AXValue.
func StringVal(s string) AXValue { return AXValue{Kind: AXString, Str: s} }

// PointVal builds a point AXValue.
func PointVal(p geometry.Point) AXValue { return AXValue{Kind: AXPoint, Point: p} }

// SizeVal builds a size AXValue.
func SizeVal(s geometry.Size) AXValue { return AXValue{Kind: AXSize, Size: s} }

// RectVal builds a rect AXValue.
func RectVal(r geometry.Rect) AXValue { return AXValue{Kind: AXRect, Rect: r} }

// BoolVal builds a bool AXValue.
func BoolVal(b bool) AXValue { return AXValue{Kind: AXBool, Bool: b} }

// ElementVal builds an element AXValue.
func ElementVal(e Element) AXValue { return AXValue{Kind: AXElement, Element: e} }
