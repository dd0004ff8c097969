package strategy

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind identifies a trigger strategy.
type Kind uint8

const (
	KindTime Kind = iota + 1
	KindPromise
	KindIf
	KindEvent
	KindVisible
	KindMedia
	KindIdle
	KindNever
)

// kindNames is indexed by Kind and holds the catalog order.
var kindNames = [...]string{
	KindTime:    "time",
	KindPromise: "promise",
	KindIf:      "if",
	KindEvent:   "event",
	KindVisible: "visible",
	KindMedia:   "media",
	KindIdle:    "idle",
	KindNever:   "never",
}

// String returns the lower-case kind name used in markup ("time", "if", ...).
func (k Kind) String() string {
	if !k.Valid() {
		return "unknown"
	}
	return kindNames[k]
}

// Suffix returns the canonical tag-name suffix ("Time", "If", ...).
func (k Kind) Suffix() string {
	if !k.Valid() {
		return ""
	}
	name := kindNames[k]
	return strings.ToUpper(name[:1]) + name[1:]
}

// Valid reports whether k is a catalog member.
func (k Kind) Valid() bool {
	return k >= KindTime && k <= KindNever
}

// ParseKind looks up a kind by its markup name. Matching is exact.
func ParseKind(name string) (Kind, bool) {
	for k := KindTime; k <= KindNever; k++ {
		if kindNames[k] == name {
			return k, true
		}
	}
	return 0, false
}

// Names returns the kind names in catalog order.
func Names() []string {
	names := make([]string, 0, len(kindNames)-1)
	for k := KindTime; k <= KindNever; k++ {
		names = append(names, kindNames[k])
	}
	return names
}

// ValueKind describes the shape of the value a kind accepts.
type ValueKind uint8

const (
	ValueNone ValueKind = iota
	ValueNumber
	ValueBoolean
	ValueString
	ValueStringOrList
	ValueObserverOptions
	ValuePromise
)

// String returns the human description used in diagnostics.
func (v ValueKind) String() string {
	switch v {
	case ValueNumber:
		return "number"
	case ValueBoolean:
		return "boolean"
	case ValueString:
		return "string"
	case ValueStringOrList:
		return "string | string[]"
	case ValueObserverOptions:
		return "observer options"
	case ValuePromise:
		return "awaitable"
	default:
		return "no value"
	}
}

// Descriptor is the immutable catalog entry for one kind.
type Descriptor struct {
	Kind     Kind
	Suffix   string
	Expected ValueKind

	// Default is used when the prop is absent. nil means the kind has none.
	Default any
}

// DefaultTime is the delay used by the time trigger when no value is given.
const DefaultTime = 2000 * time.Millisecond

// DefaultEvent is the event the event trigger listens for by default.
const DefaultEvent = "mouseover"

// DefaultMediaQuery always matches.
const DefaultMediaQuery = "(min-width: 1px)"

var catalog = [...]Descriptor{
	KindTime:    {Kind: KindTime, Suffix: "Time", Expected: ValueNumber, Default: DefaultTime},
	KindPromise: {Kind: KindPromise, Suffix: "Promise", Expected: ValuePromise},
	KindIf:      {Kind: KindIf, Suffix: "If", Expected: ValueBoolean, Default: true},
	KindEvent:   {Kind: KindEvent, Suffix: "Event", Expected: ValueStringOrList, Default: []string{DefaultEvent}},
	KindVisible: {Kind: KindVisible, Suffix: "Visible", Expected: ValueObserverOptions, Default: ObserverOptions{}},
	KindMedia:   {Kind: KindMedia, Suffix: "Media", Expected: ValueString, Default: DefaultMediaQuery},
	KindIdle:    {Kind: KindIdle, Suffix: "Idle", Expected: ValueNumber},
	KindNever:   {Kind: KindNever, Suffix: "Never", Expected: ValueNone},
}

// Lookup returns the descriptor for k. The second result is false for kinds
// outside the catalog.
func Lookup(k Kind) (Descriptor, bool) {
	if !k.Valid() {
		return Descriptor{}, false
	}
	d := catalog[k]
	if ev, ok := d.Default.([]string); ok {
		d.Default = append([]string(nil), ev...)
	}
	return d, true
}

// All returns every descriptor in catalog order.
func All() []Descriptor {
	out := make([]Descriptor, 0, len(catalog)-1)
	for k := KindTime; k <= KindNever; k++ {
		d, _ := Lookup(k)
		out = append(out, d)
	}
	return out
}

// DefaultString renders the default for listings; "-" if there is none.
func (d Descriptor) DefaultString() string {
	switch v := d.Default.(type) {
	case nil:
		return "-"
	case time.Duration:
		return strconv.FormatInt(v.Milliseconds(), 10) + "ms"
	case []string:
		return strings.Join(v, ", ")
	case ObserverOptions:
		if v.RootMargin == "" && len(v.Threshold) == 0 {
			return "{}"
		}
		return fmt.Sprintf("{rootMargin: %q, threshold: %v}", v.RootMargin, v.Threshold)
	default:
		return fmt.Sprint(v)
	}
}
