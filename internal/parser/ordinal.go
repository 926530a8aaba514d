package parser

import "github.com/atikulmunna/esoloom/internal/model"

// OrdinalSource says where an event's ordering value comes from.
type OrdinalSource int

const (
	// ElapsedMs uses the leading field, milliseconds since BEGIN_LOG.
	ElapsedMs OrdinalSource = iota
	// LineCounter uses the parser's running line count. Metadata records are
	// written in bursts whose leading time does not track the fight.
	LineCounter
)

func (s OrdinalSource) String() string {
	if s == LineCounter {
		return "line"
	}
	return "ms"
}

// ordinalSources is a fixed lookup; kinds not listed use ElapsedMs.
var ordinalSources = map[model.Kind]OrdinalSource{
	model.KindAbilityInfo: LineCounter,
	model.KindEffectInfo:  LineCounter,
	model.KindPlayerInfo:  LineCounter,
}

// OrdinalSourceFor returns the ordering convention used for kind.
func OrdinalSourceFor(kind model.Kind) OrdinalSource {
	if src, ok := ordinalSources[kind]; ok {
		return src
	}
	return ElapsedMs
}

// HasElapsedTime reports whether events of kind carry real elapsed time.
func HasElapsedTime(kind model.Kind) bool {
	return OrdinalSourceFor(kind) == ElapsedMs
}
