package model

// Resource is a "current/max" pair. Known is false when the field was absent
// or could not be read.
type Resource struct {
	Current int64 `json:"current"`
	Max     int64 `json:"max"`
	Known   bool  `json:"-"`
}

// UnitState is the per-unit block embedded in cast and combat records.
type UnitState struct {
	UnitID  string
	Health  Resource
	Magicka Resource
	Stamina Resource
}

// Empty reports whether no unit was present in the block.
func (u UnitState) Empty() bool { return u.UnitID == "" || u.UnitID == "0" }
