package model

// RawLine is one line read from an encounter log, line break already stripped.
type RawLine struct {
	Text   string `json:"text"`
	Source string `json:"source"` // originating file path
}
