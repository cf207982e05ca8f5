package core

// Section is an independently processed unit of the input text. Sections
// carry no data dependency on each other; dependencies exist only across
// stages within one section.
type Section struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// SectionMode selects how input text is partitioned into sections.
type SectionMode string

const (
	// SectionModeSingle treats the whole input as one section.
	SectionModeSingle SectionMode = "single"
	// SectionModeAuto detects structural breaks and yields one section per
	// detected unit, falling back to single when none are found.
	SectionModeAuto SectionMode = "auto"
)

// Valid reports whether the mode is recognized.
func (m SectionMode) Valid() bool {
	return m == SectionModeSingle || m == SectionModeAuto
}
