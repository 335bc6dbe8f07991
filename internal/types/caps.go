package types

// Capabilities is a static declaration of which fields and relationships
// a remote tracker can represent. It is attached to a remote adapter at
// construction time; the store consults it to reject unsupported writes
// before they are queued, so invalid mutations never reach disk or the
// mutation queue.
type Capabilities struct {
	Iterations   bool `json:"iterations"`
	Labels       bool `json:"labels"`
	Priority     bool `json:"priority"`
	Assignees    bool `json:"assignees"`
	Parent       bool `json:"parent"`
	Dependencies bool `json:"dependencies"`
	Comments     bool `json:"comments"`
	DueDates     bool `json:"due_dates"`
}

// FullCapabilities returns a descriptor with every feature enabled.
func FullCapabilities() Capabilities {
	return Capabilities{
		Iterations:   true,
		Labels:       true,
		Priority:     true,
		Assignees:    true,
		Parent:       true,
		Dependencies: true,
		Comments:     true,
		DueDates:     true,
	}
}
