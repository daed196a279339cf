package event

// Directory maps venue identifiers to display names. It is immutable once
// built and safe for concurrent use.
type Directory struct {
	names map[string]string
}

// NewDirectory copies names into a new Directory.
func NewDirectory(names map[string]string) Directory {
	d := Directory{names: make(map[string]string, len(names))}
	for id, name := range names {
		d.names[id] = name
	}
	return d
}

// DisplayName returns the display name for id, or id itself when unknown.
func (d Directory) DisplayName(id string) string {
	if name, ok := d.names[id]; ok && name != "" {
		return name
	}
	return id
}

// Len returns the number of known venues.
func (d Directory) Len() int {
	return len(d.names)
}
