package crn

// SpeciesName is the name/identifier of a chemical species.
type SpeciesName string

// Species describes one row of the system state. Each species has a name,
// a description, and optional metadata carried through from the network
// definition.
type Species struct {
	Name        SpeciesName
	Description string
	Meta        map[string]any
}
