package component

// UnitComponent links an entity to its static definition and owner.
type UnitComponent struct {
	// DefID keys the unit definition in the registry
	DefID string

	// Owner is the controlling player index
	Owner uint8
}
