package component

// SelectableComponent marks an entity the UI layer may select. The core
// only stores the flag; input handling lives outside the simulation.
type SelectableComponent struct {
	Selected bool
}
