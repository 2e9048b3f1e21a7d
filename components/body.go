package components

// Body holds a point's display radius. Every point in the current
// simulation shares one configured value, but the field is per-instance.
type Body struct {
	Radius float32
}
