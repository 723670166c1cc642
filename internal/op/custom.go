package op

// Custom is implemented by operators installed by backend passes. Their
// Kind is KindCustom; Capability names the backend that owns them so later
// passes can recognize their own nodes without type assertions on foreign
// packages.
type Custom interface {
	Operator
	Capability() string
}

// HasCapability reports whether o is a Custom operator tagged capability.
func HasCapability(o Operator, capability string) bool {
	c, ok := o.(Custom)
	return ok && o.Kind() == KindCustom && c.Capability() == capability
}
