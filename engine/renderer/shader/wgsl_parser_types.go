package shader

// wgslTypeLayout is the byte size and alignment of a WGSL type in a host-shareable address space.
type wgslTypeLayout struct {
	size  uint64
	align uint64
}

// parsedField represents a single field extracted from a WGSL struct during parsing
type parsedField struct {
	name      string
	typeName  string
	location  int
	isBuiltin bool
}

// parsedStruct represents a WGSL struct block extracted during parsing
type parsedStruct struct {
	name   string
	fields []parsedField
}

// StructLayout is the host-shareable layout of a WGSL struct declared by a shader.
type StructLayout struct {
	Size      uint64
	Alignment uint64
	// Members lists the buffer-backed members in declaration order.
	Members []StructMember
}

// StructMember is one member of a StructLayout.
type StructMember struct {
	Name   string
	Type   string
	Offset uint64
	Size   uint64
}

// Member returns the member called name.
func (l StructLayout) Member(name string) (StructMember, bool) {
	for _, m := range l.Members {
		if m.Name == name {
			return m, true
		}
	}
	return StructMember{}, false
}

// Binding describes one buffer resource declared with @group/@binding.
type Binding struct {
	Group   int
	Binding int
	// Name is the WGSL variable name.
	Name string
	// Type is the WGSL store type, e.g. "array<StaticData>".
	Type string
	// ElementSize is the byte size of one element for runtime-sized arrays, or of the whole
	// type otherwise.
	ElementSize uint64
	// RuntimeSized reports whether the binding is a runtime-sized array whose buffer size
	// is chosen by the host.
	RuntimeSized bool
}
