package shader

import (
	"strconv"
	"strings"
)

// vectorShorthand expands the predeclared vector aliases, e.g. vec3f to vec3<f32>.
var vectorShorthand = map[byte]string{
	'f': "f32",
	'i': "i32",
	'u': "u32",
}

// roundUpAlign rounds value up to the next multiple of alignment.
// Alignment must be a power of two.
func roundUpAlign(alignment, value uint64) uint64 {
	if alignment == 0 {
		return value
	}
	return (value + alignment - 1) &^ (alignment - 1)
}

// genericArgs splits "name<args>" into its top-level arguments.
// Returns false when typeName is not an instance of name.
func genericArgs(typeName, name string) ([]string, bool) {
	rest, ok := strings.CutPrefix(typeName, name+"<")
	if !ok || !strings.HasSuffix(rest, ">") {
		return nil, false
	}
	args := splitAtTopLevelCommas(rest[:len(rest)-1])
	for i := range args {
		args[i] = strings.TrimSpace(args[i])
	}
	return args, true
}

// isRuntimeArray reports whether typeName is a runtime-sized array<T>.
func isRuntimeArray(typeName string) bool {
	args, ok := genericArgs(typeName, "array")
	return ok && len(args) == 1
}

// vectorLayout is the size and alignment of an n-component vector of 4-byte scalars.
func vectorLayout(n uint64) wgslTypeLayout {
	if n == 2 {
		return wgslTypeLayout{size: 8, align: 8}
	}
	return wgslTypeLayout{size: 4 * n, align: 16}
}

// primitiveLayout sizes the 32-bit scalars and the vectors and matrices built from them.
// Matrices are stored as columns of R-component vectors.
//
// Reference: https://www.w3.org/TR/WGSL/#alignment-and-size
//
// Parameters:
//   - typeName: e.g. "u32", "vec3f", "vec4<f32>" or "mat4x4<f32>"
//
// Returns:
//   - wgslTypeLayout: the layout
//   - bool: false if typeName is not a supported primitive
func primitiveLayout(typeName string) (wgslTypeLayout, bool) {
	switch typeName {
	case "f32", "i32", "u32":
		return wgslTypeLayout{size: 4, align: 4}, true
	}
	if typeName == "" {
		return wgslTypeLayout{}, false
	}

	scalar := ""
	shape := typeName
	if open := strings.IndexByte(typeName, '<'); open >= 0 && strings.HasSuffix(typeName, ">") {
		shape, scalar = typeName[:open], typeName[open+1:len(typeName)-1]
	} else if alias, ok := vectorShorthand[typeName[len(typeName)-1]]; ok {
		shape, scalar = typeName[:len(typeName)-1], alias
	}
	if scalar != "f32" && scalar != "i32" && scalar != "u32" {
		return wgslTypeLayout{}, false
	}

	switch {
	case len(shape) == 4 && strings.HasPrefix(shape, "vec"):
		n, err := strconv.ParseUint(shape[3:], 10, 64)
		if err != nil || n < 2 || n > 4 {
			return wgslTypeLayout{}, false
		}
		return vectorLayout(n), true
	case len(shape) == 6 && strings.HasPrefix(shape, "mat") && shape[4] == 'x' && scalar == "f32":
		cols, err1 := strconv.ParseUint(shape[3:4], 10, 64)
		rows, err2 := strconv.ParseUint(shape[5:], 10, 64)
		if err1 != nil || err2 != nil || cols < 2 || cols > 4 || rows < 2 || rows > 4 {
			return wgslTypeLayout{}, false
		}
		column := vectorLayout(rows)
		return wgslTypeLayout{size: cols * roundUpAlign(column.align, column.size), align: column.align}, true
	}
	return wgslTypeLayout{}, false
}

// structResolver lays out the structs of one shader module on demand. A struct may hold
// members typed as other structs in any declaration order; recursive definitions never resolve.
type structResolver struct {
	parsed   map[string]parsedStruct
	resolved map[string]StructLayout
	visiting map[string]bool
}

func newStructResolver(structs []parsedStruct) *structResolver {
	r := &structResolver{
		parsed:   make(map[string]parsedStruct, len(structs)),
		resolved: make(map[string]StructLayout, len(structs)),
		visiting: make(map[string]bool),
	}
	for _, ps := range structs {
		r.parsed[ps.name] = ps
	}
	return r
}

// layoutOf resolves a member or binding type. Fixed-size arrays resolve to their full
// size; runtime-sized arrays resolve to one element stride, the smallest useful binding.
//
// Parameters:
//   - typeName: the WGSL type, e.g. "f32", "StaticData", "array<vec2<f32>>"
//
// Returns:
//   - wgslTypeLayout: the resolved layout
//   - bool: false for unknown or recursive types
func (r *structResolver) layoutOf(typeName string) (wgslTypeLayout, bool) {
	if l, ok := primitiveLayout(typeName); ok {
		return l, true
	}
	if args, ok := genericArgs(typeName, "array"); ok {
		elem, ok := r.layoutOf(args[0])
		if !ok {
			return wgslTypeLayout{}, false
		}
		stride := roundUpAlign(elem.align, elem.size)
		switch len(args) {
		case 1:
			return wgslTypeLayout{size: stride, align: elem.align}, true
		case 2:
			count, err := strconv.ParseUint(args[1], 10, 64)
			if err != nil {
				return wgslTypeLayout{}, false
			}
			return wgslTypeLayout{size: count * stride, align: elem.align}, true
		}
		return wgslTypeLayout{}, false
	}
	s, ok := r.structLayout(typeName)
	return wgslTypeLayout{size: s.Size, align: s.Alignment}, ok
}

// structLayout places each member at the next offset aligned for its type. The struct
// aligns to its widest member and its size rounds up to that alignment. Builtin members
// do not occupy buffer memory.
func (r *structResolver) structLayout(name string) (StructLayout, bool) {
	if l, ok := r.resolved[name]; ok {
		return l, true
	}
	ps, ok := r.parsed[name]
	if !ok || r.visiting[name] {
		return StructLayout{}, false
	}
	r.visiting[name] = true
	defer delete(r.visiting, name)

	l := StructLayout{Alignment: 1}
	var end uint64
	for _, f := range ps.fields {
		if f.isBuiltin {
			continue
		}
		m, ok := r.layoutOf(f.typeName)
		if !ok {
			return StructLayout{}, false
		}
		offset := roundUpAlign(m.align, end)
		l.Members = append(l.Members, StructMember{Name: f.name, Type: f.typeName, Offset: offset, Size: m.size})
		end = offset + m.size
		l.Alignment = max(l.Alignment, m.align)
	}
	l.Size = roundUpAlign(l.Alignment, end)
	r.resolved[name] = l
	return l, true
}

// resolveAll lays out every struct that can be resolved, skipping the rest.
func (r *structResolver) resolveAll() map[string]StructLayout {
	for name := range r.parsed {
		r.structLayout(name)
	}
	return r.resolved
}

// stripComments blanks out line comments and nested block comments in a single pass.
// Newlines inside block comments are kept so the line structure survives.
func stripComments(source string) string {
	var sb strings.Builder
	sb.Grow(len(source))
	depth := 0
	for i := 0; i < len(source); i++ {
		rest := source[i:]
		switch {
		case strings.HasPrefix(rest, "/*"):
			depth++
			i++
		case depth > 0 && strings.HasPrefix(rest, "*/"):
			depth--
			i++
		case depth > 0:
			if source[i] == '\n' {
				sb.WriteByte('\n')
			}
		case strings.HasPrefix(rest, "//"):
			eol := strings.IndexByte(rest, '\n')
			if eol < 0 {
				return sb.String()
			}
			i += eol - 1
		default:
			sb.WriteByte(source[i])
		}
	}
	return sb.String()
}

// splitAtTopLevelCommas splits s at commas outside angle brackets, so array<T, N> stays whole.
func splitAtTopLevelCommas(s string) []string {
	var parts []string
	depth, start := 0, 0
	for i, c := range []byte(s) {
		switch {
		case c == '<':
			depth++
		case c == '>' && depth > 0:
			depth--
		case c == ',' && depth == 0:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}
