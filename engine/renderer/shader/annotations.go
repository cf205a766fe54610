// annotations.go defines the annotation types, arguments, and parser for the WGSL
// pre-processor. Annotations are single-line WGSL comments prefixed with @oxy: that
// inject struct definitions generated from the host layout schemas and declare the
// bindings that use them, so the shader and the packer read one source of truth.
package shader

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// annotationPrefix is the marker that identifies an annotation within a WGSL comment line.
// Every annotation must appear on a line beginning with "//" followed by this prefix.
const annotationPrefix = "@oxy:"

// AnnotationType identifies the kind of annotation parsed from a WGSL comment line.
type AnnotationType string

const (
	// AnnotationTypeInclude injects the WGSL struct generated from a registered layout schema
	// at the annotation site. It produces no declaration.
	//
	// Syntax: //@oxy:include <struct_type>
	//
	// Example: //@oxy:include static_data
	AnnotationTypeInclude AnnotationType = "include"

	// AnnotationTypeBindingGroup generates a WGSL @group/@binding variable declaration
	// and appends an Annotation to the PreProcessor's declarations list.
	//
	// Syntax: //@oxy:group <group> <binding> <address_space> <var_name> <type>
	//
	// Example: //@oxy:group 0 1 storage_read dynamic_data array<dynamic_data>
	AnnotationTypeBindingGroup AnnotationType = "group"
)

// Annotation represents a single parsed annotation from a WGSL shader source line.
type Annotation struct {
	// Type identifies which annotation was parsed.
	Type AnnotationType

	// Args holds the annotation's arguments. The contents depend on Type:
	//   - include: [0] = struct type key (e.g. "static_data")
	//   - group:   [0] = address space, [1] = var name, [2] = type key, optionally wrapped in array<>
	Args []AnnotationArg

	// Line is the 1-based source line of the annotation.
	Line int

	// Group is the @group index for group annotations. Nil for include annotations.
	Group *int

	// Binding is the @binding index for group annotations. Nil for include annotations.
	Binding *int
}

// AnnotationArg is a typed string used as an argument in annotations.
type AnnotationArg string

// ── Struct type arguments ──────────────────────────────────────────────────────

const (
	// AnnotationArgStaticData identifies the StaticData struct, generated from the per-object static schema.
	AnnotationArgStaticData AnnotationArg = "static_data"

	// AnnotationArgDynamicData identifies the DynamicData struct, generated from the per-object dynamic schema.
	AnnotationArgDynamicData AnnotationArg = "dynamic_data"

	// AnnotationArgPosition identifies a ring vertex position. It is a plain vector with no struct
	// to include, valid only as a group type.
	AnnotationArgPosition AnnotationArg = "position"
)

// ── Address space arguments ────────────────────────────────────────────────────

const (
	annotationArgAddressUniform     AnnotationArg = "uniform"
	annotationArgAddressStorageRead AnnotationArg = "storage_read"
)

var validStructTypes = []AnnotationArg{
	AnnotationArgStaticData,
	AnnotationArgDynamicData,
	AnnotationArgPosition,
}

var validAddressSpaces = []AnnotationArg{
	annotationArgAddressUniform,
	annotationArgAddressStorageRead,
}

// parseAnnotation attempts to parse a single line of WGSL source as an annotation.
// Returns nil with no error for lines that are not annotations.
//
// Parameters:
//   - line: the raw WGSL source line to parse
//   - lineNum: the 1-based line number for error reporting
//
// Returns:
//   - *Annotation: the parsed annotation, or nil if the line is not an annotation
//   - error: a descriptive error if the annotation is malformed
func parseAnnotation(line string, lineNum int) (*Annotation, error) {
	trimmed := strings.TrimSpace(line)
	after, ok := strings.CutPrefix(trimmed, "//"+annotationPrefix)
	if !ok {
		return nil, nil
	}

	args := strings.Fields(after)
	if len(args) == 0 {
		return nil, fmt.Errorf("line %d: empty @oxy annotation", lineNum)
	}

	switch AnnotationType(args[0]) {
	case AnnotationTypeInclude:
		if len(args) != 2 {
			return nil, fmt.Errorf("line %d: @oxy include annotation requires exactly one argument", lineNum)
		}
		if !slices.Contains(validStructTypes, AnnotationArg(args[1])) {
			return nil, fmt.Errorf("line %d: unknown struct type %q in @oxy include annotation", lineNum, args[1])
		}
		return &Annotation{
			Type: AnnotationTypeInclude,
			Args: []AnnotationArg{AnnotationArg(args[1])},
			Line: lineNum,
		}, nil
	case AnnotationTypeBindingGroup:
		if len(args) != 6 {
			return nil, fmt.Errorf("line %d: @oxy group annotation requires five arguments (group, binding, address space, var name, type)", lineNum)
		}
		group, err := strconv.Atoi(args[1])
		if err != nil || group < 0 {
			return nil, fmt.Errorf("line %d: invalid group number %q in @oxy group annotation", lineNum, args[1])
		}
		binding, err := strconv.Atoi(args[2])
		if err != nil || binding < 0 {
			return nil, fmt.Errorf("line %d: invalid binding number %q in @oxy group annotation", lineNum, args[2])
		}
		if !slices.Contains(validAddressSpaces, AnnotationArg(args[3])) {
			return nil, fmt.Errorf("line %d: unknown address space %q in @oxy group annotation", lineNum, args[3])
		}
		elem, isArray := arrayElement(args[5])
		if !slices.Contains(validStructTypes, AnnotationArg(elem)) {
			return nil, fmt.Errorf("line %d: unknown type %q in @oxy group annotation", lineNum, args[5])
		}
		if isArray && AnnotationArg(args[3]) == annotationArgAddressUniform {
			return nil, fmt.Errorf("line %d: runtime-sized array %q cannot live in the uniform address space", lineNum, args[5])
		}
		return &Annotation{
			Type:    AnnotationTypeBindingGroup,
			Args:    []AnnotationArg{AnnotationArg(args[3]), AnnotationArg(args[4]), AnnotationArg(args[5])},
			Line:    lineNum,
			Group:   &group,
			Binding: &binding,
		}, nil
	default:
		return nil, fmt.Errorf("line %d: unknown @oxy annotation type %q", lineNum, args[0])
	}
}

// arrayElement unwraps "array<T>" to T.
func arrayElement(typeArg string) (string, bool) {
	inner, ok := strings.CutPrefix(typeArg, "array<")
	if !ok {
		return typeArg, false
	}
	return strings.TrimSuffix(inner, ">"), true
}
