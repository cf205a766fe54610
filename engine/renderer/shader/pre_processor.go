// pre_processor.go implements the WGSL pre-processor. It scans shader source for @oxy:
// annotations, replaces them with struct definitions generated from the layout schemas or
// with @group/@binding declarations, and collects the declarations it emitted.
package shader

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/Carmen-Shannon/oxy-rings/common"
	"github.com/Carmen-Shannon/oxy-rings/engine/renderer/layout"
)

// registryEntry pairs a generated WGSL struct source with the WGSL type name used in declarations.
type registryEntry struct {
	// Source is the WGSL struct definition injected by @oxy:include. Empty for plain types.
	Source string

	// Type is the WGSL type name emitted in @oxy:group declarations (e.g. "StaticData").
	Type string
}

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	structRegistry       map[AnnotationArg]registryEntry
	addressSpaceRegistry map[AnnotationArg]string

	// declarations accumulates group annotations during a Process call.
	declarations []Annotation
}

// PreProcessor expands @oxy: annotations in WGSL source.
type PreProcessor interface {
	// Process replaces include annotations with generated struct source and group annotations
	// with @group/@binding declarations. Other lines pass through unchanged.
	// The declarations list is reset at the start of each call.
	//
	// Parameters:
	//   - source: the raw WGSL source
	//
	// Returns:
	//   - string: the processed WGSL source
	//   - error: ErrConfiguration if an annotation is malformed or references an unknown type
	Process(source string) (string, error)

	// Declarations returns the group annotations of the most recent Process call in source order.
	//
	// Returns:
	//   - []Annotation: the declarations
	Declarations() []Annotation
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a PreProcessor whose struct registry is generated from the preset
// per-object schemas. Uniform and storage programs share the static layout, so one struct serves both.
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor
//   - error: ErrConfiguration if a preset schema has no WGSL struct equivalent
func NewPreProcessor() (PreProcessor, error) {
	staticSource, err := StructSource("StaticData", layout.UniformStaticSchema)
	if err != nil {
		return nil, err
	}
	dynamicSource, err := StructSource("DynamicData", layout.DynamicScaleSchema)
	if err != nil {
		return nil, err
	}
	return &preProcessor{
		structRegistry: map[AnnotationArg]registryEntry{
			AnnotationArgStaticData:  {Source: staticSource, Type: "StaticData"},
			AnnotationArgDynamicData: {Source: dynamicSource, Type: "DynamicData"},
			AnnotationArgPosition:    {Type: "vec2<f32>"},
		},
		addressSpaceRegistry: map[AnnotationArg]string{
			annotationArgAddressUniform:     "var<uniform>",
			annotationArgAddressStorageRead: "var<storage, read>",
		},
	}, nil
}

func (p *preProcessor) Process(source string) (string, error) {
	p.declarations = p.declarations[:0]

	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))

	for i, line := range lines {
		a, err := parseAnnotation(line, i+1)
		if err != nil {
			return "", fmt.Errorf("%w: %w", common.ErrConfiguration, err)
		}
		if a == nil {
			out = append(out, line)
			continue
		}

		switch a.Type {
		case AnnotationTypeInclude:
			entry := p.structRegistry[a.Args[0]]
			if entry.Source == "" {
				return "", fmt.Errorf("%w: line %d: %q has no struct to include", common.ErrConfiguration, i+1, a.Args[0])
			}
			out = append(out, entry.Source)
		case AnnotationTypeBindingGroup:
			wgslType := p.structRegistry[a.Args[2]].Type
			if elem, ok := arrayElement(string(a.Args[2])); ok {
				wgslType = fmt.Sprintf("array<%s>", p.structRegistry[AnnotationArg(elem)].Type)
			}
			out = append(out, fmt.Sprintf("@group(%d) @binding(%d) %s %s: %s;",
				*a.Group, *a.Binding, p.addressSpaceRegistry[a.Args[0]], a.Args[1], wgslType))
			p.declarations = append(p.declarations, *a)
		}
	}
	return strings.Join(out, "\n"), nil
}

func (p *preProcessor) Declarations() []Annotation {
	return p.declarations
}

// StructSource renders a layout schema as a host-shareable WGSL struct. Every field offset must equal
// the offset WGSL assigns to the member, and the struct size must equal the schema stride, so a buffer
// packed with the schema reads back correctly through the struct.
//
// Parameters:
//   - typeName: the WGSL struct name
//   - s: the schema
//
// Returns:
//   - string: the WGSL struct definition
//   - error: ErrConfiguration if a field has no WGSL type or the layouts disagree
func StructSource(typeName string, s layout.Schema) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "struct %s {\n", typeName)

	var end, structAlign uint64 = 0, 1
	fields := slices.SortedFunc(slices.Values(s.Fields()), func(a, b layout.Field) int {
		return cmp.Compare(a.Offset, b.Offset)
	})
	for _, f := range fields {
		wgslType, align, err := wgslMember(f.Encoding)
		if err != nil {
			return "", fmt.Errorf("%w: schema %s field %s: %w", common.ErrConfiguration, s.Name(), f.Name, err)
		}
		if offset := roundUpAlign(align, end); offset != f.Offset {
			return "", fmt.Errorf("%w: schema %s field %s is at offset %d, WGSL places it at %d",
				common.ErrConfiguration, s.Name(), f.Name, f.Offset, offset)
		}
		end = f.End()
		structAlign = max(structAlign, align)
		fmt.Fprintf(&b, "    %s: %s,\n", f.Name, wgslType)
	}
	b.WriteString("}")

	if size := roundUpAlign(structAlign, end); size != s.Stride() {
		return "", fmt.Errorf("%w: schema %s has stride %d, WGSL struct %s is %d bytes",
			common.ErrConfiguration, s.Name(), s.Stride(), typeName, size)
	}
	return b.String(), nil
}

// memberTypes names the WGSL member type of each encoding that host-shareable structs can hold.
var memberTypes = map[layout.Encoding]string{
	layout.Float32:   "f32",
	layout.Float32x2: "vec2<f32>",
	layout.Float32x3: "vec3<f32>",
	layout.Float32x4: "vec4<f32>",
}

// wgslMember maps an encoding to its WGSL member type and alignment.
func wgslMember(e layout.Encoding) (string, uint64, error) {
	name, ok := memberTypes[e]
	if !ok {
		return "", 0, fmt.Errorf("encoding %d has no uniform or storage member type", e)
	}
	l, _ := primitiveLayout(name)
	return name, l.align, nil
}
