package shader

import (
	"cmp"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/oxy-rings/common"
	"github.com/cogentcore/webgpu/wgpu"
)

var (
	// structBlockRegex captures the name and body of a struct declaration
	structBlockRegex = regexp.MustCompile(`struct\s+(\w+)\s*\{([^}]*)\}`)

	// memberRegex captures the leading attributes, name and type of one struct member.
	// The type is greedy so array<T, N> survives.
	memberRegex = regexp.MustCompile(`^((?:@\w+(?:\([^)]*\))?\s*)*)(\w+)\s*:\s*(.+)$`)

	// locationRegex captures the index of @location(N)
	locationRegex = regexp.MustCompile(`@location\(\s*(\d+)\s*\)`)

	// entryPointRegex captures the function name following each stage attribute
	entryPointRegex = map[wgpu.ShaderStage]*regexp.Regexp{
		wgpu.ShaderStageVertex:   regexp.MustCompile(`(?s)@vertex\b.*?\bfn\s+(\w+)`),
		wgpu.ShaderStageFragment: regexp.MustCompile(`(?s)@fragment\b.*?\bfn\s+(\w+)`),
	}

	// resourceRegex captures group, binding, address space, name and store type of a module-scope var,
	// e.g. @group(0) @binding(0) var<storage, read> static_data: array<StaticData>;
	resourceRegex = regexp.MustCompile(`@group\((\d+)\)\s*@binding\((\d+)\)\s*var(?:<([^>]*)>)?\s+(\w+)\s*:\s*([^;]+?)\s*;`)
)

// parseBindGroupLayouts reads every @group/@binding buffer declaration of source. Entries are
// visible to the vertex and fragment stages and sorted by binding within their group.
//
// Parameters:
//   - source: the WGSL source
//
// Returns:
//   - map[int]wgpu.BindGroupLayoutDescriptor: layouts keyed by group index
//   - []Binding: the declarations in source order
//   - error: ErrConfiguration for textures, samplers and read_write storage
func parseBindGroupLayouts(source string) (map[int]wgpu.BindGroupLayoutDescriptor, []Binding, error) {
	cleaned := stripComments(source)
	structs := newStructResolver(parseStructBlocks(cleaned))

	var bindings []Binding
	entries := make(map[int][]wgpu.BindGroupLayoutEntry)
	for _, m := range resourceRegex.FindAllStringSubmatch(cleaned, -1) {
		b := Binding{Name: m[4], Type: strings.TrimSpace(m[5])}
		b.Group, _ = strconv.Atoi(m[1])
		b.Binding, _ = strconv.Atoi(m[2])
		b.RuntimeSized = isRuntimeArray(b.Type)

		bufferType, err := bufferBindingType(strings.TrimSpace(m[3]))
		if err != nil {
			return nil, nil, fmt.Errorf("binding %q (%s): %w", b.Name, b.Type, err)
		}
		entry := wgpu.BindGroupLayoutEntry{
			Binding:    uint32(b.Binding),
			Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
			Buffer:     wgpu.BufferBindingLayout{Type: bufferType},
		}
		if l, ok := structs.layoutOf(b.Type); ok {
			entry.Buffer.MinBindingSize = l.size
			b.ElementSize = l.size
		}

		entries[b.Group] = append(entries[b.Group], entry)
		bindings = append(bindings, b)
	}

	layouts := make(map[int]wgpu.BindGroupLayoutDescriptor, len(entries))
	for g, e := range entries {
		slices.SortFunc(e, func(a, b wgpu.BindGroupLayoutEntry) int {
			return cmp.Compare(a.Binding, b.Binding)
		})
		layouts[g] = wgpu.BindGroupLayoutDescriptor{Entries: e}
	}
	return layouts, bindings, nil
}

// bufferBindingType maps a var address space to its buffer binding type. Vertex stages may not
// write storage, so only read-only storage is accepted.
func bufferBindingType(addressSpace string) (t wgpu.BufferBindingType, err error) {
	switch addressSpace {
	case "uniform":
		return wgpu.BufferBindingTypeUniform, nil
	case "storage", "storage, read", "storage,read":
		return wgpu.BufferBindingTypeReadOnlyStorage, nil
	case "":
		return t, fmt.Errorf("%w: texture and sampler bindings are not supported", common.ErrConfiguration)
	}
	if strings.HasPrefix(addressSpace, "storage") {
		return t, fmt.Errorf("%w: %s storage is not supported", common.ErrConfiguration, addressSpace)
	}
	return t, fmt.Errorf("%w: unsupported address space %q", common.ErrConfiguration, addressSpace)
}

// parseEntryPoint returns the name of the first function of the given stage, or "".
func parseEntryPoint(source string, stage wgpu.ShaderStage) string {
	re, ok := entryPointRegex[stage]
	if !ok {
		return ""
	}
	if m := re.FindStringSubmatch(stripComments(source)); m != nil {
		return m[1]
	}
	return ""
}

// parseVertexLocations returns the sorted @location indices of the vertex input structs of source.
// A struct counts as vertex input when it has location members and no builtin members, which
// leaves out the vertex output structs carrying @builtin(position).
func parseVertexLocations(source string) []int {
	var locations []int
	for _, ps := range parseStructBlocks(stripComments(source)) {
		if slices.ContainsFunc(ps.fields, func(f parsedField) bool { return f.isBuiltin }) {
			continue
		}
		for _, f := range ps.fields {
			if f.location >= 0 {
				locations = append(locations, f.location)
			}
		}
	}
	slices.Sort(locations)
	return locations
}

// parseStructBlocks parses every struct declaration of comment-free source.
func parseStructBlocks(source string) []parsedStruct {
	var structs []parsedStruct
	for _, m := range structBlockRegex.FindAllStringSubmatch(source, -1) {
		ps := parsedStruct{name: m[1]}
		for _, decl := range splitAtTopLevelCommas(m[2]) {
			if f, ok := parseMember(strings.TrimSpace(decl)); ok {
				ps.fields = append(ps.fields, f)
			}
		}
		structs = append(structs, ps)
	}
	return structs
}

// parseMember parses one member declaration such as "@location(0) pos: vec2<f32>".
func parseMember(decl string) (parsedField, bool) {
	m := memberRegex.FindStringSubmatch(decl)
	if m == nil {
		return parsedField{}, false
	}
	f := parsedField{
		name:      m[2],
		typeName:  strings.TrimSpace(m[3]),
		location:  -1,
		isBuiltin: strings.Contains(m[1], "@builtin"),
	}
	if loc := locationRegex.FindStringSubmatch(m[1]); loc != nil {
		f.location, _ = strconv.Atoi(loc[1])
	}
	return f, true
}
