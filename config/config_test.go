package config

import (
	"go/build"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-rings/common"
	"github.com/Carmen-Shannon/oxy-rings/engine/program"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, program.Storage, cfg.Program)
	assert.Equal(t, 100, cfg.Objects)
	assert.Equal(t, float32(0.5), cfg.Ring.Radius)
	assert.Equal(t, float32(0.25), cfg.Ring.InnerRadius)
	assert.Equal(t, 24, cfg.Ring.Subdivisions)
	assert.True(t, cfg.RingIndexed())
}

func TestParse_MergesOverDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
program: vertex-buffers
objects: 250
seed: 42
ring:
  subdivisions: 64
  indexed: false
  gradient:
    outer: [1, 0.5, 0]
    inner: [0, 0, 0]
present_mode: uncapped
pack_workers: 4
msaa: 1
clear_color: [0, 0, 0, 1]
software_renderer: true
`))
	require.NoError(t, err)

	assert.Equal(t, program.VertexBuffers, cfg.Program)
	assert.Equal(t, 250, cfg.Objects)
	assert.Equal(t, uint64(42), cfg.Seed)
	assert.Equal(t, 64, cfg.Ring.Subdivisions)
	assert.False(t, cfg.RingIndexed())
	assert.Equal(t, common.RGB{1, 0.5, 0}, cfg.Ring.Gradient.Outer)
	assert.Equal(t, 4, cfg.PackWorkers)
	assert.Equal(t, uint32(common.MSAAOff), cfg.MSAA)
	assert.Equal(t, common.Color{0, 0, 0, 1}, cfg.ClearColor)
	assert.True(t, cfg.Software)

	// untouched keys keep their defaults
	assert.Equal(t, float32(0.5), cfg.Ring.Radius)
	assert.Equal(t, 1280, cfg.Window.Width)

	mode, err := cfg.Present()
	require.NoError(t, err)
	assert.Equal(t, common.PresentModeUncapped, mode)
}

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default().Objects, cfg.Objects)
}

func TestParse_Rejects(t *testing.T) {
	cases := map[string]string{
		"unknown program":       "program: teapot",
		"zero objects":          "objects: 0",
		"zero subdivisions":     "ring: {subdivisions: 0}",
		"inner beyond outer":    "ring: {radius: 0.2, inner_radius: 0.3}",
		"gradient out of range": "ring: {gradient: {outer: [2, 0, 0]}}",
		"window size":           "window: {width: 0}",
		"present mode":          "present_mode: mailbox",
		"msaa":                  "msaa: 8",
		"clear color":           "clear_color: [0, 0, 0, 2]",
		"negative workers":      "pack_workers: -1",
		"negative frame limit":  "frame_limit: -30",
		"unknown key":           "objetcs: 10",
		"malformed":             "objects: [",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.ErrorIs(t, err, common.ErrConfiguration)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("program: uniforms\nobjects: 7\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, program.Uniforms, cfg.Program)
	assert.Equal(t, 7, cfg.Objects)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, common.ErrConfiguration)
}

func TestParseFormat_TOML(t *testing.T) {
	cfg, err := ParseFormat([]byte(`
program = "vertex-colors"
objects = 30
present_mode = "uncapped"

[ring]
inner_radius = 0.1
indexed = false

[ring.gradient]
outer = [1.0, 0.0, 0.0]
`), FormatTOML)
	require.NoError(t, err)
	assert.Equal(t, program.VertexColors, cfg.Program)
	assert.Equal(t, 30, cfg.Objects)
	assert.Equal(t, float32(0.1), cfg.Ring.InnerRadius)
	assert.False(t, cfg.RingIndexed())
	assert.Equal(t, common.RGB{1, 0, 0}, cfg.Ring.Gradient.Outer)
	assert.Equal(t, Default().Ring.Gradient.Inner, cfg.Ring.Gradient.Inner)

	_, err = ParseFormat([]byte("objetcs = 3"), FormatTOML)
	assert.ErrorIs(t, err, common.ErrConfiguration)
}

func TestLoad_TOMLByExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rings.toml")
	require.NoError(t, os.WriteFile(path, []byte("program = \"triangle\"\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, program.Triangle, cfg.Program)
}

// The config package is loaded before any window exists, so nothing it imports may reach the
// window or renderer packages and their cgo GLFW dependency.
func TestImports_StayOffTheWindowStack(t *testing.T) {
	const module = "github.com/Carmen-Shannon/oxy-rings/"
	forbidden := []string{
		module + "engine/window",
		module + "engine/renderer",
		"github.com/go-gl/glfw/v3.3/glfw",
		"github.com/cogentcore/webgpu/wgpuglfw",
	}

	seen := map[string]bool{}
	var walk func(dir string)
	walk = func(dir string) {
		pkg, err := build.ImportDir(dir, 0)
		require.NoError(t, err)
		for _, imp := range pkg.Imports {
			assert.NotContains(t, forbidden, imp, "imported by %s", dir)
			rel, ok := strings.CutPrefix(imp, module)
			if ok && !seen[rel] {
				seen[rel] = true
				walk(filepath.Join("..", filepath.FromSlash(rel)))
			}
		}
	}
	walk(".")
	assert.True(t, seen["common"])
}
