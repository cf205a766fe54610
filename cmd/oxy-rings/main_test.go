package main

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-rings/common"
	"github.com/Carmen-Shannon/oxy-rings/config"
	"github.com/Carmen-Shannon/oxy-rings/engine/program"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	opts, err := parseFlags([]string{"-program", "uniforms", "-objects", "12", "-debug"})
	require.NoError(t, err)
	assert.Equal(t, options{program: "uniforms", objects: 12, debug: true}, opts)

	_, err = parseFlags([]string{"stray"})
	assert.ErrorIs(t, err, common.ErrConfiguration)

	_, err = parseFlags([]string{"-nope"})
	assert.Error(t, err)
}

func TestLoadConfig_FlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("program: storage\nobjects: 40\nseed: 9\n"), 0o644))

	cfg, err := loadConfig(options{configPath: path, program: program.VertexColors})
	require.NoError(t, err)
	assert.Equal(t, program.VertexColors, cfg.Program)
	assert.Equal(t, 40, cfg.Objects)
	assert.Equal(t, uint64(9), cfg.Seed)

	_, err = loadConfig(options{program: "teapot"})
	assert.ErrorIs(t, err, common.ErrConfiguration)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitCapability, exitCode(fmt.Errorf("%w: no adapter", common.ErrCapabilityUnavailable)))
	assert.Equal(t, exitConfiguration, exitCode(fmt.Errorf("%w: bad", common.ErrInvalidParameter)))
	assert.Equal(t, exitRuntime, exitCode(fmt.Errorf("%w: lost", common.ErrTransientGPU)))
}

func TestBuildSceneData(t *testing.T) {
	cfg := config.Default()
	cfg.Seed = 3

	for _, name := range program.Names() {
		t.Run(name, func(t *testing.T) {
			prog, err := program.Lookup(name)
			require.NoError(t, err)

			pool, ring, err := buildSceneData(cfg, prog)
			require.NoError(t, err)
			if prog.UsesPool() {
				require.NotNil(t, pool)
				assert.Equal(t, cfg.Objects, pool.Count())
			} else {
				assert.Nil(t, pool)
			}
			if prog.UsesMesh() {
				assert.Equal(t, 6*cfg.Ring.Subdivisions, ring.DrawCount())
			} else {
				assert.Zero(t, ring.VertexCount())
			}
		})
	}
}
