package shader

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-rings/common"
	"github.com/gogpu/naga"
)

// IsCompilerLimitation reports whether a compile error comes from a WGSL feature the
// pure-Go compiler does not implement yet, rather than from the shader itself.
//
// Parameters:
//   - err: an error returned by Compile or Validate
//
// Returns:
//   - bool: true for known compiler limitations
func IsCompilerLimitation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "not yet implemented") || strings.Contains(msg, "not supported")
}

// Compile translates the shader's WGSL to SPIR-V with naga.
//
// Parameters:
//   - s: the shader
//
// Returns:
//   - []byte: the SPIR-V words, little-endian
//   - error: ErrConfiguration wrapping the compiler error
func Compile(s Shader) ([]byte, error) {
	spirv, err := naga.Compile(s.Source())
	if err != nil {
		return nil, fmt.Errorf("%w: shader %s: %w", common.ErrConfiguration, s.Key(), err)
	}
	return spirv, nil
}

// Validate pre-flights a shader through naga before the GPU driver sees it, so WGSL mistakes
// surface as configuration errors at startup. Known compiler limitations are logged and skipped.
//
// Parameters:
//   - s: the shader
//
// Returns:
//   - error: ErrConfiguration if the shader does not compile
func Validate(s Shader) error {
	_, err := Compile(s)
	if IsCompilerLimitation(err) {
		common.Logger().Warn("shader pre-flight skipped", "shader", s.Key(), "reason", err)
		return nil
	}
	return err
}
