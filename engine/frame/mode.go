package frame

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-rings/common"
)

// Mode selects how a Driver feeds per-object data to the GPU.
type Mode int

const (
	// ModeFixed draws a fixed vertex count once per frame with no buffers at all.
	ModeFixed Mode = iota

	// ModePerObjectUniform gives every object its own static and dynamic uniform buffer and
	// bind group, and issues one draw per object.
	ModePerObjectUniform

	// ModeStorage packs all objects into storage buffers read by instance index, together with
	// the mesh positions read by vertex index, and issues one instanced draw.
	ModeStorage

	// ModeVertexBuffers feeds the mesh through slot 0 and per-object data through per-instance
	// vertex buffers in slots 1 and 2, and issues one instanced draw.
	ModeVertexBuffers
)

var modeNames = map[Mode]string{
	ModeFixed:            "fixed",
	ModePerObjectUniform: "per-object-uniform",
	ModeStorage:          "storage",
	ModeVertexBuffers:    "vertex-buffers",
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode parses the name printed by Mode.String.
//
// Parameters:
//   - s: the mode name
//
// Returns:
//   - Mode: the mode
//   - error: ErrConfiguration for an unknown name
func ParseMode(s string) (Mode, error) {
	for m, name := range modeNames {
		if name == s {
			return m, nil
		}
	}
	return ModeFixed, fmt.Errorf("%w: unknown frame mode %q", common.ErrConfiguration, s)
}

// State is the frame state of a Driver.
type State int

const (
	// StateIdle is the state between frames.
	StateIdle State = iota
	// StateRendering is the state between BeginFrame and Present.
	StateRendering
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRendering:
		return "rendering"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}
