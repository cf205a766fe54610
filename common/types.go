// package common contains plain types and helpers shared throughout the engine. They are not interface-wrapped structs,
// just plain structs that express commonly used data.
package common

// Color is an RGBA color with channels in [0, 1].
type Color [4]float32

// RGB is an RGB color with channels in [0, 1], used for per-vertex color.
type RGB [3]float32

// Vec2 is a 2D vector in normalized device coordinates.
type Vec2 [2]float32

// White is the default per-vertex color when no gradient is requested.
var White = RGB{1, 1, 1}

// ClearColor is the background color of the main render pass.
var ClearColor = Color{0.3, 0.3, 0.3, 1}
