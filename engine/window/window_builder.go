package window

// WindowBuilderOption configures a window before NewWindow opens it.
type WindowBuilderOption func(w *engineWindow)

// WithTitle sets the title bar text.
func WithTitle(title string) WindowBuilderOption {
	return func(w *engineWindow) {
		w.title = title
	}
}

// WithSize requests an initial size in screen coordinates. A non-positive dimension keeps
// its default.
//
// Parameters:
//   - width: requested width
//   - height: requested height
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithSize(width, height int) WindowBuilderOption {
	return func(w *engineWindow) {
		if width > 0 {
			w.width = width
		}
		if height > 0 {
			w.height = height
		}
	}
}

// WithSizeLimits bounds interactive resizing. The limits are ignored unless
// 0 < min <= max holds for both dimensions.
//
// Parameters:
//   - minWidth, minHeight: the smallest allowed size
//   - maxWidth, maxHeight: the largest allowed size
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithSizeLimits(minWidth, minHeight, maxWidth, maxHeight int) WindowBuilderOption {
	return func(w *engineWindow) {
		if minWidth <= 0 || minHeight <= 0 || minWidth > maxWidth || minHeight > maxHeight {
			return
		}
		w.minWidth, w.minHeight = minWidth, minHeight
		w.maxWidth, w.maxHeight = maxWidth, maxHeight
	}
}
