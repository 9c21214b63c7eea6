package traceview

// SyncOptions selects which camera settings are shared between viewers
// displaying different traces. The pane layout and event routing stay
// with the caller; SyncOptions is only the copy policy.
type SyncOptions struct {
	ShiftX bool
	ShiftY bool
	ScaleX bool
	ScaleY bool
}

// NewSyncOptions returns options with every setting enabled.
func NewSyncOptions() SyncOptions {
	return SyncOptions{ShiftX: true, ShiftY: true, ScaleX: true, ScaleY: true}
}

// Any reports whether at least one setting is enabled.
func (o SyncOptions) Any() bool {
	return o.ShiftX || o.ShiftY || o.ScaleX || o.ScaleY
}

// SetAll enables or disables every setting.
func (o *SyncOptions) SetAll(value bool) {
	o.ShiftX = value
	o.ShiftY = value
	o.ScaleX = value
	o.ScaleY = value
}

// Not returns the options with every setting inverted.
func (o SyncOptions) Not() SyncOptions {
	return SyncOptions{
		ShiftX: !o.ShiftX,
		ShiftY: !o.ShiftY,
		ScaleX: !o.ScaleX,
		ScaleY: !o.ScaleY,
	}
}

// And returns the settings enabled in both option sets.
func (o SyncOptions) And(rhs SyncOptions) SyncOptions {
	return SyncOptions{
		ShiftX: o.ShiftX && rhs.ShiftX,
		ShiftY: o.ShiftY && rhs.ShiftY,
		ScaleX: o.ScaleX && rhs.ScaleX,
		ScaleY: o.ScaleY && rhs.ScaleY,
	}
}

// Apply copies the enabled settings from src into dst. Disabled
// settings in dst are left untouched.
func (o SyncOptions) Apply(src Camera, dst *Camera) {
	if o.ShiftX {
		dst.Shift.X = src.Shift.X
	}
	if o.ShiftY {
		dst.Shift.Y = src.Shift.Y
	}
	if o.ScaleX {
		dst.Scale.X = src.Scale.X
	}
	if o.ScaleY {
		dst.Scale.Y = src.Scale.Y
	}
}
