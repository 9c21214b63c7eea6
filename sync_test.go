package traceview

import "testing"

func TestSyncOptionsApply(t *testing.T) {
	src := NewCamera()
	src.Shift = Vec2{X: FixedFromInt(100), Y: FixedFromInt(200)}
	src.Scale = Vec2{X: FixedFromInt(300), Y: FixedFromInt(400)}

	tests := []struct {
		name string
		opts SyncOptions
		want func(c Camera) bool
	}{
		{
			name: "all",
			opts: NewSyncOptions(),
			want: func(c Camera) bool { return c.Shift == src.Shift && c.Scale == src.Scale },
		},
		{
			name: "none",
			opts: SyncOptions{},
			want: func(c Camera) bool { return c == NewCamera() },
		},
		{
			name: "horizontal only",
			opts: SyncOptions{ShiftX: true, ScaleX: true},
			want: func(c Camera) bool {
				return c.Shift.X == src.Shift.X && c.Scale.X == src.Scale.X &&
					c.Shift.Y == NewCamera().Shift.Y && c.Scale.Y == NewCamera().Scale.Y
			},
		},
		{
			name: "shift y only",
			opts: SyncOptions{ShiftY: true},
			want: func(c Camera) bool {
				return c.Shift.Y == src.Shift.Y && c.Shift.X == NewCamera().Shift.X
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := NewCamera()
			tt.opts.Apply(src, &dst)
			if !tt.want(dst) {
				t.Errorf("Apply(%+v) produced %+v", tt.opts, dst)
			}
		})
	}
}

func TestSyncOptionsAny(t *testing.T) {
	if (SyncOptions{}).Any() {
		t.Error("empty options report Any")
	}
	if !(SyncOptions{ScaleY: true}).Any() {
		t.Error("single enabled setting not reported by Any")
	}
	if !NewSyncOptions().Any() {
		t.Error("full options not reported by Any")
	}
}

func TestSyncOptionsSetAll(t *testing.T) {
	var o SyncOptions
	o.SetAll(true)
	if o != NewSyncOptions() {
		t.Errorf("SetAll(true) = %+v", o)
	}
	o.SetAll(false)
	if o.Any() {
		t.Errorf("SetAll(false) = %+v", o)
	}
}

func TestSyncOptionsNotAnd(t *testing.T) {
	o := SyncOptions{ShiftX: true, ScaleY: true}
	inv := o.Not()
	if inv != (SyncOptions{ShiftY: true, ScaleX: true}) {
		t.Errorf("Not() = %+v", inv)
	}
	if o.And(inv) != (SyncOptions{}) {
		t.Error("options And their inverse must be empty")
	}
	if o.And(NewSyncOptions()) != o {
		t.Error("And with the full set must be identity")
	}
}
