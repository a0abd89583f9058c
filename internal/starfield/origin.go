package starfield

// OriginTracker reports the live center of the tracked element in logical
// units. ok is false when there is no element to track. It is polled once
// per frame with the field locked, so it must not call back into the field.
type OriginTracker interface {
	Origin() (x, y float64, ok bool)
}

// OriginFunc adapts a plain function to OriginTracker.
type OriginFunc func() (x, y float64, ok bool)

// Origin calls f.
func (f OriginFunc) Origin() (x, y float64, ok bool) {
	return f()
}

// origin resolves the emission point for the current frame.
func (f *Field) origin() (x, y float64) {
	if f.cfg.OriginMode == OriginTrack && f.tracker != nil {
		if x, y, ok := f.tracker.Origin(); ok && isFinite(x) && isFinite(y) {
			return x, y
		}
	}

	x, y = float64(f.width)/2, float64(f.height)/2
	if f.cfg.OriginX != nil {
		x = *f.cfg.OriginX
	}
	if f.cfg.OriginY != nil {
		y = *f.cfg.OriginY
	}
	return x, y
}
