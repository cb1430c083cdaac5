package binding

// monotonicClock is the seam clock_*.go implementations satisfy, used to
// seed build_id.lo (spec section 4.1). Now returns nanoseconds (or an
// equivalent monotonically increasing count) since an arbitrary epoch;
// only strictly increasing-ish behavior matters, not wall-clock meaning.
type monotonicClock interface {
	Now() uint64
}
