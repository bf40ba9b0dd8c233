package sim

// Clock tracks discrete simulation time. Ticks are the atomic unit; a day is
// a fixed number of ticks. The orchestrator advances the clock exactly once
// per Tick call.
type Clock struct {
	tick        int64
	ticksPerDay int64
}

// NewClock creates a Clock positioned before the first tick.
func NewClock(ticksPerDay int64) *Clock {
	if ticksPerDay <= 0 {
		panic("NewClock: ticksPerDay must be positive")
	}
	return &Clock{tick: -1, ticksPerDay: ticksPerDay}
}

// Advance moves the clock forward one tick and returns the new current tick.
func (c *Clock) Advance() int64 {
	c.tick++
	return c.tick
}

// CurrentTick returns the tick currently being (or last) executed.
// Returns -1 before the first Advance.
func (c *Clock) CurrentTick() int64 {
	return c.tick
}

// CurrentDay returns the zero-based day index of the current tick.
func (c *Clock) CurrentDay() int64 {
	if c.tick < 0 {
		return 0
	}
	return c.tick / c.ticksPerDay
}

// TickOfDay returns the position of the current tick within its day,
// in [0, ticksPerDay).
func (c *Clock) TickOfDay() int64 {
	if c.tick < 0 {
		return 0
	}
	return c.tick % c.ticksPerDay
}

// IsEndOfDay reports whether the current tick is the last tick of its day.
// End-of-day triggers forced settlement and daily metric finalization.
func (c *Clock) IsEndOfDay() bool {
	return c.tick >= 0 && c.TickOfDay() == c.ticksPerDay-1
}

// TicksPerDay returns the configured day length.
func (c *Clock) TicksPerDay() int64 {
	return c.ticksPerDay
}

// DayOf returns the day index a given tick belongs to.
func (c *Clock) DayOf(tick int64) int64 {
	if tick < 0 {
		return 0
	}
	return tick / c.ticksPerDay
}
