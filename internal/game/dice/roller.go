package dice

import "go.uber.org/zap"

// Roller wraps a Source and logs every draw at debug level.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller drawing from src and logging to logger.
//
// Precondition: src and logger must be non-nil.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	return &Roller{src: src, logger: logger}
}

// Range draws a uniform int in [min, max] and logs it under purpose.
//
// Postcondition: min <= result <= max, or result == min when max <= min.
func (r *Roller) Range(purpose string, min, max int) int {
	v := Range(r.src, min, max)
	r.logger.Debug("random range",
		zap.String("purpose", purpose),
		zap.Int("min", min),
		zap.Int("max", max),
		zap.Int("result", v),
	)
	return v
}

// Intn draws a uniform int in [0, n) without logging. Used on hot paths such
// as drunk-walk direction picks.
//
// Precondition: n > 0.
func (r *Roller) Intn(n int) int {
	return r.src.Intn(n)
}
