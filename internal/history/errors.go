package history

import "errors"

var (
	errTooFewFields = errors.New("too few fields")
	errBadDatetime  = errors.New("unparseable datetime")
	errBadLat       = errors.New("unparseable or out-of-range latitude")
	errBadLon       = errors.New("unparseable or out-of-range longitude")
	errBadPressure  = errors.New("unparseable pressure")
	errBadIntensity = errors.New("unparseable intensity")
	errOutOfRange   = errors.New("advisory fails range invariants")
)
