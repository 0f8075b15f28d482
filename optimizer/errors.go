package optimizer

import "errors"

// ErrForecastTooShort is returned when the rollout horizon produced fewer
// than 2 forecast rows, leaving no sowing/harvest pair to search over.
var ErrForecastTooShort = errors.New("forecast horizon is too short to search")
