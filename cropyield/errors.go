package cropyield

import "errors"

var (
	// ErrNoTrainableObservations is returned when every observation for a
	// crop/location pair was excluded (outliers, missing climate months)
	// before a single training row could be built.
	ErrNoTrainableObservations = errors.New("no observations survived outlier and completeness filtering")

	// ErrFeatureLenMismatch flags an inference row that does not match the
	// training feature schema.
	ErrFeatureLenMismatch = errors.New("feature row does not match the trained feature schema")
)
