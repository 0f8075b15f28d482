// Package zappaierr holds the sentinel error kinds shared across the module so
// callers can use errors.Is regardless of which package originates the failure.
package zappaierr

import "errors"

var (
	ErrLocationNotFound               = errors.New("location not found")
	ErrCropNotFound                   = errors.New("crop not found")
	ErrPastClimateDataNotFound        = errors.New("past climate data not found")
	ErrCropYieldDataNotFound          = errors.New("crop yield data not found")
	ErrClimateGenerativeModelNotFound = errors.New("climate generative model not found")
	ErrCropYieldModelNotFound         = errors.New("crop yield model not found")
	ErrInsufficientHistory            = errors.New("insufficient past history for rollout")
	ErrNonSequentialSeed              = errors.New("projection does not start the month after the seed")
	ErrInvalidWindow                  = errors.New("sowing/harvest window is invalid")
	ErrDownloadFailed                 = errors.New("climate data download failed")
)
