package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSphericalDistanceKmZero(t *testing.T) {
	d := sphericalDistanceKm(16.678341, 40.212971, 16.678341, 40.212971)
	assert.InDelta(t, 0.0, d, 1e-9)
}

func TestSphericalDistanceKmOrdering(t *testing.T) {
	probeLon, probeLat := 16.678341, 40.212971
	near := sphericalDistanceKm(probeLon, probeLat, 16.7, 40.25)
	far := sphericalDistanceKm(probeLon, probeLat, -70.0, 40.25)
	assert.Less(t, near, far)
}

func TestSphericalDistanceKmSymmetric(t *testing.T) {
	a := sphericalDistanceKm(10, 20, 30, 40)
	b := sphericalDistanceKm(30, 40, 10, 20)
	assert.InDelta(t, a, b, 1e-9)
}
