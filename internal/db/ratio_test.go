package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLikeRatio(t *testing.T) {
	assert.Equal(t, 0.0, LikeRatio(0, 0))
	assert.Equal(t, 100.0, LikeRatio(1, 0))
	assert.Equal(t, 0.0, LikeRatio(0, 4))
	assert.Equal(t, 66.7, LikeRatio(2, 1))
	assert.Equal(t, 33.3, LikeRatio(1, 2))
	assert.Equal(t, 50.0, LikeRatio(5, 5))
}

func TestGenderOpposite(t *testing.T) {
	assert.Equal(t, GenderWoman, GenderMan.Opposite())
	assert.Equal(t, GenderMan, GenderWoman.Opposite())
	assert.Equal(t, GenderUnset, GenderUnset.Opposite())
	assert.False(t, Gender("Other").Valid())
}

func TestNewProfile(t *testing.T) {
	man := NewProfile(7, GenderMan)
	_, ok := man.(*ManProfile)
	assert.True(t, ok)
	assert.Equal(t, uint64(7), man.OwnerID())

	woman := NewProfile(8, GenderWoman)
	_, ok = woman.(*WomanProfile)
	assert.True(t, ok)
	assert.Equal(t, GenderWoman, woman.Gender())

	assert.Nil(t, NewProfile(9, GenderUnset))
}
