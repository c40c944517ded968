package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointValid(t *testing.T) {
	assert.True(t, Point{Lat: 28.6139, Lng: 77.2090}.Valid())
	assert.True(t, Point{Lat: -90, Lng: 180}.Valid())
	assert.False(t, Point{Lat: 91, Lng: 0}.Valid())
	assert.False(t, Point{Lat: 0, Lng: -181}.Valid())
}

func TestMoneyString(t *testing.T) {
	m, err := NewMoney("500")
	require.NoError(t, err)
	assert.Equal(t, "500.00 INR", m.String())

	_, err = NewMoney("five hundred")
	assert.Error(t, err)
}

func TestNewIDUnique(t *testing.T) {
	a, b := NewID(), NewID()
	assert.NotEqual(t, a, b)
	assert.Len(t, a.String(), 36)
}
