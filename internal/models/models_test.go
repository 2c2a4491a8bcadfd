package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRefNo(t *testing.T) {
	floor, number, err := ParseRefNo("1M 102")
	require.NoError(t, err)
	assert.Equal(t, "1M", floor)
	assert.Equal(t, "102", number)

	floor, number, err = ParseRefNo("  3  17 ")
	require.NoError(t, err)
	assert.Equal(t, "3", floor)
	assert.Equal(t, "17", number)

	_, _, err = ParseRefNo("102")
	assert.Error(t, err)

	_, _, err = ParseRefNo("")
	assert.Error(t, err)

	_, _, err = ParseRefNo("1M 102 extra")
	assert.Error(t, err)
}

func TestSeatRefNo(t *testing.T) {
	s := Seat{Floor: "1M", Number: "102"}
	assert.Equal(t, "1M 102", s.RefNo())

	assert.False(t, s.Occupied())
	s.Occupant = "  "
	assert.False(t, s.Occupied())
	s.Occupant = "I. Petrov"
	assert.True(t, s.Occupied())
}

func TestRequestActive(t *testing.T) {
	r := HotDeskRequest{Status: StatusPending}
	assert.True(t, r.Active())
	r.Status = StatusApproved
	assert.True(t, r.Active())
	r.Status = StatusRejected
	assert.False(t, r.Active())
	r.Status = StatusCancelled
	assert.False(t, r.Active())
}

func TestPromptRefValid(t *testing.T) {
	var p *PromptRef
	assert.False(t, p.Valid())
	assert.False(t, (&PromptRef{ChatID: 1}).Valid())
	assert.True(t, (&PromptRef{ChatID: 1, MessageID: 2}).Valid())
}
