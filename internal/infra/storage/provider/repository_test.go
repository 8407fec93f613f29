package provider

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

func TestDecodeWorkingHours(t *testing.T) {
	raw := []byte(`{
		"monday": {"isOpen": true, "openTime": "09:00", "closeTime": "17:30"},
		"Sunday": {"isOpen": false}
	}`)

	hours, err := decodeWorkingHours(raw)
	require.NoError(t, err)

	assert.True(t, hours[time.Monday].IsOpen)
	assert.Equal(t, types.TimeString("09:00"), hours[time.Monday].OpenTime)
	assert.Equal(t, types.TimeString("17:30"), hours[time.Monday].CloseTime)
	assert.False(t, hours[time.Sunday].IsOpen)
	assert.False(t, hours[time.Tuesday].IsOpen)
}

func TestDecodeWorkingHours_Invalid(t *testing.T) {
	_, err := decodeWorkingHours([]byte(`{"funday": {"isOpen": true}}`))
	assert.ErrorIs(t, err, ErrInvalidWorkingHours)

	_, err = decodeWorkingHours([]byte(`{"monday": {"isOpen": true, "openTime": "9am", "closeTime": "17:00"}}`))
	assert.ErrorIs(t, err, ErrInvalidWorkingHours)
}

func TestDecodeWorkingHours_Empty(t *testing.T) {
	hours, err := decodeWorkingHours(nil)
	require.NoError(t, err)
	assert.Empty(t, hours)
}

func TestEncodeWorkingHours_RoundTrip(t *testing.T) {
	in := domain.WorkingHours{
		time.Wednesday: {IsOpen: true, OpenTime: "08:30", CloseTime: "16:00"},
		time.Saturday:  {IsOpen: false},
	}

	raw, err := encodeWorkingHours(in)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"wednesday"`)

	out, err := decodeWorkingHours(raw)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}
