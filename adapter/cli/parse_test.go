package cli

import (
	"testing"
	"time"

	"github.com/felixgeelhaar/kinplan/internal/planning/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOverride(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name    string
		input   string
		want    domain.MoveOverride
		wantErr bool
	}{
		{
			name:  "valid",
			input: id.String() + "=2024-09-06@16:30",
			want: domain.MoveOverride{
				SessionID: id,
				Date:      domain.NewCalendarDate(2024, time.September, 6),
				Time:      domain.ClockTime{Hour: 16, Minute: 30},
			},
		},
		{name: "missing equals", input: id.String(), wantErr: true},
		{name: "missing at", input: id.String() + "=2024-09-06", wantErr: true},
		{name: "bad id", input: "abc=2024-09-06@16:30", wantErr: true},
		{name: "bad date", input: id.String() + "=2024-13-06@16:30", wantErr: true},
		{name: "bad time", input: id.String() + "=2024-09-06@25:00", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseOverride(tc.input)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseStart(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	got, err := ParseStart("2024-09-03 09:00", berlin)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.September, 3, 7, 0, 0, 0, time.UTC), got.UTC())

	got, err = ParseStart("2024-09-03T09:00:00Z", berlin)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.September, 3, 9, 0, 0, 0, time.UTC), got.UTC())

	_, err = ParseStart("", berlin)
	assert.Error(t, err)
	_, err = ParseStart("tomorrow", berlin)
	assert.Error(t, err)
}

func TestParseDate_Fallback(t *testing.T) {
	fallback := domain.NewCalendarDate(2024, time.January, 1)

	got, err := ParseDate("", fallback)
	require.NoError(t, err)
	assert.Equal(t, fallback, got)

	got, err = ParseDate("2024-02-29", fallback)
	require.NoError(t, err)
	assert.Equal(t, domain.NewCalendarDate(2024, time.February, 29), got)
}

func TestParseOptionalUUID(t *testing.T) {
	id, err := ParseOptionalUUID("", "plan")
	require.NoError(t, err)
	assert.Equal(t, uuid.Nil, id)

	_, err = ParseOptionalUUID("nope", "plan")
	assert.ErrorContains(t, err, "invalid plan")
}
