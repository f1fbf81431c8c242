package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/huangsam/sprinthealth/schema"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func TestAssembleSeries(t *testing.T) {
	tests := []struct {
		name   string
		points []progressPoint
		want   schema.ProgressSeries
	}{
		{
			name: "empty",
			want: schema.ProgressSeries{},
		},
		{
			name: "contiguous days",
			points: []progressPoint{
				{Day: 0, PointsCommitted: ptr(10), PointsAccepted: ptr(0)},
				{Day: 1, PointsCommitted: ptr(10), PointsAccepted: ptr(6)},
			},
			want: schema.ProgressSeries{
				PointsCommitted: schema.Series{ptr(10), ptr(10)},
				PointsAccepted:  schema.Series{ptr(0), ptr(6)},
			},
		},
		{
			name: "gap stays nil",
			points: []progressPoint{
				{Day: 0, HoursRemaining: ptr(12), PointsRemaining: ptr(3)},
				{Day: 2, HoursRemaining: ptr(4)},
			},
			want: schema.ProgressSeries{
				HoursRemaining:  schema.Series{ptr(12), nil, ptr(4)},
				PointsRemaining: schema.Series{ptr(3), nil, nil},
			},
		},
		{
			name:   "negative days ignored",
			points: []progressPoint{{Day: -1, PointsCommitted: ptr(5)}},
			want:   schema.ProgressSeries{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := assembleSeries(tt.points)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.IsEmpty(), got.IsEmpty())
		})
	}
}

func TestDateOf(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	got := dateOf(time.Date(2024, 6, 15, 23, 30, 0, 0, loc))
	assert.Equal(t, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), got)

	assert.Nil(t, utcDate(nil))
	d := time.Date(2024, 6, 15, 7, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), *utcDate(&d))
}

func TestOpenInvalidDSN(t *testing.T) {
	_, err := Open(context.Background(), "postgres://user@host:notaport/db", zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid source connection string")
}

func TestSchemaEmbedded(t *testing.T) {
	for _, table := range []string{"projects", "cycles", "items", "cycle_progress", "item_progress"} {
		assert.Contains(t, schemaSQL, "CREATE TABLE IF NOT EXISTS "+table+" (")
	}
}
