package postgres

import "github.com/huangsam/sprinthealth/schema"

// progressPoint is one day of a burndown as stored in a progress table.
type progressPoint struct {
	Day             int
	PointsCommitted *float64
	PointsAccepted  *float64
	HoursRemaining  *float64
	PointsRemaining *float64
}

// assembleSeries lays stored days out by offset. Days that were never stored
// stay nil, as do trailing columns with nothing recorded at all.
func assembleSeries(points []progressPoint) schema.ProgressSeries {
	days := 0
	for _, p := range points {
		if p.Day >= 0 && p.Day+1 > days {
			days = p.Day + 1
		}
	}
	if days == 0 {
		return schema.ProgressSeries{}
	}

	committed := make(schema.Series, days)
	accepted := make(schema.Series, days)
	hours := make(schema.Series, days)
	remaining := make(schema.Series, days)
	for _, p := range points {
		if p.Day < 0 {
			continue
		}
		committed[p.Day] = p.PointsCommitted
		accepted[p.Day] = p.PointsAccepted
		hours[p.Day] = p.HoursRemaining
		remaining[p.Day] = p.PointsRemaining
	}

	return schema.ProgressSeries{
		PointsCommitted: nonEmpty(committed),
		PointsAccepted:  nonEmpty(accepted),
		HoursRemaining:  nonEmpty(hours),
		PointsRemaining: nonEmpty(remaining),
	}
}

// nonEmpty drops a series in which no day carries a value.
func nonEmpty(s schema.Series) schema.Series {
	for _, v := range s {
		if v != nil {
			return s
		}
	}
	return nil
}
