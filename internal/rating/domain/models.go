// Package domain contains the value types produced by rating.
package domain

// Duration is the calendar breakdown of a parked interval. Components are
// truncated, never rounded.
type Duration struct {
	Days         int64  `json:"days"`
	Hours        int64  `json:"hours"`
	Minutes      int64  `json:"minutes"`
	TotalMinutes int64  `json:"total_minutes"`
	Label        string `json:"label"`
}

// BillableHours counts whole hours with any partial hour rounded up.
func (d Duration) BillableHours() int64 {
	hours := d.Days*24 + d.Hours
	if d.Minutes > 0 {
		hours++
	}
	if hours < 0 {
		return 0
	}
	return hours
}

// SurchargeMode selects how hours past the daily threshold are billed.
type SurchargeMode string

const (
	// SurchargeExcess doubles only the hours past the threshold.
	SurchargeExcess SurchargeMode = "excess"
	// SurchargeFull doubles the whole stay once the threshold is crossed.
	SurchargeFull SurchargeMode = "full"
)

func ParseSurchargeMode(raw string) SurchargeMode {
	if SurchargeMode(raw) == SurchargeFull {
		return SurchargeFull
	}
	return SurchargeExcess
}
