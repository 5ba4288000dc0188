package entity

import "time"

// Tenant is an isolated calendar namespace. Work hours and granularity are
// minutes from local midnight; all slot validation uses the tenant's timezone.
type Tenant struct {
	BaseSimple
	Name            string `db:"name"`
	Timezone        string `db:"timezone"`
	WorkStartMinute int    `db:"work_start_minute"`
	WorkEndMinute   int    `db:"work_end_minute"`
	SlotGranularity int    `db:"slot_granularity_minutes"`
	IsActive        bool   `db:"is_active"`
}

// Location resolves the tenant's timezone, falling back to UTC when the zone
// name is unknown so a bad row never takes bookings down.
func (t *Tenant) Location() *time.Location {
	loc, err := time.LoadLocation(t.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
