package entities

import "time"

// ExclusionPolicy controls whether an entry that has already won remains
// eligible for later winner ordinals within the same draw
type ExclusionPolicy string

const (
	// ExclusionSingleWin removes a winner's range from subsequent ordinals
	ExclusionSingleWin ExclusionPolicy = "single_win"
	// ExclusionRepeatOK lets an entry win multiple ordinals
	ExclusionRepeatOK ExclusionPolicy = "repeat_ok"
)

// Lottery represents a single lottery item that tickets are purchased for.
// UnitCost and PerUserCap are captured at creation so later config changes
// never affect an announced lottery.
type Lottery struct {
	ID              int64           `db:"id"`
	Name            string          `db:"name"`
	UnitCost        int64           `db:"unit_cost"`
	PerUserCap      int64           `db:"per_user_cap"`
	CutoffAt        time.Time       `db:"cutoff_at"`
	ExclusionPolicy ExclusionPolicy `db:"exclusion_policy"`
	Drawn           bool            `db:"drawn"`
	CreatedAt       time.Time       `db:"created_at"`
}

// IsOpen returns true if tickets can still be purchased
func (l *Lottery) IsOpen(now time.Time) bool {
	return !l.Drawn && now.Before(l.CutoffAt)
}
