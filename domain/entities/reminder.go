package entities

// Reminder is a named, repeating (or one-time) scheduled message in a guild.
// Weekday, Hour and Minute constrain when a due reminder actually fires;
// a nil value means unconstrained.
type Reminder struct {
	Name      string `json:"name"`
	Interval  int    `json:"interval"`
	Unit      string `json:"unit"` // minutes, hours or days
	ChannelID string `json:"channel"`
	Message   string `json:"message"`
	Headline  string `json:"headline,omitempty"`
	Weekday   *int   `json:"weekday,omitempty"` // 0 = Monday .. 6 = Sunday
	Hour      *int   `json:"hour,omitempty"`
	Minute    *int   `json:"minute,omitempty"`
	OneTime   bool   `json:"oneTime,omitempty"`
	LastFired int64  `json:"last"` // unix seconds, 0 = never
}

// IntervalSeconds converts the interval/unit pair to seconds.
func (r *Reminder) IntervalSeconds() int64 {
	secondsPerUnit := map[string]int64{
		"minutes": 60,
		"hours":   3600,
		"days":    86400,
	}
	unit, ok := secondsPerUnit[r.Unit]
	if !ok {
		unit = 1
	}
	return int64(r.Interval) * unit
}

// ReminderSettings holds the per-guild reminder toggle.
type ReminderSettings struct {
	Enabled bool `json:"enabled"`
}
