package model

// Mode is how a record presents itself. It is always derived from the
// record's fields and never stored.
type Mode string

const (
	ModeNote      Mode = "note"
	ModeCurrent   Mode = "current"
	ModeBacklog   Mode = "backlog"
	ModeFlexible  Mode = "flexible"
	ModeScheduled Mode = "scheduled"
)

func ModeOf(t Task) Mode {
	switch {
	case t.Type == TypeNote:
		return ModeNote
	case t.Date == nil && t.IsBacklog:
		return ModeBacklog
	case t.Date == nil:
		return ModeCurrent
	case t.IsAllDay:
		return ModeFlexible
	default:
		return ModeScheduled
	}
}

func (m Mode) IsEvent() bool {
	return m == ModeFlexible || m == ModeScheduled
}

func (m Mode) IsUndated() bool {
	return m == ModeCurrent || m == ModeBacklog
}

func (m Mode) Label() string {
	switch m {
	case ModeNote:
		return "Note"
	case ModeCurrent:
		return "Task"
	case ModeBacklog:
		return "Backlog"
	case ModeFlexible:
		return "Flexible-time event"
	case ModeScheduled:
		return "Scheduled event"
	}
	return string(m)
}
