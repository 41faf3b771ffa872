package model

import (
	"fmt"
	"time"
)

const (
	FirstSlotHour = 6
	LastSlotHour  = 23
)

// TimeSlots lists the hourly calendar slots, 06:00 through 23:00.
func TimeSlots() []string {
	slots := make([]string, 0, LastSlotHour-FirstSlotHour+1)
	for hour := FirstSlotHour; hour <= LastSlotHour; hour++ {
		slots = append(slots, FormatClock(hour, 0))
	}
	return slots
}

// SlotLabel renders "15:00" as "3 PM" and "15:30" as "3:30 PM".
func SlotLabel(clock string) string {
	parsed, err := time.Parse(TimeLayout, clock)
	if err != nil {
		return clock
	}
	hour := parsed.Hour()
	suffix := "AM"
	if hour >= 12 {
		suffix = "PM"
	}
	display := hour % 12
	if display == 0 {
		display = 12
	}
	if parsed.Minute() == 0 {
		return fmt.Sprintf("%d %s", display, suffix)
	}
	return fmt.Sprintf("%d:%02d %s", display, parsed.Minute(), suffix)
}

// NextSlot returns the first slot after now, clamped to the slot range.
func NextSlot(now time.Time) string {
	hour := now.Hour() + 1
	if hour < FirstSlotHour {
		hour = FirstSlotHour
	}
	if hour > LastSlotHour {
		hour = LastSlotHour
	}
	return FormatClock(hour, 0)
}
