package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"mower-status-backend/internal/apperr"
)

var clockRe = regexp.MustCompile(`^\s*(\d{1,2}):(\d{2})\s*$`)

var weekdays = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tues": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thur": time.Thursday, "thurs": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

// Clock is a wall-clock time of day.
type Clock struct {
	Hour   int
	Minute int
}

// String formats c as HH:MM, the layout gocron expects.
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// ParsedSchedule holds the structured form of a mowing schedule.
type ParsedSchedule struct {
	Start Clock
	End   Clock
	Days  []time.Weekday
}

// ParseClock parses "H:MM" or "HH:MM" in 24-hour form.
func ParseClock(raw string) (Clock, error) {
	m := clockRe.FindStringSubmatch(raw)
	if m == nil {
		return Clock{}, fmt.Errorf("unable to parse time of day: %q", raw)
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	if hour > 23 || minute > 59 {
		return Clock{}, fmt.Errorf("time of day out of range: %q", raw)
	}
	return Clock{Hour: hour, Minute: minute}, nil
}

// ParseWeekday accepts full or abbreviated English day names in any case.
func ParseWeekday(raw string) (time.Weekday, error) {
	d, ok := weekdays[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		return 0, fmt.Errorf("unknown day of week: %q", raw)
	}
	return d, nil
}

// ParseSchedule validates the raw schedule fields. Duplicate days collapse
// into one, keeping first-seen order.
func ParseSchedule(start, end string, days []string) (ParsedSchedule, error) {
	startClock, err := ParseClock(start)
	if err != nil {
		return ParsedSchedule{}, apperr.Invalid("startTime", err.Error())
	}
	endClock, err := ParseClock(end)
	if err != nil {
		return ParsedSchedule{}, apperr.Invalid("endTime", err.Error())
	}
	if startClock == endClock {
		return ParsedSchedule{}, apperr.Invalid("endTime", "end time must differ from start time")
	}
	if len(days) == 0 {
		return ParsedSchedule{}, apperr.Invalid("daysOfWeek", "at least one day is required")
	}

	seen := make(map[time.Weekday]bool, len(days))
	parsedDays := make([]time.Weekday, 0, len(days))
	for _, raw := range days {
		d, err := ParseWeekday(raw)
		if err != nil {
			return ParsedSchedule{}, apperr.Invalid("daysOfWeek", err.Error())
		}
		if seen[d] {
			continue
		}
		seen[d] = true
		parsedDays = append(parsedDays, d)
	}

	return ParsedSchedule{Start: startClock, End: endClock, Days: parsedDays}, nil
}
