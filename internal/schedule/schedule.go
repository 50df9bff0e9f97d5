// Package schedule holds the pure availability logic for professional
// calendars.  Times are "HH:MM" strings within one calendar day in the
// professional's local working-hours frame; zero-padding makes plain
// string comparison order them correctly.
package schedule

// Interval is a half-open [Start, End) window within a day.
type Interval struct {
    Start string // "HH:MM" inclusive
    End   string // "HH:MM" exclusive
}

// Overlaps reports whether two half-open intervals intersect:
// start < otherEnd && end > otherStart.
func (iv Interval) Overlaps(other Interval) bool {
    return iv.Start < other.End && iv.End > other.Start
}

// Day is everything known about one professional's calendar date.
//
// Fields:
//  Holiday   – the whole date is off.
//  Working   – the weekday has a working window at all.
//  WorkStart – working window start, "HH:MM".
//  WorkEnd   – working window end, "HH:MM".
//  Blocks    – explicitly blocked intervals on this date.
type Day struct {
    Holiday   bool
    Working   bool
    WorkStart string
    WorkEnd   string
    Blocks    []Interval
}

// Fits reports whether [start, end) is inside the day's working window
// and clear of every blocked interval.  It does not know about existing
// bookings; the repository layers that check on top.
func Fits(day Day, start, end string) bool {
    if day.Holiday || !day.Working {
        return false
    }
    if start < day.WorkStart || end > day.WorkEnd {
        return false
    }
    if start >= end {
        return false
    }
    want := Interval{Start: start, End: end}
    for _, b := range day.Blocks {
        if want.Overlaps(b) {
            return false
        }
    }
    return true
}

// ValidWindow reports whether start and end are well-formed zero-padded
// "HH:MM" strings with start strictly before end.
func ValidWindow(start, end string) bool {
    return validHHMM(start) && validHHMM(end) && start < end
}

func validHHMM(s string) bool {
    if len(s) != 5 || s[2] != ':' {
        return false
    }
    for _, i := range []int{0, 1, 3, 4} {
        if s[i] < '0' || s[i] > '9' {
            return false
        }
    }
    hh := int(s[0]-'0')*10 + int(s[1]-'0')
    mm := int(s[3]-'0')*10 + int(s[4]-'0')
    return hh < 24 && mm < 60
}

// WithinBusinessHours is the creation/reschedule-time validation applied
// to non-emergency bookings: the requested clock time must fall inside
// the platform's standard service window.
func WithinBusinessHours(hhmm string) bool {
    return hhmm >= BusinessOpen && hhmm < BusinessClose
}

// Platform-wide service window for non-emergency bookings.
const (
    BusinessOpen  = "08:00"
    BusinessClose = "20:00"
)
