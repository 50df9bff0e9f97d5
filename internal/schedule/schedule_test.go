package schedule

import (
    "testing"

    "github.com/stretchr/testify/assert"
)

func workday(blocks ...Interval) Day {
    return Day{Working: true, WorkStart: "09:00", WorkEnd: "18:00", Blocks: blocks}
}

func TestOverlaps(t *testing.T) {
    base := Interval{Start: "10:00", End: "11:00"}
    cases := []struct {
        name  string
        other Interval
        want  bool
    }{
        {"identical", Interval{"10:00", "11:00"}, true},
        {"contained", Interval{"10:15", "10:45"}, true},
        {"overlap start", Interval{"09:30", "10:30"}, true},
        {"overlap end", Interval{"10:30", "11:30"}, true},
        {"touching before", Interval{"09:00", "10:00"}, false},
        {"touching after", Interval{"11:00", "12:00"}, false},
        {"disjoint", Interval{"14:00", "15:00"}, false},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            assert.Equal(t, tc.want, base.Overlaps(tc.other))
            assert.Equal(t, tc.want, tc.other.Overlaps(base))
        })
    }
}

func TestFitsHolidayAndNonWorking(t *testing.T) {
    assert.False(t, Fits(Day{Holiday: true, Working: true, WorkStart: "09:00", WorkEnd: "18:00"}, "10:00", "11:00"))
    assert.False(t, Fits(Day{Working: false}, "10:00", "11:00"))
}

func TestFitsWorkingWindow(t *testing.T) {
    day := workday()
    assert.True(t, Fits(day, "09:00", "10:00"))
    assert.True(t, Fits(day, "17:00", "18:00"))
    // Outside the window on either side.
    assert.False(t, Fits(day, "08:00", "09:30"))
    assert.False(t, Fits(day, "17:30", "18:30"))
    // Degenerate and inverted windows never fit.
    assert.False(t, Fits(day, "10:00", "10:00"))
    assert.False(t, Fits(day, "11:00", "10:00"))
}

func TestFitsAroundBlocks(t *testing.T) {
    day := workday(Interval{"12:00", "13:00"})
    assert.False(t, Fits(day, "12:30", "13:30"))
    assert.False(t, Fits(day, "11:30", "12:30"))
    // Half-open intervals: back-to-back with the block is fine.
    assert.True(t, Fits(day, "11:00", "12:00"))
    assert.True(t, Fits(day, "13:00", "14:00"))
}

func TestWithinBusinessHours(t *testing.T) {
    assert.True(t, WithinBusinessHours("08:00"))
    assert.True(t, WithinBusinessHours("19:59"))
    assert.False(t, WithinBusinessHours("07:59"))
    assert.False(t, WithinBusinessHours("20:00"))
}

func TestValidWindow(t *testing.T) {
    assert.True(t, ValidWindow("09:00", "17:30"))
    assert.False(t, ValidWindow("17:00", "09:00"))
    assert.False(t, ValidWindow("09:00", "09:00"))
    assert.False(t, ValidWindow("9:00", "17:00"))
    assert.False(t, ValidWindow("09:61", "17:00"))
    assert.False(t, ValidWindow("24:00", "25:00"))
    assert.False(t, ValidWindow("ab:cd", "17:00"))
}
