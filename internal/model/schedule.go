package model

import "time"

// WeeklyHours is one row of a professional's weekly calendar.  Times are
// "HH:MM" strings in the professional's local working-hours frame;
// zero-padded so lexicographic comparison orders them correctly.
//
// Fields:
//  ProfessionalID – owning professional.
//  Weekday        – 0 (Sunday) .. 6 (Saturday), matching time.Weekday.
//  IsWorking      – whether the professional works on this day at all.
//  StartTime      – working window start, "HH:MM".
//  EndTime        – working window end, "HH:MM".
type WeeklyHours struct {
    ProfessionalID uint64 // schedules.professional_id
    Weekday        int    // schedules.weekday
    IsWorking      bool   // schedules.is_working
    StartTime      string // schedules.start_time
    EndTime        string // schedules.end_time
}

// ScheduleBlock is an interval a professional has blocked out on a
// specific date.
//
// Fields:
//  ID             – primary key identifier.
//  ProfessionalID – owning professional.
//  Date           – calendar date ("YYYY-MM-DD").
//  StartTime      – block start, "HH:MM".
//  EndTime        – block end, "HH:MM".
//  Reason         – free-form note.
//  CreatedAt      – row timestamp.
type ScheduleBlock struct {
    ID             uint64    // schedule_blocks.id
    ProfessionalID uint64    // schedule_blocks.professional_id
    Date           string    // schedule_blocks.block_date
    StartTime      string    // schedule_blocks.start_time
    EndTime        string    // schedule_blocks.end_time
    Reason         string    // schedule_blocks.reason
    CreatedAt      time.Time // schedule_blocks.created_at
}

// Holiday marks a full date a professional does not work.
type Holiday struct {
    ID             uint64 // holidays.id
    ProfessionalID uint64 // holidays.professional_id
    Date           string // holidays.holiday_date
    Name           string // holidays.name
}
