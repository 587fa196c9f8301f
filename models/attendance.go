package models

import "time"

const (
	AttendanceIncomplete = "incomplete"
	AttendancePresent    = "present"
	AttendanceAbsent     = "absent"
)

// Attendance is one washer's record for one calendar day.
type Attendance struct {
	ID       uint       `gorm:"primaryKey" json:"id"`
	UserID   uint       `gorm:"not null;uniqueIndex:idx_attendance_user_date,priority:1" json:"userId"`
	Date     time.Time  `gorm:"not null;uniqueIndex:idx_attendance_user_date,priority:2" json:"date"`
	TimeIn   *time.Time `json:"timeIn,omitempty"`
	TimeOut  *time.Time `json:"timeOut,omitempty"`
	Duration float64    `gorm:"type:decimal(6,2);default:0" json:"duration"` // hours
	Status   string     `gorm:"type:varchar(12);not null" json:"status"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
