package models

// All lists every table, in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Attendance{},
		&Lead{},
		&Subscription{},
		&WashRecord{},
		&Expense{},
		&ReminderTemplate{},
		&ReminderLog{},
	}
}
