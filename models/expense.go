package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const ExpenseCategorySalary = "Salary"

var ExpenseCategories = []string{ExpenseCategorySalary, "Supplies", "Equipment", "Marketing", "Utilities", "Other"}

type Expense struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Category    string    `gorm:"type:varchar(20);not null;index" json:"category"`
	Amount      float64   `gorm:"type:decimal(10,2);not null" json:"amount"`
	Description string    `gorm:"type:text;not null" json:"description"`
	PaidTo      string    `gorm:"index" json:"paidTo"`
	Date        time.Time `gorm:"not null;index" json:"date"`
	AddedByID   uint      `gorm:"index;not null" json:"addedBy"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (e *Expense) BeforeCreate(tx *gorm.DB) (err error) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return
}

func ValidExpenseCategory(c string) bool {
	for _, cat := range ExpenseCategories {
		if cat == c {
			return true
		}
	}
	return false
}
