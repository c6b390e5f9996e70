package model

import "fmt"

const (
	SequenceServiceOrder = "service_order"
	SequenceBudget       = "budget"
)

type Sequence struct {
	Name  string `gorm:"size:64;primaryKey"`
	Value int64  `gorm:"not null"`
}

func (Sequence) TableName() string {
	return "sequences"
}

// FormatNumber renders prefix + n padded to width digits, e.g. OS001.
func FormatNumber(prefix string, width int, n int64) string {
	return fmt.Sprintf("%s%0*d", prefix, width, n)
}
