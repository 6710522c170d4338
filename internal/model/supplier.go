package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Supplier is a vendor companies submit offers for. Puan is the running
// arithmetic mean of all ratings given after invoice approvals.
type Supplier struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CompanyName string          `gorm:"type:varchar(255);not null" json:"company_name"`
	ContactName string          `gorm:"type:varchar(255)" json:"contact_name"`
	Phone       string          `gorm:"type:varchar(50)" json:"phone"`
	Email       string          `gorm:"type:varchar(255)" json:"email"`
	Address     string          `gorm:"type:text" json:"address"`
	Puan        decimal.Decimal `gorm:"type:decimal(3,2);not null;default:0" json:"puan"`
	RatingCount int             `gorm:"not null;default:0" json:"rating_count"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`
}

// ApplyRating folds a new 1-5 star rating into the running mean.
func (s *Supplier) ApplyRating(rating int) {
	sum := s.Puan.Mul(decimal.NewFromInt(int64(s.RatingCount)))
	s.RatingCount++
	s.Puan = sum.Add(decimal.NewFromInt(int64(rating))).
		Div(decimal.NewFromInt(int64(s.RatingCount))).
		Round(2)
}
