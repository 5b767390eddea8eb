package catalog

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	CourseDraft     = "draft"
	CoursePublished = "published"
	CourseArchived  = "archived"
)

type Course struct {
	ID           string          `gorm:"type:char(36);primaryKey"`
	Title        string          `gorm:"type:varchar(255);not null"`
	InstructorID string          `gorm:"type:char(36);not null;index:ix_courses_instructor_id"`
	Price        decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Currency     string          `gorm:"type:char(3);not null;default:'USD'"`
	Status       string          `gorm:"type:varchar(32);not null;default:'draft'"`
	CreatedAt    time.Time       `gorm:"type:datetime(3);not null"`
	UpdatedAt    time.Time       `gorm:"type:datetime(3);not null"`
	DeletedAt    gorm.DeletedAt  `gorm:"type:datetime(3);index"`
}

func (Course) TableName() string { return "courses" }

func (c Course) Published() bool { return c.Status == CoursePublished }
