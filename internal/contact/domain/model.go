package domain

import "time"

type Inquiry struct {
	ID          string    `json:"id" gorm:"primaryKey;type:text"`
	Email       string    `json:"email" gorm:"type:text;not null"`
	Subject     string    `json:"subject" gorm:"type:text;not null"`
	OtherDetail *string   `json:"other_detail"`
	Message     string    `json:"message" gorm:"type:text;not null"`
	CreatedAt   time.Time `json:"created_at" gorm:"not null"`
}

func (Inquiry) TableName() string { return "contact_inquiries" }
