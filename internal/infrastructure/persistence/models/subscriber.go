package models

import (
	"time"

	"github.com/telcobill/backend/internal/domain/shared/valueobject"
	"github.com/telcobill/backend/internal/domain/subscriber"
)

// SubscriberModel is the persistence model for the Subscriber aggregate.
type SubscriberModel struct {
	AggregateModel
	MSISDN       string            `gorm:"type:varchar(12);not null;uniqueIndex"`
	FirstName    string            `gorm:"type:varchar(100);not null"`
	LastName     string            `gorm:"type:varchar(100);not null"`
	DateOfBirth  *time.Time        `gorm:"type:date"`
	Email        string            `gorm:"type:varchar(200)"`
	RegisteredAt time.Time         `gorm:"not null"`
	Status       subscriber.Status `gorm:"type:varchar(20);not null;index"`
}

// TableName returns the table name for GORM
func (SubscriberModel) TableName() string {
	return "subscribers"
}

// ToDomain converts the persistence model to a domain Subscriber.
func (m *SubscriberModel) ToDomain() *subscriber.Subscriber {
	key, _ := valueobject.NewMSISDN(m.MSISDN)
	return &subscriber.Subscriber{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		MSISDN:            key,
		FirstName:         m.FirstName,
		LastName:          m.LastName,
		DateOfBirth:       m.DateOfBirth,
		Email:             m.Email,
		RegisteredAt:      m.RegisteredAt,
		Status:            m.Status,
	}
}

// FromDomain populates the persistence model from a domain Subscriber.
func (m *SubscriberModel) FromDomain(s *subscriber.Subscriber) {
	m.FromDomainAggregateRoot(s.BaseAggregateRoot)
	m.MSISDN = s.MSISDN.String()
	m.FirstName = s.FirstName
	m.LastName = s.LastName
	m.DateOfBirth = s.DateOfBirth
	m.Email = s.Email
	m.RegisteredAt = s.RegisteredAt
	m.Status = s.Status
}

// SubscriberModelFromDomain creates a new persistence model from a domain Subscriber.
func SubscriberModelFromDomain(s *subscriber.Subscriber) *SubscriberModel {
	m := &SubscriberModel{}
	m.FromDomain(s)
	return m
}
