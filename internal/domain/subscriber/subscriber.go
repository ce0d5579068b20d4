package subscriber

import (
	"fmt"
	"regexp"
	"time"

	"github.com/telcobill/backend/internal/domain/shared"
	"github.com/telcobill/backend/internal/domain/shared/valueobject"
)

// Status represents the lifecycle state of a subscriber
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusSuspended Status = "SUSPENDED"
	StatusInactive  Status = "INACTIVE"
)

// IsValid checks if the status is one of the enumerated values
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusSuspended, StatusInactive:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// IsValidEmail reports whether value looks like an email address.
// Empty values are acceptable because email is optional on a subscriber.
func IsValidEmail(value string) bool {
	if value == "" {
		return true
	}
	return emailPattern.MatchString(value)
}

// Subscriber is an aggregate root identified naturally by MSISDN.
// It is mutable and reconciled by upsert.
type Subscriber struct {
	shared.BaseAggregateRoot
	MSISDN       valueobject.MSISDN
	FirstName    string
	LastName     string
	DateOfBirth  *time.Time
	Email        string
	RegisteredAt time.Time
	Status       Status
}

// NewSubscriber creates a subscriber, validating its natural key and status
func NewSubscriber(msisdn string, firstName, lastName string, status Status) (*Subscriber, error) {
	key, err := valueobject.NewMSISDN(msisdn)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_MSISDN", err.Error())
	}
	if !status.IsValid() {
		return nil, shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Invalid subscriber status: %s", status))
	}

	return &Subscriber{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		MSISDN:            key,
		FirstName:         firstName,
		LastName:          lastName,
		RegisteredAt:      time.Now(),
		Status:            status,
	}, nil
}

// SetEmail sets the optional email address after format validation
func (s *Subscriber) SetEmail(email string) error {
	if !IsValidEmail(email) {
		return shared.NewDomainError("INVALID_EMAIL", fmt.Sprintf("Invalid email address: %s", email))
	}
	s.Email = email
	s.touch()
	return nil
}

// SetDateOfBirth sets the optional birth date
func (s *Subscriber) SetDateOfBirth(dob time.Time) {
	s.DateOfBirth = &dob
	s.touch()
}

// SetRegisteredAt overrides the registration date (used when reconciling
// extract data that carries the original registration timestamp)
func (s *Subscriber) SetRegisteredAt(t time.Time) {
	s.RegisteredAt = t
	s.touch()
}

// Overwrite replaces all mutable attributes from another subscriber with the
// same natural key. Merge semantics for the upsert path: the MSISDN never
// changes, everything else follows the staged record.
func (s *Subscriber) Overwrite(src *Subscriber) error {
	if !s.MSISDN.Equals(src.MSISDN) {
		return shared.NewDomainError("KEY_MISMATCH", "Cannot overwrite subscriber with a different MSISDN")
	}
	s.FirstName = src.FirstName
	s.LastName = src.LastName
	s.DateOfBirth = src.DateOfBirth
	s.Email = src.Email
	s.RegisteredAt = src.RegisteredAt
	s.Status = src.Status
	s.touch()
	return nil
}

// IsActive returns true when the subscriber participates in billing runs
func (s *Subscriber) IsActive() bool {
	return s.Status == StatusActive
}

// FullName returns the display name
func (s *Subscriber) FullName() string {
	if s.FirstName == "" {
		return s.LastName
	}
	if s.LastName == "" {
		return s.FirstName
	}
	return s.FirstName + " " + s.LastName
}

func (s *Subscriber) touch() {
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
}
