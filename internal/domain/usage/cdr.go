package usage

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/telcobill/backend/internal/domain/shared"
	"github.com/telcobill/backend/internal/domain/shared/valueobject"
)

// CallType classifies a usage event
type CallType string

const (
	CallTypeVoice CallType = "VOICE"
	CallTypeSMS   CallType = "SMS"
	CallTypeData  CallType = "DATA"
)

// IsValid checks if the call type is one of the enumerated values
func (t CallType) IsValid() bool {
	switch t {
	case CallTypeVoice, CallTypeSMS, CallTypeData:
		return true
	}
	return false
}

// Direction classifies whether the subscriber originated or received the event
type Direction string

const (
	DirectionInbound  Direction = "INBOUND"
	DirectionOutbound Direction = "OUTBOUND"
)

// IsValid checks if the direction is one of the enumerated values
func (d Direction) IsValid() bool {
	return d == DirectionInbound || d == DirectionOutbound
}

// CallDetailRecord is one usage event. Its identity is the natural key
// (subscriber, call type, start time, end time); it is append-only and
// never mutated after creation.
type CallDetailRecord struct {
	shared.BaseAggregateRoot
	MSISDN          valueobject.MSISDN
	CallType        CallType
	StartTime       time.Time
	EndTime         time.Time
	DurationSeconds int
	Destination     string
	Cost            decimal.Decimal
	Direction       Direction
	SourceFile      string
}

// NewCallDetailRecord creates a CDR, enforcing the invariants the validator
// also checks: non-negative duration and end strictly after start.
func NewCallDetailRecord(
	msisdn string,
	callType CallType,
	start, end time.Time,
	durationSeconds int,
	direction Direction,
) (*CallDetailRecord, error) {
	key, err := valueobject.NewMSISDN(msisdn)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_MSISDN", err.Error())
	}
	if !callType.IsValid() {
		return nil, shared.NewDomainError("INVALID_CALL_TYPE", "Call type must be VOICE, SMS or DATA")
	}
	if start.IsZero() {
		return nil, shared.NewDomainError("INVALID_START_TIME", "Start time is required")
	}
	if !end.After(start) {
		return nil, shared.NewDomainError("INVALID_END_TIME", "End time must be strictly after start time")
	}
	if durationSeconds < 0 {
		return nil, shared.NewDomainError("INVALID_DURATION", "Duration cannot be negative")
	}
	if !direction.IsValid() {
		return nil, shared.NewDomainError("INVALID_DIRECTION", "Direction must be INBOUND or OUTBOUND")
	}

	return &CallDetailRecord{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		MSISDN:            key,
		CallType:          callType,
		StartTime:         start,
		EndTime:           end,
		DurationSeconds:   durationSeconds,
		Direction:         direction,
	}, nil
}

// SetDestination records the far-end identifier of the event
func (c *CallDetailRecord) SetDestination(dest string) {
	c.Destination = dest
}

// SetCost records the carrier-side cost of the event
func (c *CallDetailRecord) SetCost(cost decimal.Decimal) {
	c.Cost = cost
}

// SetSourceFile records the extract file the CDR arrived in
func (c *CallDetailRecord) SetSourceFile(name string) {
	c.SourceFile = name
}

// UsageTotals aggregates a subscriber's usage over a billing period
type UsageTotals struct {
	VoiceSeconds int64
	DataUsage    decimal.Decimal
	SMSCount     int64
}
