package persistence

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/telcobill/backend/internal/domain/usage"
	"github.com/telcobill/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCDRRepository implements usage.Repository using GORM.
// CDRs are insert-only; this repository exposes no update or delete path.
type GormCDRRepository struct {
	db *gorm.DB
}

// NewGormCDRRepository creates a new GormCDRRepository
func NewGormCDRRepository(db *gorm.DB) *GormCDRRepository {
	return &GormCDRRepository{db: db}
}

// Exists matches on the natural identity (msisdn, call type, start, end)
func (r *GormCDRRepository) Exists(ctx context.Context, msisdn string, callType usage.CallType, start, end time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CallDetailRecordModel{}).
		Where("msisdn = ? AND call_type = ? AND start_time = ? AND end_time = ?", msisdn, callType, start, end).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Insert appends a call detail record
func (r *GormCDRRepository) Insert(ctx context.Context, cdr *usage.CallDetailRecord) error {
	model := models.CallDetailRecordModelFromDomain(cdr)
	return r.db.WithContext(ctx).Create(model).Error
}

// usageTotalsRow receives the aggregate query result
type usageTotalsRow struct {
	VoiceSeconds int64
	DataUsage    decimal.Decimal
	SMSCount     int64
}

// AggregateForPeriod sums voice seconds, data quantity and SMS count for one
// subscriber over [start, end]. Subscribers with no usage get zero totals,
// not an error.
func (r *GormCDRRepository) AggregateForPeriod(ctx context.Context, msisdn string, start, end time.Time) (*usage.UsageTotals, error) {
	var row usageTotalsRow
	err := r.db.WithContext(ctx).
		Model(&models.CallDetailRecordModel{}).
		Select(
			"COALESCE(SUM(CASE WHEN call_type = ? THEN duration_seconds ELSE 0 END), 0) AS voice_seconds, "+
				"COALESCE(SUM(CASE WHEN call_type = ? THEN duration_seconds ELSE 0 END), 0) AS data_usage, "+
				"COALESCE(SUM(CASE WHEN call_type = ? THEN 1 ELSE 0 END), 0) AS sms_count",
			usage.CallTypeVoice, usage.CallTypeData, usage.CallTypeSMS).
		Where("msisdn = ? AND start_time >= ? AND start_time <= ?", msisdn, start, end).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}

	return &usage.UsageTotals{
		VoiceSeconds: row.VoiceSeconds,
		DataUsage:    row.DataUsage,
		SMSCount:     row.SMSCount,
	}, nil
}

// Count returns the total number of call detail records
func (r *GormCDRRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.CallDetailRecordModel{}).Count(&count).Error
	return count, err
}
