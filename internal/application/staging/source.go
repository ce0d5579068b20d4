package stagingapp

import (
	"context"
	"path/filepath"
	"time"

	"github.com/telcobill/backend/internal/infrastructure/config"
	"github.com/telcobill/backend/internal/infrastructure/extract"
)

// Entity names the four extract entity types, in load order
type Entity string

const (
	EntitySubscribers Entity = "subscribers"
	EntityPlans       Entity = "plans"
	EntityAssignments Entity = "assignments"
	EntityCDRs        Entity = "cdrs"
)

// LoadOrder is the referential dependency order of a full load
var LoadOrder = []Entity{EntitySubscribers, EntityPlans, EntityAssignments, EntityCDRs}

// IsValidEntity checks if the entity name is one of the four extract types
func IsValidEntity(name string) bool {
	switch Entity(name) {
	case EntitySubscribers, EntityPlans, EntityAssignments, EntityCDRs:
		return true
	}
	return false
}

// requiredColumns returns the mandatory header set per entity
func requiredColumns(entity Entity) []string {
	switch entity {
	case EntitySubscribers:
		return []string{"msisdn", "first_name", "last_name", "status"}
	case EntityPlans:
		return []string{"plan_code", "name", "monthly_fee"}
	case EntityAssignments:
		return []string{"msisdn", "plan_code", "start_date"}
	case EntityCDRs:
		return []string{"msisdn", "call_type", "start_time", "end_time", "direction"}
	}
	return nil
}

// ExtractSource iterates one extract in bounded batches. The loader neither
// knows nor cares how the source is produced; ReadBatch returns io.EOF
// alongside the final batch.
type ExtractSource interface {
	Name() string
	Headers() []string
	MissingHeaders(required []string) []string
	ReadBatch(ctx context.Context, n int) ([]*extract.Row, error)
	Close() error
}

// SourceProvider resolves and opens the extract for an entity on a date
type SourceProvider interface {
	Open(entity Entity, date time.Time) (ExtractSource, error)
}

// CSVSourceProvider opens date-stamped CSV extracts from a drop directory
type CSVSourceProvider struct {
	cfg config.ExtractConfig
}

// NewCSVSourceProvider creates a CSVSourceProvider
func NewCSVSourceProvider(cfg config.ExtractConfig) *CSVSourceProvider {
	return &CSVSourceProvider{cfg: cfg}
}

// Open resolves the naming template and opens the entity's extract file
func (p *CSVSourceProvider) Open(entity Entity, date time.Time) (ExtractSource, error) {
	return extract.OpenCSV(p.cfg.Dir, p.cfg.SourceName(string(entity), date))
}

// SourcePath returns the on-disk path of an extract by name
func (p *CSVSourceProvider) SourcePath(sourceName string) string {
	return filepath.Join(p.cfg.Dir, sourceName)
}

// Archiver moves a fully processed extract out of the drop directory.
// Invoked only for entities that loaded with zero errors.
type Archiver interface {
	Archive(ctx context.Context, sourceName string) error
}

// ArchiverFunc adapts a function to the Archiver interface
type ArchiverFunc func(ctx context.Context, sourceName string) error

// Archive calls f
func (f ArchiverFunc) Archive(ctx context.Context, sourceName string) error {
	return f(ctx, sourceName)
}
