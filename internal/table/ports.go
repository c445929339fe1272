package table

import (
	"context"

	"github.com/Mujanati13/xcite/internal/models"
)

// PropertyService is the backend holding properties and their contracts.
// An empty agentFilter lists properties of all agents.
type PropertyService interface {
	ListProperties(ctx context.Context, agentFilter string, page, pageSize int) (models.PropertyPage, error)
	ListContracts(ctx context.Context, propertyID int64) ([]models.Contract, error)
	UpdateProperty(ctx context.Context, propertyID int64, upd models.PropertyUpdate) (models.Property, error)
}

// RecordStore is the secondary store receiving export records.
type RecordStore interface {
	CreateExportRecord(ctx context.Context, rec models.ExportRecord) (string, error)
	ScanExportRecords(ctx context.Context) ([]models.ExportRecord, error)
	GetExportRecord(ctx context.Context, handle string) (models.ExportRecord, error)
	UpdateExportRecord(ctx context.Context, handle string, rec models.ExportRecord) error
}
