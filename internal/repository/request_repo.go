package repository

import (
	"context"
	"errors"

	"meterstock/internal/model"

	"gorm.io/gorm"
)

// Record store failure modes surfaced to the service layer.
var (
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateID means put_new was called with a request id already in use.
	ErrDuplicateID = errors.New("duplicate request id")
	// ErrVersionConflict means a concurrent writer updated the record between
	// the caller's read and write. The caller should re-fetch and re-apply the
	// transition, never blindly retry the stale write.
	ErrVersionConflict = errors.New("version conflict")
)

// RequestFilter narrows List results for role-scoped dashboards.
type RequestFilter struct {
	Status        string
	Origin        string
	InstallerName string
	Page          int
	Limit         int
}

// RequestRepository is the keyed record store for stock requests. Updates go
// through compare-and-swap on the per-record version column so a lost update
// between two concurrent reviewers is impossible.
type RequestRepository interface {
	Create(ctx context.Context, rec *model.StockRequest) error
	FindByRequestID(ctx context.Context, requestID string) (*model.StockRequest, error)
	UpdateCAS(ctx context.Context, rec *model.StockRequest, expectedVersion int) error
	List(ctx context.Context, filter RequestFilter) ([]model.StockRequest, int64, error)
	ListAll(ctx context.Context) ([]model.StockRequest, error)
	DeleteByRequestID(ctx context.Context, requestID string) error
	// ReplaceAll wipes the table and inserts records verbatim. Only the
	// archive restore path uses it.
	ReplaceAll(ctx context.Context, records []model.StockRequest) error
}

type requestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepository{db: db}
}

func (r *requestRepository) Create(ctx context.Context, rec *model.StockRequest) error {
	db := GetDB(ctx, r.db)
	var count int64
	if err := db.Model(&model.StockRequest{}).Where("request_id = ?", rec.RequestID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrDuplicateID
	}
	rec.Version = 1
	return db.Create(rec).Error
}

func (r *requestRepository) FindByRequestID(ctx context.Context, requestID string) (*model.StockRequest, error) {
	var rec model.StockRequest
	if err := GetDB(ctx, r.db).First(&rec, "request_id = ?", requestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// UpdateCAS persists rec only if the stored version still equals
// expectedVersion, bumping the version in the same statement.
func (r *requestRepository) UpdateCAS(ctx context.Context, rec *model.StockRequest, expectedVersion int) error {
	rec.Version = expectedVersion + 1
	res := GetDB(ctx, r.db).Model(&model.StockRequest{}).
		Where("request_id = ? AND version = ?", rec.RequestID, expectedVersion).
		Select("*").Omit("id", "request_id", "created_at").
		Updates(rec)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// Either the record vanished or somebody raced us; distinguish them.
		var count int64
		if err := GetDB(ctx, r.db).Model(&model.StockRequest{}).Where("request_id = ?", rec.RequestID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}
		return ErrVersionConflict
	}
	return nil
}

func (r *requestRepository) List(ctx context.Context, filter RequestFilter) ([]model.StockRequest, int64, error) {
	db := GetDB(ctx, r.db)

	query := db.Model(&model.StockRequest{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Origin != "" {
		query = query.Where("origin = ?", filter.Origin)
	}
	if filter.InstallerName != "" {
		query = query.Where("LOWER(installer_name) = LOWER(?)", filter.InstallerName)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	limit := filter.Limit
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	var records []model.StockRequest
	if err := query.Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&records).Error; err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

func (r *requestRepository) ListAll(ctx context.Context) ([]model.StockRequest, error) {
	var records []model.StockRequest
	if err := GetDB(ctx, r.db).Order("created_at ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *requestRepository) ReplaceAll(ctx context.Context, records []model.StockRequest) error {
	db := GetDB(ctx, r.db)
	if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.StockRequest{}).Error; err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}
	return db.Create(&records).Error
}

func (r *requestRepository) DeleteByRequestID(ctx context.Context, requestID string) error {
	res := GetDB(ctx, r.db).Where("request_id = ?", requestID).Delete(&model.StockRequest{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
