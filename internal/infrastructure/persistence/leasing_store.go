package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/estate/backend/internal/domain/leasing"
	"github.com/estate/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormRecordStore implements leasing.RecordStore on a relational database.
// The single-active-contract rule and match uniqueness are enforced by indexes,
// so concurrent writers race on the database rather than on a read-then-write.
type GormRecordStore struct {
	db *gorm.DB
}

// NewGormRecordStore creates a new GormRecordStore
func NewGormRecordStore(db *gorm.DB) *GormRecordStore {
	return &GormRecordStore{db: db}
}

var _ leasing.RecordStore = (*GormRecordStore)(nil)

// Tenants returns the tenant repository
func (s *GormRecordStore) Tenants() leasing.TenantRepository {
	return &GormTenantRepository{db: s.db}
}

// Properties returns the property repository
func (s *GormRecordStore) Properties() leasing.PropertyRepository {
	return &GormPropertyRepository{db: s.db}
}

// Contracts returns the contract repository
func (s *GormRecordStore) Contracts() leasing.ContractRepository {
	return &GormContractRepository{db: s.db}
}

// Inquiries returns the inquiry repository
func (s *GormRecordStore) Inquiries() leasing.InquiryRepository {
	return &GormInquiryRepository{db: s.db}
}

// Matches returns the match repository
func (s *GormRecordStore) Matches() leasing.MatchRepository {
	return &GormMatchRepository{db: s.db}
}

// CreateTenantAndContract inserts the tenant and its contract in one transaction
func (s *GormRecordStore) CreateTenantAndContract(ctx context.Context, tenant *leasing.Tenant, contract *leasing.Contract) error {
	contract.TenantID = tenant.ID

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.PropertyModel{}).Where("id = ?", contract.PropertyID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return leasing.ErrPropertyNotFound
		}

		now := time.Now()
		stamp(&tenant.CreatedAt, &tenant.UpdatedAt, now)
		stamp(&contract.CreatedAt, &contract.UpdatedAt, now)

		if err := tx.Create(models.TenantModelFromDomain(tenant)).Error; err != nil {
			return err
		}
		return tx.Create(models.ContractModelFromDomain(contract)).Error
	})
	return translateContractWrite(err)
}

// RollbackTenantAndContract deletes the contract and the tenant in one transaction
func (s *GormRecordStore) RollbackTenantAndContract(ctx context.Context, tenantID, contractID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", contractID).Delete(&models.ContractModel{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", tenantID).Delete(&models.TenantModel{}).Error
	})
}

func stamp(created, updated *time.Time, now time.Time) {
	if created.IsZero() {
		*created = now
	}
	*updated = now
}

// GormTenantRepository implements leasing.TenantRepository using GORM
type GormTenantRepository struct {
	db *gorm.DB
}

// FindByID finds a tenant by its ID
func (r *GormTenantRepository) FindByID(ctx context.Context, id uuid.UUID) (*leasing.Tenant, error) {
	var model models.TenantModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, leasing.ErrTenantNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates a tenant
func (r *GormTenantRepository) Save(ctx context.Context, tenant *leasing.Tenant) error {
	stamp(&tenant.CreatedAt, &tenant.UpdatedAt, time.Now())
	return r.db.WithContext(ctx).Save(models.TenantModelFromDomain(tenant)).Error
}

// DeleteIfNoActiveContract removes the tenant and its non-active contracts.
// The final delete re-checks for an active contract so a concurrent activation wins.
func (r *GormTenantRepository) DeleteIfNoActiveContract(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.TenantModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return leasing.ErrTenantNotFound
		}

		if err := tx.Model(&models.ContractModel{}).
			Where("tenant_id = ? AND status = ?", id, leasing.ContractStatusActive).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return leasing.ErrTenantHasActiveContract
		}

		if err := tx.Where("tenant_id = ? AND status <> ?", id, leasing.ContractStatusActive).
			Delete(&models.ContractModel{}).Error; err != nil {
			return err
		}

		result := tx.Where(
			"id = ? AND NOT EXISTS (SELECT 1 FROM contracts WHERE contracts.tenant_id = tenants.id AND contracts.status = ?)",
			id, leasing.ContractStatusActive,
		).Delete(&models.TenantModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return leasing.ErrTenantHasActiveContract
		}
		return nil
	})
}

// GormPropertyRepository implements leasing.PropertyRepository using GORM
type GormPropertyRepository struct {
	db *gorm.DB
}

// FindByID finds a property by its ID
func (r *GormPropertyRepository) FindByID(ctx context.Context, id uuid.UUID) (*leasing.Property, error) {
	var model models.PropertyModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, leasing.ErrPropertyNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAvailable lists Empty properties of the listing type, oldest first
func (r *GormPropertyRepository) FindAvailable(ctx context.Context, listingType leasing.ListingType) ([]leasing.Property, error) {
	var rows []models.PropertyModel
	if err := r.db.WithContext(ctx).
		Where("listing_type = ? AND status = ?", listingType, leasing.PropertyStatusEmpty).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]leasing.Property, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].ToDomain())
	}
	return out, nil
}

// Save creates or updates a property
func (r *GormPropertyRepository) Save(ctx context.Context, property *leasing.Property) error {
	stamp(&property.CreatedAt, &property.UpdatedAt, time.Now())
	return r.db.WithContext(ctx).Save(models.PropertyModelFromDomain(property)).Error
}

// UpdateStatus sets the occupancy status of a property
func (r *GormPropertyRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status leasing.PropertyStatus) error {
	result := r.db.WithContext(ctx).Model(&models.PropertyModel{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "updated_at": time.Now()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return leasing.ErrPropertyNotFound
	}
	return nil
}

// GormContractRepository implements leasing.ContractRepository using GORM
type GormContractRepository struct {
	db *gorm.DB
}

// FindByID finds a contract by its ID
func (r *GormContractRepository) FindByID(ctx context.Context, id uuid.UUID) (*leasing.Contract, error) {
	var model models.ContractModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, leasing.ErrContractNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByTenant lists a tenant's contracts ordered by start date
func (r *GormContractRepository) FindByTenant(ctx context.Context, tenantID uuid.UUID) ([]leasing.Contract, error) {
	return r.find(ctx, r.db.Where("tenant_id = ?", tenantID).Order("start_date ASC"))
}

// FindActiveByProperty returns the Active contract of a property
func (r *GormContractRepository) FindActiveByProperty(ctx context.Context, propertyID uuid.UUID) (*leasing.Contract, error) {
	var model models.ContractModel
	if err := r.db.WithContext(ctx).
		Where("property_id = ? AND status = ?", propertyID, leasing.ContractStatusActive).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, leasing.ErrContractNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindReminderCandidates lists Active, reminder-enabled, uncontacted contracts by end date
func (r *GormContractRepository) FindReminderCandidates(ctx context.Context) ([]leasing.Contract, error) {
	return r.find(ctx, r.db.
		Where("status = ? AND reminder_enabled = ? AND reminder_contacted = ?", leasing.ContractStatusActive, true, false).
		Order("end_date ASC"))
}

func (r *GormContractRepository) find(ctx context.Context, query *gorm.DB) ([]leasing.Contract, error) {
	var rows []models.ContractModel
	if err := query.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]leasing.Contract, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].ToDomain())
	}
	return out, nil
}

// Save creates or updates a contract. A second Active contract for the
// property fails with ErrActiveContractConflict.
func (r *GormContractRepository) Save(ctx context.Context, contract *leasing.Contract) error {
	if err := leasing.ValidateDateRange(contract.StartDate, contract.EndDate); err != nil {
		return err
	}
	stamp(&contract.CreatedAt, &contract.UpdatedAt, time.Now())
	return translateContractWrite(r.db.WithContext(ctx).Save(models.ContractModelFromDomain(contract)).Error)
}

// SetDates rewrites the lease dates and nothing else. The range is checked
// here and again by the table's end_date > start_date constraint.
func (r *GormContractRepository) SetDates(ctx context.Context, id uuid.UUID, start, end time.Time) error {
	if err := leasing.ValidateDateRange(start, end); err != nil {
		return err
	}
	return r.update(ctx, id, models.DateColumns(start, end))
}

// SetReminderSettings rewrites the reminder settings columns only
func (r *GormContractRepository) SetReminderSettings(ctx context.Context, id uuid.UUID, settings leasing.ReminderSettings) error {
	if settings.LeadDays < 0 {
		return leasing.ErrInvalidLeadDays
	}
	return r.update(ctx, id, models.ReminderSettingsColumns(settings))
}

// UpdateStatus changes the contract status in a single statement guarded by
// the active-contract index
func (r *GormContractRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status leasing.ContractStatus) error {
	return r.update(ctx, id, map[string]any{"status": status})
}

// SetDocumentPath records the stored document reference
func (r *GormContractRepository) SetDocumentPath(ctx context.Context, id uuid.UUID, path string) error {
	return r.update(ctx, id, map[string]any{"document_path": path})
}

// SetReminderContacted sets or clears the reminder contacted flag
func (r *GormContractRepository) SetReminderContacted(ctx context.Context, id uuid.UUID, contacted bool) error {
	return r.update(ctx, id, map[string]any{"reminder_contacted": contacted})
}

func (r *GormContractRepository) update(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	fields["updated_at"] = time.Now()
	result := r.db.WithContext(ctx).Model(&models.ContractModel{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return translateContractWrite(result.Error)
	}
	if result.RowsAffected == 0 {
		return leasing.ErrContractNotFound
	}
	return nil
}

// GormInquiryRepository implements leasing.InquiryRepository using GORM
type GormInquiryRepository struct {
	db *gorm.DB
}

// FindByID finds an inquiry by its ID
func (r *GormInquiryRepository) FindByID(ctx context.Context, id uuid.UUID) (*leasing.Inquiry, error) {
	var model models.InquiryModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, leasing.ErrInquiryNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindActiveByType lists Active inquiries of the listing type, oldest first
func (r *GormInquiryRepository) FindActiveByType(ctx context.Context, listingType leasing.ListingType) ([]leasing.Inquiry, error) {
	var rows []models.InquiryModel
	if err := r.db.WithContext(ctx).
		Where("type = ? AND status = ?", listingType, leasing.InquiryStatusActive).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]leasing.Inquiry, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].ToDomain())
	}
	return out, nil
}

// Save creates or updates an inquiry
func (r *GormInquiryRepository) Save(ctx context.Context, inquiry *leasing.Inquiry) error {
	stamp(&inquiry.CreatedAt, &inquiry.UpdatedAt, time.Now())
	return r.db.WithContext(ctx).Save(models.InquiryModelFromDomain(inquiry)).Error
}

// TransitionStatus moves the inquiry to `to` in one conditional UPDATE.
// Zero affected rows means either a missing inquiry or one whose status is not in from.
func (r *GormInquiryRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from []leasing.InquiryStatus, to leasing.InquiryStatus) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.InquiryModel{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(map[string]any{"status": to, "updated_at": time.Now()})
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected > 0 {
		return true, nil
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&models.InquiryModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	if count == 0 {
		return false, leasing.ErrInquiryNotFound
	}
	return false, nil
}

// GormMatchRepository implements leasing.MatchRepository using GORM
type GormMatchRepository struct {
	db *gorm.DB
}

// FindByID finds a match by its ID
func (r *GormMatchRepository) FindByID(ctx context.Context, id uuid.UUID) (*leasing.Match, error) {
	var model models.MatchModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, leasing.ErrMatchNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Exists reports whether a match for the pair was recorded
func (r *GormMatchRepository) Exists(ctx context.Context, inquiryID, propertyID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.MatchModel{}).
		Where("inquiry_id = ? AND property_id = ?", inquiryID, propertyID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CreateIfAbsent inserts the match with ON CONFLICT DO NOTHING on the pair index.
// It reports true only for the call whose row was written.
func (r *GormMatchRepository) CreateIfAbsent(ctx context.Context, m *leasing.Match) (bool, error) {
	if m.MatchedAt.IsZero() {
		m.MatchedAt = time.Now()
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "inquiry_id"}, {Name: "property_id"}},
			DoNothing: true,
		}).
		Create(models.MatchModelFromDomain(m))
	if result.Error != nil {
		if isMatchPairConflict(result.Error) {
			return false, nil
		}
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// FindByInquiry lists the matches of an inquiry in match order
func (r *GormMatchRepository) FindByInquiry(ctx context.Context, inquiryID uuid.UUID) ([]leasing.Match, error) {
	return r.find(ctx, "inquiry_id = ?", inquiryID)
}

// FindByProperty lists the matches of a property in match order
func (r *GormMatchRepository) FindByProperty(ctx context.Context, propertyID uuid.UUID) ([]leasing.Match, error) {
	return r.find(ctx, "property_id = ?", propertyID)
}

func (r *GormMatchRepository) find(ctx context.Context, where string, arg uuid.UUID) ([]leasing.Match, error) {
	var rows []models.MatchModel
	if err := r.db.WithContext(ctx).Where(where, arg).Order("matched_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]leasing.Match, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].ToDomain())
	}
	return out, nil
}

// MarkNotificationSent flags the match as notified
func (r *GormMatchRepository) MarkNotificationSent(ctx context.Context, id uuid.UUID) error {
	return r.setFlag(ctx, id, "notification_sent")
}

// MarkContacted flags the match as contacted
func (r *GormMatchRepository) MarkContacted(ctx context.Context, id uuid.UUID) error {
	return r.setFlag(ctx, id, "contacted")
}

func (r *GormMatchRepository) setFlag(ctx context.Context, id uuid.UUID, column string) error {
	result := r.db.WithContext(ctx).Model(&models.MatchModel{}).Where("id = ?", id).Update(column, true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return leasing.ErrMatchNotFound
	}
	return nil
}
