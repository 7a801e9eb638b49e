package database

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	domainGateway "gateway-registry/internal/domain/gateway"
	"gateway-registry/internal/infrastructure/database/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GatewayRepository implements domain gateway.Repository on gorm. A gateway
// and its devices are written in one transaction, with the gateway row locked
// for the duration.
type GatewayRepository struct {
	db *DB
}

var _ domainGateway.Repository = (*GatewayRepository)(nil)

// NewGatewayRepository creates a new gateway repository
func NewGatewayRepository(db *DB) *GatewayRepository {
	return &GatewayRepository{db: db}
}

func orderedDevices(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func (r *GatewayRepository) List(ctx context.Context) ([]*domainGateway.Gateway, error) {
	var dbModels []models.GatewayModel
	err := r.db.DB.WithContext(ctx).
		Preload("PeripheralDevices", orderedDevices).
		Order("created_at ASC, serial_number ASC").
		Find(&dbModels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list gateways: %w", err)
	}

	gateways := make([]*domainGateway.Gateway, len(dbModels))
	for i := range dbModels {
		gateways[i] = toGatewayEntity(&dbModels[i])
	}
	return gateways, nil
}

func (r *GatewayRepository) GetBySerial(ctx context.Context, serialNumber string) (*domainGateway.Gateway, error) {
	var dbModel models.GatewayModel
	err := r.db.DB.WithContext(ctx).
		Preload("PeripheralDevices", orderedDevices).
		Where("serial_number = ?", serialNumber).
		First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainGateway.ErrGatewayNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get gateway: %w", err)
	}

	return toGatewayEntity(&dbModel), nil
}

func (r *GatewayRepository) ExistsBySerial(ctx context.Context, serialNumber string) (bool, error) {
	var count int64
	err := r.db.DB.WithContext(ctx).
		Model(&models.GatewayModel{}).
		Where("serial_number = ?", serialNumber).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check gateway: %w", err)
	}
	return count > 0, nil
}

func (r *GatewayRepository) Create(ctx context.Context, gw *domainGateway.Gateway) error {
	now := time.Now().UTC().Truncate(time.Millisecond)
	gw.ID = uuid.New()
	gw.CreatedAt = now
	gw.UpdatedAt = now

	dbModel := toGatewayModel(gw)
	return r.db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkUIDsAvailable(tx, gw.PeripheralDevices, uuid.Nil); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(dbModel).Error; err != nil {
			return conflictOrWrap(err, gw, "failed to create gateway")
		}
		return insertDevices(tx, gw.ID, gw.PeripheralDevices, 0)
	})
}

func (r *GatewayRepository) Update(ctx context.Context, serialNumber string, mutate domainGateway.MutateFunc) (*domainGateway.Gateway, error) {
	var updated *domainGateway.Gateway

	err := r.db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := lockGateway(tx, serialNumber)
		if err != nil {
			return err
		}

		next, err := mutate(current)
		if err != nil {
			return err
		}
		next.ID = current.ID
		next.SerialNumber = current.SerialNumber
		next.CreatedAt = current.CreatedAt
		next.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)

		result := tx.Model(&models.GatewayModel{}).
			Where("id = ?", current.ID).
			Updates(map[string]interface{}{
				"name":         next.Name,
				"ipv4_address": next.IPv4Address,
				"updated_at":   next.UpdatedAt,
			})
		if result.Error != nil {
			return conflictOrWrap(result.Error, next, "failed to update gateway")
		}

		if !sameDevices(current.PeripheralDevices, next.PeripheralDevices) {
			if err := checkUIDsAvailable(tx, next.PeripheralDevices, current.ID); err != nil {
				return err
			}
			if err := tx.Where("gateway_id = ?", current.ID).Delete(&models.PeripheralDeviceModel{}).Error; err != nil {
				return fmt.Errorf("failed to replace devices: %w", err)
			}
			if err := insertDevices(tx, current.ID, next.PeripheralDevices, 0); err != nil {
				return err
			}
		}

		updated = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (r *GatewayRepository) Delete(ctx context.Context, serialNumber string) (*domainGateway.Gateway, error) {
	var deleted *domainGateway.Gateway

	err := r.db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := lockGateway(tx, serialNumber)
		if err != nil {
			return err
		}

		if err := tx.Where("gateway_id = ?", current.ID).Delete(&models.PeripheralDeviceModel{}).Error; err != nil {
			return fmt.Errorf("failed to delete devices: %w", err)
		}

		result := tx.Where("id = ?", current.ID).Delete(&models.GatewayModel{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete gateway: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return domainGateway.ErrGatewayNotFound
		}

		deleted = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	return deleted, nil
}

func (r *GatewayRepository) AddDevice(ctx context.Context, serialNumber string, device *domainGateway.Device) (*domainGateway.Gateway, error) {
	var updated *domainGateway.Gateway

	err := r.db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := lockGateway(tx, serialNumber)
		if err != nil {
			return err
		}

		if current.IsFull() {
			return domainGateway.ErrDeviceLimitReached
		}
		if err := checkUIDsAvailable(tx, []domainGateway.Device{*device}, uuid.Nil); err != nil {
			return err
		}

		var maxPosition int
		err = tx.Model(&models.PeripheralDeviceModel{}).
			Select("COALESCE(MAX(position), -1)").
			Where("gateway_id = ?", current.ID).
			Scan(&maxPosition).Error
		if err != nil {
			return fmt.Errorf("failed to add device: %w", err)
		}

		if err := insertDevices(tx, current.ID, []domainGateway.Device{*device}, maxPosition+1); err != nil {
			return err
		}

		current.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
		err = tx.Model(&models.GatewayModel{}).
			Where("id = ?", current.ID).
			Update("updated_at", current.UpdatedAt).Error
		if err != nil {
			return fmt.Errorf("failed to add device: %w", err)
		}

		current.PeripheralDevices = append(current.PeripheralDevices, *device)
		updated = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// RemoveDevice deletes the device in a single conditional statement, so
// concurrent removals cannot both succeed.
func (r *GatewayRepository) RemoveDevice(ctx context.Context, serialNumber string, uid int64) error {
	db := r.db.DB.WithContext(ctx)
	owner := db.Model(&models.GatewayModel{}).
		Select("id").
		Where("serial_number = ?", serialNumber)

	result := db.
		Where("uid = ? AND gateway_id IN (?)", uid, owner).
		Delete(&models.PeripheralDeviceModel{})

	if result.Error != nil {
		return fmt.Errorf("failed to remove device: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domainGateway.ErrDeviceNotFound
	}

	return nil
}

// lockGateway loads a gateway and its devices, holding a row lock on the
// gateway until the transaction ends.
func lockGateway(tx *gorm.DB, serialNumber string) (*domainGateway.Gateway, error) {
	var dbModel models.GatewayModel
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("serial_number = ?", serialNumber).
		First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainGateway.ErrGatewayNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get gateway: %w", err)
	}

	err = tx.Where("gateway_id = ?", dbModel.ID).
		Order("position ASC").
		Find(&dbModel.PeripheralDevices).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get devices: %w", err)
	}

	return toGatewayEntity(&dbModel), nil
}

// checkUIDsAvailable reports the first uid that is repeated in devices or
// already stored on a gateway other than owner.
func checkUIDsAvailable(tx *gorm.DB, devices []domainGateway.Device, owner uuid.UUID) error {
	if len(devices) == 0 {
		return nil
	}

	seen := make(map[int64]struct{}, len(devices))
	uids := make([]int64, 0, len(devices))
	for _, d := range devices {
		if _, dup := seen[d.UID]; dup {
			return uidConflict(d.UID)
		}
		seen[d.UID] = struct{}{}
		uids = append(uids, d.UID)
	}

	query := tx.Model(&models.PeripheralDeviceModel{}).Where("uid IN ?", uids)
	if owner != uuid.Nil {
		query = query.Where("gateway_id <> ?", owner)
	}

	var taken []int64
	if err := query.Order("uid ASC").Limit(1).Pluck("uid", &taken).Error; err != nil {
		return fmt.Errorf("failed to check device uid: %w", err)
	}
	if len(taken) > 0 {
		return uidConflict(taken[0])
	}
	return nil
}

func insertDevices(tx *gorm.DB, gatewayID uuid.UUID, devices []domainGateway.Device, firstPosition int) error {
	if len(devices) == 0 {
		return nil
	}

	rows := make([]models.PeripheralDeviceModel, len(devices))
	for i := range devices {
		rows[i] = toDeviceModel(gatewayID, &devices[i], firstPosition+i)
	}
	if err := tx.Create(&rows).Error; err != nil {
		var conflict *domainGateway.ConflictError
		if errors.As(translateError(err), &conflict) {
			return conflict
		}
		return fmt.Errorf("failed to save devices: %w", err)
	}
	return nil
}

func uidConflict(uid int64) error {
	return &domainGateway.ConflictError{
		Field: domainGateway.FieldUID,
		Value: strconv.FormatInt(uid, 10),
	}
}

// conflictOrWrap fills in the conflicting value for gateway-level unique
// fields. The serial number is left out so its message stays generic.
func conflictOrWrap(err error, gw *domainGateway.Gateway, msg string) error {
	translated := translateError(err)

	var conflict *domainGateway.ConflictError
	if !errors.As(translated, &conflict) {
		return fmt.Errorf("%s: %w", msg, err)
	}
	if conflict.Field == domainGateway.FieldIPv4Address {
		conflict.Value = gw.IPv4Address
	}
	return conflict
}

func sameDevices(a, b []domainGateway.Device) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].UID != b[i].UID ||
			a[i].Vendor != b[i].Vendor ||
			a[i].Status != b[i].Status ||
			!a[i].DateCreated.Equal(b[i].DateCreated) {
			return false
		}
	}
	return true
}

func toGatewayModel(g *domainGateway.Gateway) *models.GatewayModel {
	return &models.GatewayModel{
		ID:           g.ID,
		SerialNumber: g.SerialNumber,
		Name:         g.Name,
		IPv4Address:  g.IPv4Address,
		CreatedAt:    g.CreatedAt,
		UpdatedAt:    g.UpdatedAt,
	}
}

func toDeviceModel(gatewayID uuid.UUID, d *domainGateway.Device, position int) models.PeripheralDeviceModel {
	return models.PeripheralDeviceModel{
		ID:          uuid.New(),
		GatewayID:   gatewayID,
		UID:         d.UID,
		Vendor:      d.Vendor,
		DateCreated: d.DateCreated.UTC(),
		Status:      string(d.Status),
		Position:    position,
	}
}

func toGatewayEntity(m *models.GatewayModel) *domainGateway.Gateway {
	devices := make([]domainGateway.Device, len(m.PeripheralDevices))
	for i, d := range m.PeripheralDevices {
		devices[i] = domainGateway.Device{
			UID:         d.UID,
			Vendor:      d.Vendor,
			DateCreated: d.DateCreated.UTC(),
			Status:      domainGateway.DeviceStatus(d.Status),
		}
	}

	return &domainGateway.Gateway{
		ID:                m.ID,
		SerialNumber:      m.SerialNumber,
		Name:              m.Name,
		IPv4Address:       m.IPv4Address,
		PeripheralDevices: devices,
		CreatedAt:         m.CreatedAt.UTC(),
		UpdatedAt:         m.UpdatedAt.UTC(),
	}
}
