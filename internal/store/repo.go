package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repo owns the persisted telemetry entities. Every exported method is one
// self-contained transaction, safe for concurrent callers.
type Repo struct {
	db *gorm.DB
}

func OpenSQLite(path string) (*gorm.DB, error) {
	return gorm.Open(sqlite.Open(path+"?_busy_timeout=5000"), &gorm.Config{TranslateError: true})
}

func OpenPostgres(user, password, dbName, host, port, sslMode string) (*gorm.DB, error) {
	if sslMode == "" {
		sslMode = "disable"
	}
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC", host, user, password, dbName, port, sslMode)
	return gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
}

func New(db *gorm.DB) (*Repo, error) {
	if err := db.AutoMigrate(&ValueType{}, &Location{}, &Device{}, &Value{}); err != nil {
		return nil, err
	}
	return &Repo{db: db}, nil
}

// translateErr maps GORM's translated errors onto the store's taxonomy.
func translateErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", ErrIntegrityViolation, err)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	default:
		return err
	}
}

// UpsertValueType creates the value type if absent, otherwise updates the
// supplied non-empty fields. A freshly created row gets deterministic
// placeholders (TYPE_<id>, UNIT_<id>) for fields not supplied.
func (r *Repo) UpsertValueType(ctx context.Context, id int, name, unit string) (*ValueType, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: value type id is required", ErrInvalidArgument)
	}
	var vt ValueType
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureValueType(tx, id, name, unit); err != nil {
			return err
		}
		updates := map[string]any{}
		if name != "" {
			updates["type_name"] = name
		}
		if unit != "" {
			updates["type_unit"] = unit
		}
		if len(updates) > 0 {
			if err := tx.Model(&ValueType{}).Where("id = ?", id).Updates(updates).Error; err != nil {
				return err
			}
		}
		return tx.First(&vt, "id = ?", id).Error
	})
	if err != nil {
		return nil, translateErr(err)
	}
	return &vt, nil
}

// ensureValueType inserts the row if it does not exist yet. ON CONFLICT DO
// NOTHING keeps concurrent create-vs-update branches from racing into a
// duplicate-key failure.
func ensureValueType(tx *gorm.DB, id int, name, unit string) error {
	if name == "" {
		name = fmt.Sprintf("TYPE_%d", id)
	}
	if unit == "" {
		unit = fmt.Sprintf("UNIT_%d", id)
	}
	vt := ValueType{ID: id, TypeName: name, TypeUnit: unit}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&vt).Error
}

// UpsertDevice updates the non-empty fields of the device with the given id,
// creating it first if needed. id == 0 always creates, letting the database
// assign the id.
func (r *Repo) UpsertDevice(ctx context.Context, id int, name, description string, locationID int) (*Device, error) {
	var dev Device
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if id > 0 {
			err := tx.First(&dev, "id = ?", id).Error
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			if err == nil {
				if name != "" {
					dev.DeviceName = name
				}
				if description != "" {
					dev.DeviceDescription = description
				}
				if locationID > 0 {
					dev.LocationID = locationID
				}
				return tx.Save(&dev).Error
			}
		}
		dev = Device{ID: id, DeviceName: name, DeviceDescription: description, LocationID: locationID}
		return tx.Create(&dev).Error
	})
	if err != nil {
		return nil, translateErr(err)
	}
	return &dev, nil
}

// UpsertLocation follows the same pattern as UpsertDevice.
func (r *Repo) UpsertLocation(ctx context.Context, id int, name, description string) (*Location, error) {
	var loc Location
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if id > 0 {
			err := tx.First(&loc, "id = ?", id).Error
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			if err == nil {
				if name != "" {
					loc.LocationName = name
				}
				if description != "" {
					loc.LocationDescription = description
				}
				return tx.Save(&loc).Error
			}
		}
		loc = Location{ID: id, LocationName: name, LocationDescription: description}
		return tx.Create(&loc).Error
	})
	if err != nil {
		return nil, translateErr(err)
	}
	return &loc, nil
}

// AddValue records one measurement. The referenced value type is auto-created
// with placeholder name/unit; the device must already exist. A duplicate
// (device, type, time) row fails with ErrIntegrityViolation.
func (r *Repo) AddValue(ctx context.Context, t int64, valueTypeID int, value float64, deviceID int) error {
	if valueTypeID <= 0 {
		return fmt.Errorf("%w: value type id is required", ErrInvalidArgument)
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureValueType(tx, valueTypeID, "", ""); err != nil {
			return err
		}
		v := Value{Time: t, ValueTypeID: valueTypeID, Value: value, DeviceID: deviceID}
		return tx.Create(&v).Error
	})
	return translateErr(err)
}

// ValueFilter narrows GetValues. Nil fields pass all rows; set fields apply
// conjunctively.
type ValueFilter struct {
	TypeID     *int
	Start      *int64
	End        *int64
	DeviceID   *int
	LocationID *int
}

// GetValues returns matching values ordered by ascending time. A TypeID
// filter naming an unknown value type fails with ErrNotFound; a known type
// with no matching rows returns an empty slice.
func (r *Repo) GetValues(ctx context.Context, f ValueFilter) ([]Value, error) {
	if f.TypeID != nil {
		if _, err := r.GetValueType(ctx, *f.TypeID); err != nil {
			return nil, err
		}
	}
	q := r.db.WithContext(ctx).Model(&Value{}).Order("time ASC, id ASC")
	if f.TypeID != nil {
		q = q.Where("value_type_id = ?", *f.TypeID)
	}
	if f.Start != nil {
		q = q.Where("time >= ?", *f.Start)
	}
	if f.End != nil {
		q = q.Where("time <= ?", *f.End)
	}
	if f.DeviceID != nil {
		q = q.Where("device_id = ?", *f.DeviceID)
	}
	if f.LocationID != nil {
		sub := r.db.Model(&Device{}).Select("id").Where("location_id = ?", *f.LocationID)
		q = q.Where("device_id IN (?)", sub)
	}
	var rows []Value
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repo) GetValueType(ctx context.Context, id int) (*ValueType, error) {
	var vt ValueType
	if err := r.db.WithContext(ctx).First(&vt, "id = ?", id).Error; err != nil {
		return nil, translateErr(err)
	}
	return &vt, nil
}

func (r *Repo) GetDevice(ctx context.Context, id int) (*Device, error) {
	var dev Device
	if err := r.db.WithContext(ctx).First(&dev, "id = ?", id).Error; err != nil {
		return nil, translateErr(err)
	}
	return &dev, nil
}

func (r *Repo) GetLocation(ctx context.Context, id int) (*Location, error) {
	var loc Location
	if err := r.db.WithContext(ctx).First(&loc, "id = ?", id).Error; err != nil {
		return nil, translateErr(err)
	}
	return &loc, nil
}

func (r *Repo) GetValueTypes(ctx context.Context) ([]ValueType, error) {
	var rows []ValueType
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repo) GetDevices(ctx context.Context) ([]Device, error) {
	var rows []Device
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repo) GetLocations(ctx context.Context) ([]Location, error) {
	var rows []Location
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// GetDeviceValues returns all values recorded by one device, ordered by time.
func (r *Repo) GetDeviceValues(ctx context.Context, deviceID int) ([]Value, error) {
	if _, err := r.GetDevice(ctx, deviceID); err != nil {
		return nil, err
	}
	id := deviceID
	return r.GetValues(ctx, ValueFilter{DeviceID: &id})
}

// GetLocationValues returns all values whose device sits at the given
// location, joined through the devices table.
func (r *Repo) GetLocationValues(ctx context.Context, locationID int) ([]Value, error) {
	if _, err := r.GetLocation(ctx, locationID); err != nil {
		return nil, err
	}
	id := locationID
	return r.GetValues(ctx, ValueFilter{LocationID: &id})
}
