package store

// ValueType describes one kind of measurement (temperature, humidity, ...).
// Rows referenced by ingested frames are auto-created with placeholder
// name/unit until someone names them properly.
type ValueType struct {
	ID       int    `gorm:"primaryKey" json:"id"`
	TypeName string `json:"type_name"`
	TypeUnit string `json:"type_unit"`
}

type Location struct {
	ID                  int    `gorm:"primaryKey" json:"id"`
	LocationName        string `json:"location_name"`
	LocationDescription string `json:"location_description"`
}

// Device is a physical sensor device. LocationID must reference an existing
// Location; the schema does not enforce this at write time but readers rely
// on it.
type Device struct {
	ID                int    `gorm:"primaryKey" json:"id"`
	DeviceName        string `json:"device_name"`
	DeviceDescription string `json:"device_description"`
	LocationID        int    `gorm:"index" json:"location_id"`
}

// Value is one immutable measurement. The unique index on
// (device_id, value_type_id, time) is what turns a re-read of an exhausted
// sensor stream into ErrIntegrityViolation.
type Value struct {
	ID          int     `gorm:"primaryKey" json:"id"`
	ValueTypeID int     `gorm:"not null;uniqueIndex:idx_values_device_type_time,priority:2" json:"value_type_id"`
	DeviceID    int     `gorm:"not null;uniqueIndex:idx_values_device_type_time,priority:1" json:"device_id"`
	Time        int64   `gorm:"index;uniqueIndex:idx_values_device_type_time,priority:3" json:"time"`
	Value       float64 `json:"value"`
}
