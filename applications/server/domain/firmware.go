package domain

import "time"

// NewFirmware is a firmware creation request produced from an upload.
type NewFirmware struct {
	TypeID    int32
	VersionID int32
	Name      string
	Binary    []byte
}

func NewFirmwareRequest(typeID, versionID int32, name string, binary []byte) NewFirmware {
	if binary == nil {
		binary = []byte{}
	}

	return NewFirmware{
		TypeID:    typeID,
		VersionID: versionID,
		Name:      name,
		Binary:    binary,
	}
}

// Firmware is a stored firmware image, unique by type and version.
type Firmware struct {
	ID        string
	TypeID    int32
	VersionID int32
	Name      string
	Binary    []byte
	CreatedAt time.Time
}

type FirmwareKey struct {
	TypeID    int32
	VersionID int32
}

func (f Firmware) Key() FirmwareKey {
	return FirmwareKey{TypeID: f.TypeID, VersionID: f.VersionID}
}
