package interfaces

import (
	"context"
	"errors"

	"github.com/bhawdeadlydan/mysfirmware/applications/server/domain"
)

var (
	ErrFirmwareExists   = errors.New("firmware already exists")
	ErrFirmwareNotFound = errors.New("firmware not found")
	ErrNotEnoughSpace   = errors.New("not enough free space")
)

type FirmwareStorage interface {
	CreateFirmware(ctx context.Context, fw domain.Firmware) error
	ListFirmwares(ctx context.Context) ([]domain.Firmware, error)
	GetFirmware(ctx context.Context, key domain.FirmwareKey) (domain.Firmware, error)
	DeleteFirmware(ctx context.Context, key domain.FirmwareKey) error
	GetFreeSpace() (int, error)
}
