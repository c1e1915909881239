package server

import (
	"context"

	"github.com/bhawdeadlydan/mysfirmware/applications/server/domain"
)

type FirmwareService interface {
	CreateFirmware(ctx context.Context, fw domain.NewFirmware) (domain.Firmware, error)
	ListFirmwares(ctx context.Context) ([]domain.Firmware, error)
	GetFirmware(ctx context.Context, key domain.FirmwareKey) (domain.Firmware, error)
	DeleteFirmware(ctx context.Context, key domain.FirmwareKey) error
	GetFreeSpace() (int, error)
}
