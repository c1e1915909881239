package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/bhawdeadlydan/mysfirmware/applications/server"
	"github.com/bhawdeadlydan/mysfirmware/applications/server/domain"
	"github.com/bhawdeadlydan/mysfirmware/applications/server/interfaces"
)

type service struct {
	firmwareStorage interfaces.FirmwareStorage
	now             func() time.Time
}

func NewService(firmwareStorage interfaces.FirmwareStorage) server.FirmwareService {
	return &service{
		firmwareStorage: firmwareStorage,
		now:             time.Now,
	}
}

func (s *service) CreateFirmware(ctx context.Context, nf domain.NewFirmware) (domain.Firmware, error) {
	fw := domain.Firmware{
		ID:        uuid.New().String(),
		TypeID:    nf.TypeID,
		VersionID: nf.VersionID,
		Name:      nf.Name,
		Binary:    nf.Binary,
		CreatedAt: s.now().UTC(),
	}

	if err := s.firmwareStorage.CreateFirmware(ctx, fw); err != nil {
		return domain.Firmware{}, fmt.Errorf("can't store firmware: %w", err)
	}

	return fw, nil
}

// ListFirmwares returns stored firmwares ordered by type, then version.
func (s *service) ListFirmwares(ctx context.Context) ([]domain.Firmware, error) {
	firmwares, err := s.firmwareStorage.ListFirmwares(ctx)
	if err != nil {
		return nil, fmt.Errorf("can't list firmwares: %w", err)
	}

	sort.Slice(firmwares, func(i, j int) bool {
		if firmwares[i].TypeID != firmwares[j].TypeID {
			return firmwares[i].TypeID < firmwares[j].TypeID
		}
		return firmwares[i].VersionID < firmwares[j].VersionID
	})

	return firmwares, nil
}

func (s *service) GetFirmware(ctx context.Context, key domain.FirmwareKey) (domain.Firmware, error) {
	fw, err := s.firmwareStorage.GetFirmware(ctx, key)
	if err != nil {
		return domain.Firmware{}, fmt.Errorf("can't get firmware: %w", err)
	}

	return fw, nil
}

func (s *service) DeleteFirmware(ctx context.Context, key domain.FirmwareKey) error {
	if err := s.firmwareStorage.DeleteFirmware(ctx, key); err != nil {
		return fmt.Errorf("can't delete firmware: %w", err)
	}

	return nil
}

func (s *service) GetFreeSpace() (int, error) {
	freeSpace, err := s.firmwareStorage.GetFreeSpace()
	if err != nil {
		return 0, fmt.Errorf("can't get free space: %w", err)
	}

	return freeSpace, nil
}
