package inmemory

import (
	"context"
	"fmt"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/bhawdeadlydan/mysfirmware/applications/server/domain"
	"github.com/bhawdeadlydan/mysfirmware/applications/server/interfaces"
)

const DefaultCapacityInBytes = 100 * 1024 * 1024 // 100 Mb

type inMemoryFirmwareStorage struct {
	firmwares map[domain.FirmwareKey]domain.Firmware
	freeSpace int
	log       log.Logger
	mutex     sync.RWMutex
}

func NewFirmwareStorage(capacity int, logger log.Logger) interfaces.FirmwareStorage {
	if capacity <= 0 {
		capacity = DefaultCapacityInBytes
	}

	return &inMemoryFirmwareStorage{
		firmwares: map[domain.FirmwareKey]domain.Firmware{},
		freeSpace: capacity,
		log:       logger,
	}
}

func (m *inMemoryFirmwareStorage) CreateFirmware(ctx context.Context, fw domain.Firmware) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	key := fw.Key()
	if _, ok := m.firmwares[key]; ok {
		return fmt.Errorf("type = %d, version = %d: %w", key.TypeID, key.VersionID, interfaces.ErrFirmwareExists)
	}

	size := len(fw.Binary)
	if size > m.freeSpace {
		return fmt.Errorf("%s requested, %s free: %w",
			humanize.Bytes(uint64(size)), humanize.Bytes(uint64(m.freeSpace)), interfaces.ErrNotEnoughSpace)
	}

	binary := make([]byte, size)
	copy(binary, fw.Binary)
	fw.Binary = binary

	m.firmwares[key] = fw
	m.freeSpace -= size

	level.Info(m.log).Log("msg", "firmware stored",
		"id", fw.ID,
		"type", key.TypeID,
		"version", key.VersionID,
		"size", humanize.Bytes(uint64(size)),
		"free_space", humanize.Bytes(uint64(m.freeSpace)),
	)

	return nil
}

func (m *inMemoryFirmwareStorage) ListFirmwares(ctx context.Context) ([]domain.Firmware, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	result := make([]domain.Firmware, 0, len(m.firmwares))
	for _, fw := range m.firmwares {
		result = append(result, fw)
	}

	return result, nil
}

func (m *inMemoryFirmwareStorage) GetFirmware(ctx context.Context, key domain.FirmwareKey) (domain.Firmware, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	fw, ok := m.firmwares[key]
	if !ok {
		return domain.Firmware{}, fmt.Errorf("type = %d, version = %d: %w", key.TypeID, key.VersionID, interfaces.ErrFirmwareNotFound)
	}

	return fw, nil
}

func (m *inMemoryFirmwareStorage) DeleteFirmware(ctx context.Context, key domain.FirmwareKey) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	fw, ok := m.firmwares[key]
	if !ok {
		return fmt.Errorf("type = %d, version = %d: %w", key.TypeID, key.VersionID, interfaces.ErrFirmwareNotFound)
	}

	delete(m.firmwares, key)
	m.freeSpace += len(fw.Binary)

	level.Info(m.log).Log("msg", "firmware deleted",
		"id", fw.ID,
		"type", key.TypeID,
		"version", key.VersionID,
	)

	return nil
}

func (m *inMemoryFirmwareStorage) GetFreeSpace() (int, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return m.freeSpace, nil
}
