package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Server is the service configuration.
type Server struct {
	API     Api     `yaml:"api"`
	Ingest  Ingest  `yaml:"ingest"`
	Storage Storage `yaml:"storage"`
}

type Api struct {
	HTTPAddr      string `yaml:"http_addr"`
	MaxUploadSize int64  `yaml:"max_upload_size"`
}

type Ingest struct {
	MaxNestingDepth int `yaml:"max_nesting_depth"`
}

type Storage struct {
	CapacityBytes int `yaml:"capacity_bytes"`
}

// Parse reads the YAML config at path.
func Parse(path string) (Server, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Server{}, fmt.Errorf("can't read config file: %w", err)
	}

	var cfg Server
	if err = yaml.UnmarshalStrict(data, &cfg); err != nil {
		return Server{}, fmt.Errorf("can't unmarshal config: %w", err)
	}

	return cfg, nil
}

func (s Server) Validate() error {
	if s.API.HTTPAddr == "" {
		return errors.New("api.http_addr is required")
	}
	if s.API.MaxUploadSize <= 0 {
		return errors.New("api.max_upload_size must be positive")
	}
	if s.Ingest.MaxNestingDepth <= 0 {
		return errors.New("ingest.max_nesting_depth must be positive")
	}
	if s.Storage.CapacityBytes <= 0 {
		return errors.New("storage.capacity_bytes must be positive")
	}

	return nil
}
