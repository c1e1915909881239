package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseConfig(t *testing.T) {
	want := Server{
		API:     Api{HTTPAddr: "0.0.0.0:8002", MaxUploadSize: 10 << 20},
		Ingest:  Ingest{MaxNestingDepth: 8},
		Storage: Storage{CapacityBytes: 100 << 20},
	}

	got, err := Parse("config.yml")

	assert.NoError(t, got.Validate())
	assert.Equal(t, nil, err)
	assert.Equal(t, want, got)
}

func TestParseConfigMissingFile(t *testing.T) {
	_, err := Parse("missing.yml")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := Server{
		API:     Api{HTTPAddr: ":8002", MaxUploadSize: 1},
		Ingest:  Ingest{MaxNestingDepth: 1},
		Storage: Storage{CapacityBytes: 1},
	}
	assert.NoError(t, valid.Validate())

	tests := map[string]func(s *Server){
		"empty addr":        func(s *Server) { s.API.HTTPAddr = "" },
		"zero upload size":  func(s *Server) { s.API.MaxUploadSize = 0 },
		"zero depth":        func(s *Server) { s.Ingest.MaxNestingDepth = 0 },
		"negative capacity": func(s *Server) { s.Storage.CapacityBytes = -1 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			s := valid
			mutate(&s)
			assert.Error(t, s.Validate())
		})
	}
}
