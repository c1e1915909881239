package ingest

import (
	"context"
	"fmt"
	"mime/multipart"

	"github.com/dustin/go-humanize"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/bhawdeadlydan/mysfirmware/applications/server/domain"
	"github.com/bhawdeadlydan/mysfirmware/applications/server/ihex"
)

// Pipeline builds firmware creation requests from multipart uploads.
// It holds no per-request state and may be shared between requests.
type Pipeline struct {
	extractor *Extractor
	logger    log.Logger
}

func NewPipeline(maxNestingDepth int, logger log.Logger) *Pipeline {
	return &Pipeline{
		extractor: NewExtractor(maxNestingDepth, logger),
		logger:    logger,
	}
}

// Build drains r and assembles the firmware creation request from its fields.
func (p *Pipeline) Build(ctx context.Context, r *multipart.Reader) (domain.NewFirmware, error) {
	fields, err := p.extractor.Extract(ctx, r)
	if err != nil {
		return domain.NewFirmware{}, fmt.Errorf("can't extract multipart fields: %w", err)
	}

	fw, err := Assemble(fields)
	if err != nil {
		return domain.NewFirmware{}, err
	}

	level.Debug(loggerFrom(ctx, p.logger)).Log("msg", "firmware request built",
		"name", fw.Name,
		"type", fw.TypeID,
		"version", fw.VersionID,
		"size", humanize.Bytes(uint64(len(fw.Binary))),
	)

	return fw, nil
}

// Assemble maps the upload fields onto a firmware creation request.
// Metadata fields are checked before the firmware file is decoded.
func Assemble(fields FieldSet) (domain.NewFirmware, error) {
	name, err := fields.Text(FieldName)
	if err != nil {
		return domain.NewFirmware{}, err
	}

	typeID, err := fields.Int(FieldType)
	if err != nil {
		return domain.NewFirmware{}, err
	}

	versionID, err := fields.Int(FieldVersion)
	if err != nil {
		return domain.NewFirmware{}, err
	}

	text, err := fields.Text(FieldFile)
	if err != nil {
		return domain.NewFirmware{}, err
	}

	binary, err := ihex.Decode(text)
	if err != nil {
		return domain.NewFirmware{}, fmt.Errorf("can't decode %s: %w", FieldFile, err)
	}

	return domain.NewFirmwareRequest(typeID, versionID, name, binary), nil
}
