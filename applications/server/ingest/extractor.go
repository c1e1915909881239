// Package ingest turns a multipart firmware upload into a firmware creation request.
package ingest

import (
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/textproto"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// DefaultMaxNestingDepth bounds how many multipart containers may be nested
// inside the request body.
const DefaultMaxNestingDepth = 8

const headerContentDisposition = "Content-Disposition"

// Part is a leaf field of a multipart body.
type Part struct {
	// Disposition is the raw Content-Disposition header, nil if the part had none.
	Disposition *string
	// Payload is the drained field content, nil if it was empty or could not be read.
	Payload []byte
}

// FieldSet holds the leaf fields of a body in depth-first encounter order.
type FieldSet []Part

// Extractor flattens a possibly nested multipart body into a FieldSet.
type Extractor struct {
	maxDepth int
	logger   log.Logger
}

func NewExtractor(maxDepth int, logger log.Logger) *Extractor {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxNestingDepth
	}

	return &Extractor{
		maxDepth: maxDepth,
		logger:   logger,
	}
}

// Extract drains every leaf field of r. Nested multipart containers are expanded
// in place, so their fields appear before the fields that follow the container.
func (e *Extractor) Extract(ctx context.Context, r *multipart.Reader) (FieldSet, error) {
	fields := FieldSet{}
	if err := e.extract(ctx, r, 0, loggerFrom(ctx, e.logger), &fields); err != nil {
		return nil, err
	}

	return fields, nil
}

func (e *Extractor) extract(ctx context.Context, r *multipart.Reader, depth int, logger log.Logger, fields *FieldSet) error {
	if depth > e.maxDepth {
		return fmt.Errorf("%w: nesting depth exceeds %d", ErrMultipartFraming, e.maxDepth)
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		part, err := r.NextPart()
		// A bare io.EOF marks the closing boundary; a wrapped one is a truncated body.
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %w", ErrMultipartFraming, err)
		}

		if boundary, ok := nestedBoundary(part.Header); ok {
			err = e.extract(ctx, multipart.NewReader(part, boundary), depth+1, logger, fields)
			_ = part.Close()
			if err != nil {
				return err
			}
			continue
		}

		*fields = append(*fields, drain(part, logger))
		_ = part.Close()
	}
}

func drain(part *multipart.Part, logger log.Logger) Part {
	var field Part
	if values := part.Header.Values(headerContentDisposition); len(values) > 0 {
		disposition := values[0]
		field.Disposition = &disposition
	}

	payload, err := io.ReadAll(part)
	if err != nil {
		level.Warn(logger).Log("msg", "field payload dropped",
			"field", part.FormName(),
			"err", fmt.Errorf("%w: %w", ErrFieldStream, err),
		)
		return field
	}

	if len(payload) > 0 {
		field.Payload = payload
	}

	level.Debug(logger).Log("msg", "field extracted",
		"field", part.FormName(),
		"size", humanize.Bytes(uint64(len(payload))),
	)

	return field
}

// nestedBoundary returns the boundary of a part that is itself a multipart container.
func nestedBoundary(h textproto.MIMEHeader) (string, bool) {
	mediaType, params, err := mime.ParseMediaType(h.Get("Content-Type"))
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		return "", false
	}

	boundary := params["boundary"]
	return boundary, boundary != ""
}
