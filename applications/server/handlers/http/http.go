package http

import (
	"net/http"

	"github.com/go-kit/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/bhawdeadlydan/mysfirmware/applications/server"
	"github.com/bhawdeadlydan/mysfirmware/applications/server/config"
	"github.com/bhawdeadlydan/mysfirmware/applications/server/ingest"
	"github.com/bhawdeadlydan/mysfirmware/applications/server/metrics"
)

func NewHTTPServer(
	conf config.Api,
	firmwareService server.FirmwareService,
	pipeline *ingest.Pipeline,
	m *metrics.Ingest,
	gatherer prometheus.Gatherer,
	logger log.Logger,
) *http.Server {
	mux := NewRouter(firmwareService, pipeline, conf.MaxUploadSize, m, gatherer, logger)
	return &http.Server{
		Addr:    conf.HTTPAddr,
		Handler: mux,
	}
}
