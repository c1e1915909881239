package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"hash/crc32"
	"net/http"
	"strconv"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bhawdeadlydan/mysfirmware/applications/server"
	"github.com/bhawdeadlydan/mysfirmware/applications/server/domain"
	"github.com/bhawdeadlydan/mysfirmware/applications/server/ihex"
	"github.com/bhawdeadlydan/mysfirmware/applications/server/ingest"
	"github.com/bhawdeadlydan/mysfirmware/applications/server/interfaces"
	"github.com/bhawdeadlydan/mysfirmware/applications/server/metrics"
)

const uploadForm = `<html>
    <head><title>Upload Firmware</title></head>
    <body>
        <form action="/firmwares" method="post" enctype="multipart/form-data">
            Name: <input type="text" name="firmware_name"/><br>
            Type: <input type="text" name="firmware_type"/><br>
            Version: <input type="text" name="firmware_version"/><br>
            <input type="file" name="firmware_file"/><br>
            <input type="submit" value="Submit"/>
        </form>
    </body>
</html>`

// StatusResponse is the JSON body of create and delete responses.
type StatusResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}

type FirmwareResponse struct {
	ID        string    `json:"id"`
	Type      int32     `json:"firmware_type"`
	Version   int32     `json:"firmware_version"`
	Name      string    `json:"firmware_name"`
	Size      int       `json:"size"`
	CRC       uint32    `json:"crc32"`
	CreatedAt time.Time `json:"created_at"`
}

type DeleteFirmwareRequest struct {
	Type    int32 `json:"firmware_type"`
	Version int32 `json:"firmware_version"`
}

func NewRouter(
	svc server.FirmwareService,
	pipeline *ingest.Pipeline,
	maxUploadSize int64,
	m *metrics.Ingest,
	gatherer prometheus.Gatherer,
	logger log.Logger,
) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/firmwares/upload", UploadFormHandler()).Methods(http.MethodGet)
	r.HandleFunc("/firmwares", ListFirmwaresHandler(svc, logger)).Methods(http.MethodGet)
	r.HandleFunc("/firmwares", CreateFirmwareHandler(svc, pipeline, maxUploadSize, m, logger)).Methods(http.MethodPost)
	r.HandleFunc("/firmwares", DeleteFirmwareHandler(svc, m, logger)).Methods(http.MethodDelete)
	r.HandleFunc("/firmwares/{type:[0-9]+}/{version:[0-9]+}", DownloadFirmwareHandler(svc, logger)).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	return r
}

func UploadFormHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(uploadForm))
	}
}

func CreateFirmwareHandler(
	svc server.FirmwareService,
	pipeline *ingest.Pipeline,
	maxUploadSize int64,
	m *metrics.Ingest,
	logger log.Logger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reqLogger := log.With(logger, "req_id", uuid.New().String())

		r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

		mr, err := r.MultipartReader()
		if err != nil {
			err = fmt.Errorf("%w: %w", ingest.ErrMultipartFraming, err)
		} else {
			var nf domain.NewFirmware
			nf, err = pipeline.Build(ingest.WithLogger(r.Context(), reqLogger), mr)
			if err == nil {
				createFirmware(w, r, svc, nf, m, reqLogger)
				return
			}
		}

		kind := ingest.Kind(err)
		m.Upload(kind)
		level.Error(reqLogger).Log("msg", "firmware upload rejected",
			"kind", kind,
			"err", err,
		)
		writeStatus(w, reqLogger, pipelineStatus(err), err.Error())
	}
}

func createFirmware(
	w http.ResponseWriter,
	r *http.Request,
	svc server.FirmwareService,
	nf domain.NewFirmware,
	m *metrics.Ingest,
	logger log.Logger,
) {
	fw, err := svc.CreateFirmware(r.Context(), nf)
	if err != nil {
		status := storageStatus(err)
		m.Upload(metrics.OutcomeStorageError)
		freeSpace, _ := svc.GetFreeSpace()
		level.Error(logger).Log("msg", "CreateFirmware error",
			"size", len(nf.Binary),
			"free_space", freeSpace,
			"err", err,
		)
		writeStatus(w, logger, status, err.Error())
		return
	}

	m.Upload(metrics.OutcomeCreated)
	m.ImageSize(len(fw.Binary))
	observeFreeSpace(svc, m, logger)

	writeJSON(w, logger, http.StatusCreated, StatusResponse{
		Status:  http.StatusCreated,
		Message: "firmware created",
		ID:      fw.ID,
	})
}

func ListFirmwaresHandler(svc server.FirmwareService, logger log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		firmwares, err := svc.ListFirmwares(r.Context())
		if err != nil {
			level.Error(logger).Log("msg", "ListFirmwares error",
				"err", err,
			)
			writeStatus(w, logger, http.StatusInternalServerError, err.Error())
			return
		}

		result := make([]FirmwareResponse, 0, len(firmwares))
		for _, fw := range firmwares {
			result = append(result, FirmwareResponse{
				ID:        fw.ID,
				Type:      fw.TypeID,
				Version:   fw.VersionID,
				Name:      fw.Name,
				Size:      len(fw.Binary),
				CRC:       crc32.ChecksumIEEE(fw.Binary),
				CreatedAt: fw.CreatedAt,
			})
		}

		writeJSON(w, logger, http.StatusOK, result)
	}
}

func DeleteFirmwareHandler(svc server.FirmwareService, m *metrics.Ingest, logger log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DeleteFirmwareRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeStatus(w, logger, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
			return
		}

		err := svc.DeleteFirmware(r.Context(), domain.FirmwareKey{TypeID: req.Type, VersionID: req.Version})
		if err != nil {
			level.Error(logger).Log("msg", "DeleteFirmware error",
				"err", err,
			)
			writeStatus(w, logger, storageStatus(err), err.Error())
			return
		}

		observeFreeSpace(svc, m, logger)
		writeStatus(w, logger, http.StatusOK, "firmware deleted")
	}
}

// DownloadFirmwareHandler serves a stored image re-encoded as Intel HEX.
func DownloadFirmwareHandler(svc server.FirmwareService, logger log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)

		typeID, err := strconv.ParseInt(vars["type"], 10, 32)
		if err != nil {
			writeStatus(w, logger, http.StatusBadRequest, fmt.Sprintf("invalid firmware type: %v", err))
			return
		}
		versionID, err := strconv.ParseInt(vars["version"], 10, 32)
		if err != nil {
			writeStatus(w, logger, http.StatusBadRequest, fmt.Sprintf("invalid firmware version: %v", err))
			return
		}

		fw, err := svc.GetFirmware(r.Context(), domain.FirmwareKey{TypeID: int32(typeID), VersionID: int32(versionID)})
		if err != nil {
			writeStatus(w, logger, storageStatus(err), err.Error())
			return
		}

		text, err := ihex.Encode(fw.Binary, ihex.DefaultBytesPerRecord)
		if err != nil {
			level.Error(logger).Log("msg", "can't encode firmware",
				"id", fw.ID,
				"err", err,
			)
			writeStatus(w, logger, http.StatusInternalServerError, err.Error())
			return
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Content-Length", strconv.Itoa(len(text)))
		if _, err = w.Write([]byte(text)); err != nil {
			level.Error(logger).Log("msg", "error body write", "err", err)
		}
	}
}

func observeFreeSpace(svc server.FirmwareService, m *metrics.Ingest, logger log.Logger) {
	freeSpace, err := svc.GetFreeSpace()
	if err != nil {
		level.Warn(logger).Log("msg", "can't get free space", "err", err)
		return
	}
	m.FreeSpace(freeSpace)
}

func pipelineStatus(err error) int {
	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytesErr):
		return http.StatusRequestEntityTooLarge
	case ingest.IsInvalidInput(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func storageStatus(err error) int {
	switch {
	case errors.Is(err, interfaces.ErrFirmwareExists):
		return http.StatusConflict
	case errors.Is(err, interfaces.ErrFirmwareNotFound):
		return http.StatusNotFound
	case errors.Is(err, interfaces.ErrNotEnoughSpace):
		return http.StatusInsufficientStorage
	default:
		return http.StatusInternalServerError
	}
}

func writeStatus(w http.ResponseWriter, logger log.Logger, status int, message string) {
	writeJSON(w, logger, status, StatusResponse{Status: status, Message: message})
}

func writeJSON(w http.ResponseWriter, logger log.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		level.Error(logger).Log("msg", "can't write response", "err", err)
	}
}
