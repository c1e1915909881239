package http

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-kit/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bhawdeadlydan/mysfirmware/applications/server/adapters/inmemory"
	"github.com/bhawdeadlydan/mysfirmware/applications/server/ingest"
	"github.com/bhawdeadlydan/mysfirmware/applications/server/metrics"
	"github.com/bhawdeadlydan/mysfirmware/applications/server/services"
)

const testMaxUploadSize = 1 << 20

const testCapacity = 1024

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	h, _ := newTestRouterWithRegistry(t)
	return h
}

func newTestRouterWithRegistry(t *testing.T) (http.Handler, *prometheus.Registry) {
	t.Helper()

	logger := log.NewNopLogger()
	registry := prometheus.NewRegistry()
	svc := services.NewService(inmemory.NewFirmwareStorage(testCapacity, logger))
	m := metrics.NewIngest(registry)

	return NewRouter(svc, ingest.NewPipeline(0, logger), testMaxUploadSize, m, registry, logger), registry
}

func uploadRequest(t *testing.T, fields map[string]string) *http.Request {
	t.Helper()

	var b bytes.Buffer
	w := multipart.NewWriter(&b)
	for _, name := range []string{"firmware_name", "firmware_type", "firmware_version"} {
		if v, ok := fields[name]; ok {
			require.NoError(t, w.WriteField(name, v), "Setup: failed to write field")
		}
	}
	if v, ok := fields["firmware_file"]; ok {
		fw, err := w.CreateFormFile("firmware_file", "firmware.hex")
		require.NoError(t, err)
		_, err = fw.Write([]byte(v))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/firmwares", &b)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func serve(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func decodeStatus(t *testing.T, rr *httptest.ResponseRecorder) StatusResponse {
	t.Helper()

	var resp StatusResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	return resp
}

func bootUpload() map[string]string {
	return map[string]string{
		"firmware_name":    "boot",
		"firmware_type":    "1",
		"firmware_version": "2",
		"firmware_file":    ":0300300002337A1E\n:00000001FF\n",
	}
}

func TestFirmwareLifecycle(t *testing.T) {
	h := newTestRouter(t)

	rr := serve(h, uploadRequest(t, bootUpload()))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	created := decodeStatus(t, rr)
	assert.Equal(t, http.StatusCreated, created.Status)
	assert.NotEmpty(t, created.ID)

	rr = serve(h, httptest.NewRequest(http.MethodGet, "/firmwares", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var list []FirmwareResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&list))
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)
	assert.Equal(t, int32(1), list[0].Type)
	assert.Equal(t, int32(2), list[0].Version)
	assert.Equal(t, "boot", list[0].Name)
	assert.Equal(t, 3, list[0].Size)
	assert.Equal(t, uint32(0xB87EF06E), list[0].CRC)

	rr = serve(h, httptest.NewRequest(http.MethodGet, "/firmwares/1/2", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, ":0300000002337A4E\n:00000001FF\n", rr.Body.String())

	rr = serve(h, uploadRequest(t, bootUpload()))
	assert.Equal(t, http.StatusConflict, rr.Code)

	deleteBody := `{"firmware_type":1,"firmware_version":2}`
	rr = serve(h, httptest.NewRequest(http.MethodDelete, "/firmwares", strings.NewReader(deleteBody)))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, StatusResponse{Status: http.StatusOK, Message: "firmware deleted"}, decodeStatus(t, rr))

	rr = serve(h, httptest.NewRequest(http.MethodDelete, "/firmwares", strings.NewReader(deleteBody)))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = serve(h, httptest.NewRequest(http.MethodGet, "/firmwares/1/2", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCreateFirmwareRejected(t *testing.T) {
	withField := func(name, value string) map[string]string {
		fields := bootUpload()
		fields[name] = value
		return fields
	}

	tests := []struct {
		name string
		req  func(t *testing.T) *http.Request
		want int
	}{
		{
			name: "wrong checksum",
			req: func(t *testing.T) *http.Request {
				return uploadRequest(t, withField("firmware_file", ":0300300002337A1F"))
			},
			want: http.StatusBadRequest,
		},
		{
			name: "non numeric type",
			req: func(t *testing.T) *http.Request {
				return uploadRequest(t, withField("firmware_type", "abc"))
			},
			want: http.StatusBadRequest,
		},
		{
			name: "not multipart",
			req: func(t *testing.T) *http.Request {
				req := httptest.NewRequest(http.MethodPost, "/firmwares", strings.NewReader("{}"))
				req.Header.Set("Content-Type", "application/json")
				return req
			},
			want: http.StatusInternalServerError,
		},
		{
			name: "too large",
			req: func(t *testing.T) *http.Request {
				return uploadRequest(t, withField("firmware_name", strings.Repeat("x", testMaxUploadSize)))
			},
			want: http.StatusRequestEntityTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestRouter(t)

			rr := serve(h, tt.req(t))
			assert.Equal(t, tt.want, rr.Code, rr.Body.String())
			assert.Equal(t, tt.want, decodeStatus(t, rr).Status)

			rr = serve(h, httptest.NewRequest(http.MethodGet, "/firmwares", nil))
			assert.JSONEq(t, `[]`, rr.Body.String())
		})
	}
}

func TestDeleteFirmwareBadBody(t *testing.T) {
	rr := serve(newTestRouter(t), httptest.NewRequest(http.MethodDelete, "/firmwares", strings.NewReader("nope")))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDownloadFirmwareBadVersion(t *testing.T) {
	rr := serve(newTestRouter(t), httptest.NewRequest(http.MethodGet, "/firmwares/1/99999999999", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUploadForm(t *testing.T) {
	rr := serve(newTestRouter(t), httptest.NewRequest(http.MethodGet, "/firmwares/upload", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/html")
	for _, field := range []string{"firmware_name", "firmware_type", "firmware_version", "firmware_file"} {
		assert.Contains(t, rr.Body.String(), `name="`+field+`"`)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestRouter(t)

	serve(h, uploadRequest(t, bootUpload()))
	rr := serve(h, uploadRequest(t, map[string]string{"firmware_type": "abc"}))
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = serve(h, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `firmware_uploads_total{outcome="created"} 1`)
	assert.Contains(t, rr.Body.String(), `firmware_uploads_total{outcome="parse"} 1`)
}

func TestFreeSpaceGauge(t *testing.T) {
	h, registry := newTestRouterWithRegistry(t)

	freeSpace := func(want string) {
		t.Helper()
		err := testutil.GatherAndCompare(registry, strings.NewReader(`
# HELP firmware_storage_free_bytes Free space left in firmware storage.
# TYPE firmware_storage_free_bytes gauge
firmware_storage_free_bytes `+want+`
`), "firmware_storage_free_bytes")
		require.NoError(t, err)
	}

	rr := serve(h, uploadRequest(t, bootUpload()))
	require.Equal(t, http.StatusCreated, rr.Code)
	freeSpace("1021")

	deleteBody := `{"firmware_type":1,"firmware_version":2}`
	rr = serve(h, httptest.NewRequest(http.MethodDelete, "/firmwares", strings.NewReader(deleteBody)))
	require.Equal(t, http.StatusOK, rr.Code)
	freeSpace("1024")
}

func TestNewRouterSharesMetrics(t *testing.T) {
	logger := log.NewNopLogger()
	registry := prometheus.NewRegistry()
	m := metrics.NewIngest(registry)
	svc := services.NewService(inmemory.NewFirmwareStorage(testCapacity, logger))

	assert.NotPanics(t, func() {
		NewRouter(svc, ingest.NewPipeline(0, logger), testMaxUploadSize, m, registry, logger)
		NewRouter(svc, ingest.NewPipeline(0, logger), testMaxUploadSize, m, registry, logger)
	})
}
