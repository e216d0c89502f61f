package scan_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	scanHandler "github.com/NanayasWorkshop/MakerManager/internal/http/scan"
	"github.com/NanayasWorkshop/MakerManager/internal/identity"
	"github.com/NanayasWorkshop/MakerManager/internal/scan"
)

func newRouter(t *testing.T) (http.Handler, *scan.MockRepository) {
	ctrl := gomock.NewController(t)
	repo := scan.NewMockRepository(ctrl)

	r := chi.NewRouter()
	scanHandler.NewHandler(scan.NewService(repo, nil)).Routes(r)

	return r, repo
}

func post(t *testing.T, h http.Handler, path, body string, authed bool) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	if authed {
		req = req.WithContext(identity.NewContext(req.Context(), identity.User{Username: "grace"}))
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return rec
}

func TestHandler_Resolve(t *testing.T) {
	t.Run("Found", func(t *testing.T) {
		h, repo := newRouter(t)
		laser := &scan.Match{Type: scan.TypeMachine, ID: "MC-LSR-00003", Name: "Laser cutter"}

		repo.EXPECT().FindByID(gomock.Any(), scan.TypeMachine, "mc-lsr-00003").Return(laser, nil)
		repo.EXPECT().RecordScan(gomock.Any(), gomock.Any()).Return(nil)

		rec := post(t, h, "/", `{"code":"mc-lsr-00003"}`, true)
		require.Equal(t, http.StatusOK, rec.Code)

		var got map[string]string
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))

		assert.Equal(t, "machine", got["type"])
		assert.Equal(t, "MC-LSR-00003", got["id"])
		assert.Equal(t, "id", got["via"])
	})

	t.Run("UnresolvedIsNotFound", func(t *testing.T) {
		h, repo := newRouter(t)

		repo.EXPECT().FindByID(gomock.Any(), scan.TypeMachine, "MC-NOPE-1").Return(nil, nil)
		repo.EXPECT().FindBySecondary(gomock.Any(), "MC-NOPE-1").Return(nil, nil)
		repo.EXPECT().FindAlias(gomock.Any(), "MC-NOPE-1").Return(nil, nil)

		rec := post(t, h, "/", `{"code":"MC-NOPE-1"}`, true)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("TypedLookup", func(t *testing.T) {
		h, repo := newRouter(t)
		sheet := &scan.Match{Type: scan.TypeMaterial, ID: "M-RAW-00001", Name: "Aluminium sheet"}

		repo.EXPECT().FindByID(gomock.Any(), scan.TypeMaterial, "M-RAW-00001").Return(sheet, nil)
		repo.EXPECT().RecordScan(gomock.Any(), gomock.Any()).Return(nil)

		rec := post(t, h, "/", `{"code":"M-RAW-00001","type":"material"}`, true)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Rejected", func(t *testing.T) {
		tests := []struct {
			name   string
			body   string
			authed bool
			want   int
		}{
			{"EmptyCode", `{"code":"  "}`, true, http.StatusBadRequest},
			{"BadType", `{"code":"X","type":"unknown"}`, true, http.StatusBadRequest},
			{"Malformed", `{"code":`, true, http.StatusBadRequest},
			{"Unauthenticated", `{"code":"MC-LSR-00003"}`, false, http.StatusUnauthorized},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				h, _ := newRouter(t)

				rec := post(t, h, "/", tt.body, tt.authed)
				assert.Equal(t, tt.want, rec.Code)
			})
		}
	})
}

func TestHandler_Learn(t *testing.T) {
	h, repo := newRouter(t)
	bolt := &scan.Match{Type: scan.TypeMaterial, ID: "HW-M6-00004", Name: "M6 bolt"}

	repo.EXPECT().FindByID(gomock.Any(), scan.TypeMaterial, "HW-M6-00004").Return(bolt, nil)
	repo.EXPECT().SaveAlias(gomock.Any(), "4006381333931", bolt, "grace").Return(nil)
	repo.EXPECT().RecordScan(gomock.Any(), gomock.Any()).Return(nil)

	rec := post(t, h, "/aliases", `{"code":" 4006381333931 ","type":"material","id":"HW-M6-00004"}`, true)
	require.Equal(t, http.StatusCreated, rec.Code)

	var got map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))

	assert.Equal(t, "alias", got["via"])
}
