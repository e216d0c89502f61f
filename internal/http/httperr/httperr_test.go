package httperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/NanayasWorkshop/MakerManager/internal/http/httperr"
	"github.com/NanayasWorkshop/MakerManager/internal/job"
	"github.com/NanayasWorkshop/MakerManager/internal/ledger"
	"github.com/NanayasWorkshop/MakerManager/internal/machine"
	"github.com/NanayasWorkshop/MakerManager/internal/scan"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"MaterialNotFound", fmt.Errorf("lock material: %w", ledger.ErrMaterialNotFound), http.StatusNotFound},
		{"InsufficientStock", ledger.ErrInsufficientStock, http.StatusConflict},
		{"NoActiveJob", job.ErrNoActiveJob, http.StatusConflict},
		{"NoOperatorIsForbidden", fmt.Errorf("%w: %w", machine.ErrNotCertified, machine.ErrNoOperator), http.StatusForbidden},
		{"InvalidQuantity", ledger.ErrInvalidQuantity, http.StatusUnprocessableEntity},
		{"Unresolved", scan.ErrUnresolved, http.StatusNotFound},
		{"InvalidMaterial", fmt.Errorf("%w: name is required", ledger.ErrInvalidMaterial), http.StatusUnprocessableEntity},
		{"ReservedCategory", fmt.Errorf("%w: JOB", ledger.ErrReservedCategory), http.StatusUnprocessableEntity},
		{"InvalidMachine", fmt.Errorf("%w: name is required", machine.ErrInvalid), http.StatusUnprocessableEntity},
		{"InvalidRate", fmt.Errorf("%w: negative rate -1", machine.ErrInvalidRate), http.StatusUnprocessableEntity},
		{"InvalidJob", fmt.Errorf("%w: job type is required", job.ErrInvalid), http.StatusUnprocessableEntity},
		{"Unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, httperr.Status(tt.err))
		})
	}
}

func TestWrite_HidesInternalErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	httperr.Write(rec, errors.New("pq: password authentication failed"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")
}
