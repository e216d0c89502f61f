// Package httperr maps domain errors to HTTP responses.
package httperr

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/NanayasWorkshop/MakerManager/internal/identity"
	"github.com/NanayasWorkshop/MakerManager/internal/job"
	"github.com/NanayasWorkshop/MakerManager/internal/ledger"
	"github.com/NanayasWorkshop/MakerManager/internal/machine"
	"github.com/NanayasWorkshop/MakerManager/internal/scan"
	"github.com/NanayasWorkshop/MakerManager/internal/stocktake"
)

var statuses = []struct {
	err    error
	status int
}{
	{identity.ErrUnauthenticated, http.StatusUnauthorized},
	{machine.ErrNotCertified, http.StatusForbidden},
	{ledger.ErrMaterialNotFound, http.StatusNotFound},
	{machine.ErrNotFound, http.StatusNotFound},
	{machine.ErrNoOperator, http.StatusNotFound},
	{job.ErrNotFound, http.StatusNotFound},
	{scan.ErrUnresolved, http.StatusNotFound},
	{ledger.ErrInsufficientStock, http.StatusConflict},
	{machine.ErrUnavailable, http.StatusConflict},
	{machine.ErrNotInUse, http.StatusConflict},
	{machine.ErrNoOpenUsage, http.StatusConflict},
	{job.ErrNoActiveJob, http.StatusConflict},
	{job.ErrDuplicate, http.StatusConflict},
	{ledger.ErrInvalidQuantity, http.StatusUnprocessableEntity},
	{ledger.ErrInvalidRestock, http.StatusUnprocessableEntity},
	{ledger.ErrInvalidMaterial, http.StatusUnprocessableEntity},
	{ledger.ErrReservedCategory, http.StatusUnprocessableEntity},
	{machine.ErrInvalidMinutes, http.StatusUnprocessableEntity},
	{machine.ErrInvalid, http.StatusUnprocessableEntity},
	{machine.ErrInvalidRate, http.StatusUnprocessableEntity},
	{job.ErrInvalid, http.StatusUnprocessableEntity},
	{stocktake.ErrNoHeader, http.StatusUnprocessableEntity},
}

// Status returns the response code for err. Unknown errors are 500.
func Status(err error) int {
	for _, s := range statuses {
		if errors.Is(err, s.err) {
			return s.status
		}
	}

	return http.StatusInternalServerError
}

// Write sends err with its mapped status. Internal errors are logged and
// not echoed to the client.
func Write(w http.ResponseWriter, err error) {
	status := Status(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "error", err)
		http.Error(w, "internal error", status)

		return
	}

	http.Error(w, err.Error(), status)
}
