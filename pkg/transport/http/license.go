package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/rhuss/askgate/pkg/api"
	"github.com/rhuss/askgate/pkg/license"
	"github.com/rhuss/askgate/pkg/transport"
)

// handleVerifyLicense serves POST /api/verify-license. Every outcome,
// including errors, is reported as a LicenseResponse.
func (a *Adapter) handleVerifyLicense(w http.ResponseWriter, r *http.Request) {
	var req api.LicenseRequest
	if !a.decodeJSON(w, r, &req, true) {
		return
	}
	key := strings.TrimSpace(req.Key)
	if key == "" {
		transport.WriteJSON(w, http.StatusBadRequest, &api.LicenseResponse{Error: "No key provided"})
		return
	}

	res, err := a.b.License.Verify(r.Context(), key)
	if err != nil {
		var nf *license.NotFoundError
		if errors.As(err, &nf) {
			transport.WriteJSON(w, http.StatusNotFound, &api.LicenseResponse{
				Error:   "Invalid Key or Order ID not found",
				Details: nf.Details,
			})
			return
		}
		slog.Error("license verification failed", "backend", a.b.License.Name(), "error", err)
		transport.WriteJSON(w, http.StatusInternalServerError, &api.LicenseResponse{Error: "Internal Server Error"})
		return
	}

	resp := &api.LicenseResponse{
		Valid:      res.Valid,
		Status:     res.Status,
		CustomerID: res.CustomerID,
		Reason:     res.Reason,
	}
	if !res.Valid {
		transport.WriteJSON(w, http.StatusPaymentRequired, resp)
		return
	}
	transport.WriteJSON(w, http.StatusOK, resp)
}
