package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/rhuss/askgate/pkg/api"
	"github.com/rhuss/askgate/pkg/auth/noop"
	"github.com/rhuss/askgate/pkg/telemetry"
	"github.com/rhuss/askgate/pkg/transport"
)

// maxListLimit caps one page of GET /data.
const maxListLimit = 1000

// handleAppendData serves POST /data. Any JSON object is accepted and
// stored verbatim.
func (a *Adapter) handleAppendData(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, a.config.MaxBodySize)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			transport.WriteErrorResponse(w,
				api.NewInvalidRequestError("body", fmt.Sprintf("request body too large (max %d bytes)", a.config.MaxBodySize)),
				http.StatusRequestEntityTooLarge,
			)
			return
		}
		transport.WriteAPIError(w, api.NewInvalidRequestError("body", "failed to read request body"))
		return
	}

	if !isJSONObject(body) {
		transport.WriteAPIError(w, api.NewInvalidRequestError("body", telemetry.ErrInvalid.Error()))
		return
	}

	rec := telemetry.NewRecord(bytes.TrimSpace(body), noop.ClientAddr(r), r.UserAgent())
	if err := a.b.Telemetry.Append(r.Context(), rec); err != nil {
		slog.Error("storing telemetry failed", "id", rec.ID, "error", err)
		writeError(w, err)
		return
	}
	transport.WriteJSON(w, http.StatusCreated, map[string]string{"id": rec.ID})
}

// handleListData serves GET /data?limit=&offset=.
func (a *Adapter) handleListData(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 100)
	if err != nil || limit < 0 {
		transport.WriteAPIError(w, api.NewInvalidRequestError("limit", "limit must be a non-negative integer"))
		return
	}
	if limit == 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil || offset < 0 {
		transport.WriteAPIError(w, api.NewInvalidRequestError("offset", "offset must be a non-negative integer"))
		return
	}

	recs, err := a.b.Telemetry.List(r.Context(), telemetry.ListOptions{Limit: limit, Offset: offset})
	if err != nil {
		slog.Error("listing telemetry failed", "error", err)
		writeError(w, err)
		return
	}
	total, err := a.b.Telemetry.Count(r.Context())
	if err != nil {
		slog.Error("counting telemetry failed", "error", err)
		writeError(w, err)
		return
	}
	if recs == nil {
		recs = []*api.TelemetryRecord{}
	}
	a.issueSession(w, r, "")
	transport.WriteJSON(w, http.StatusOK, &api.TelemetryList{Object: "list", Data: recs, Total: total})
}

func isJSONObject(b []byte) bool {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] != '{' {
		return false
	}
	return json.Valid(b)
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}
