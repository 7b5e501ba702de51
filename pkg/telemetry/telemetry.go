// Package telemetry stores the analytics blobs clients post to /data.
// Records are kept verbatim and returned newest last.
package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/rhuss/askgate/pkg/api"
	"github.com/rhuss/askgate/pkg/observability"
)

var (
	// ErrCorrupt is returned when persisted data cannot be decoded. The
	// store refuses further writes rather than overwrite it.
	ErrCorrupt = errors.New("telemetry store is corrupt")

	// ErrInvalid is returned for records without an object payload.
	ErrInvalid = errors.New("telemetry data must be a JSON object")
)

// ListOptions selects a page of records in insertion order.
type ListOptions struct {
	Limit  int // 0 = no limit
	Offset int
}

// Store persists telemetry records.
type Store interface {
	// Append adds a record.
	Append(ctx context.Context, rec *api.TelemetryRecord) error

	// List returns records in insertion order.
	List(ctx context.Context, opts ListOptions) ([]*api.TelemetryRecord, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}

// NewRecord wraps a client payload with server-side metadata.
func NewRecord(data []byte, remoteAddr, userAgent string) *api.TelemetryRecord {
	return &api.TelemetryRecord{
		ID:         api.NewTelemetryID(),
		ReceivedAt: time.Now().UTC(),
		RemoteAddr: remoteAddr,
		UserAgent:  userAgent,
		Data:       append([]byte(nil), data...),
	}
}

// Instrument wraps a store so every Append is counted under the given
// store name.
func Instrument(s Store, name string) Store {
	return &instrumented{Store: s, name: name}
}

type instrumented struct {
	Store
	name string
}

func (i *instrumented) Append(ctx context.Context, rec *api.TelemetryRecord) error {
	err := i.Store.Append(ctx, rec)
	observability.TelemetryWritesTotal.WithLabelValues(i.name, observability.StatusLabel(err)).Inc()
	return err
}

// page applies opts to a slice of n items and returns the bounds.
func page(n int, opts ListOptions) (start, end int) {
	start = opts.Offset
	if start < 0 {
		start = 0
	}
	if start > n {
		start = n
	}
	end = n
	if opts.Limit > 0 && start+opts.Limit < n {
		end = start + opts.Limit
	}
	return start, end
}

// Page returns the window of records selected by opts.
func Page(recs []*api.TelemetryRecord, opts ListOptions) []*api.TelemetryRecord {
	start, end := page(len(recs), opts)
	return recs[start:end]
}
