package platform

import (
	"context"
	"strings"

	"github.com/Desire162007/Secure-Wipe/internal/logging"
)

// Enricher adds native metadata to already enumerated records.
// Failures are absorbed: an unmatched or failing device is returned unchanged.
type Enricher interface {
	Method() IdentificationMethod
	Enrich(ctx context.Context, records []DeviceRecord) []DeviceRecord
}

// NewEnricher selects the single strategy for this process.
func NewEnricher(c Capabilities, logger *logging.Logger) Enricher {
	if !c.NativeProvider {
		return NoopEnricher{}
	}
	return nativeEnricher(logger)
}

// NoopEnricher passes records through untouched.
type NoopEnricher struct{}

func (NoopEnricher) Method() IdentificationMethod { return MethodBasic }

func (NoopEnricher) Enrich(_ context.Context, records []DeviceRecord) []DeviceRecord {
	return records
}

// LookupFunc returns metadata for one device path. ok=false means no match.
type LookupFunc func(ctx context.Context, devicePath string) (meta Metadata, ok bool, err error)

// LookupEnricher applies a per-device lookup to every record.
// Check, when set, is run once per batch; an error skips the whole batch.
type LookupEnricher struct {
	method IdentificationMethod
	check  func(ctx context.Context) error
	lookup LookupFunc
	logger *logging.Logger
}

// NewLookupEnricher builds an enricher around a lookup function.
func NewLookupEnricher(method IdentificationMethod, check func(context.Context) error, lookup LookupFunc, logger *logging.Logger) *LookupEnricher {
	return &LookupEnricher{method: method, check: check, lookup: lookup, logger: logger}
}

func (e *LookupEnricher) Method() IdentificationMethod { return e.method }

func (e *LookupEnricher) Enrich(ctx context.Context, records []DeviceRecord) []DeviceRecord {
	if e.check != nil {
		if err := e.check(ctx); err != nil {
			e.logger.Warnf("%s enrichment unavailable, returning basic records: %v", e.method, err)
			return records
		}
	}

	out := make([]DeviceRecord, len(records))
	copy(out, records)
	for i := range out {
		if ctx.Err() != nil {
			break
		}
		meta, ok, err := e.lookup(ctx, out[i].DevicePath)
		if err != nil {
			e.logger.Debugf("could not enrich %s: %v", out[i].DevicePath, err)
			continue
		}
		if !ok {
			continue
		}
		out[i].applyNative(meta, e.method)
	}
	return out
}

func trimmed(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
