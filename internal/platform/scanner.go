package platform

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/host"

	"github.com/Desire162007/Secure-Wipe/internal/logging"
)

// Scanner runs the enumerate, classify, enrich and filter pipeline.
// It keeps no state between scans apart from the capabilities it was built with.
type Scanner struct {
	caps     Capabilities
	source   PartitionSource
	enricher Enricher
	workers  int
	logger   *logging.Logger
	now      func() time.Time
	bootTime func(ctx context.Context) (uint64, error)
}

// Option customises a Scanner.
type Option func(*Scanner)

func WithPartitionSource(src PartitionSource) Option {
	return func(s *Scanner) { s.source = src }
}

func WithEnricher(e Enricher) Option {
	return func(s *Scanner) { s.enricher = e }
}

// WithWorkers sets how many goroutines analyse partitions in parallel.
func WithWorkers(n int) Option {
	return func(s *Scanner) { s.workers = n }
}

func WithLogger(l *logging.Logger) Option {
	return func(s *Scanner) { s.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *Scanner) { s.now = now }
}

// NewScanner builds a scanner. Unset collaborators default to the host
// partition table and the native enricher selected by caps.
func NewScanner(c Capabilities, opts ...Option) *Scanner {
	s := &Scanner{
		caps:     c,
		workers:  4,
		now:      time.Now,
		bootTime: host.BootTimeWithContext,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.source == nil {
		s.source = NewHostPartitions(true)
	}
	if s.enricher == nil {
		s.enricher = NewEnricher(c, s.logger)
	}
	if s.workers < 1 {
		s.workers = 1
	}
	return s
}

// Capabilities returns the capabilities the scanner was built with.
func (s *Scanner) Capabilities() Capabilities {
	return s.caps
}

// ListExternalDevices runs a full scan and keeps only external devices, in mount-table order.
func (s *Scanner) ListExternalDevices(ctx context.Context) ([]DeviceRecord, error) {
	all, err := s.ListAllDevices(ctx)
	if err != nil {
		return nil, err
	}
	external := make([]DeviceRecord, 0, len(all))
	for _, rec := range all {
		if IsExternal(rec) {
			external = append(external, rec)
		}
	}
	s.logger.Infof("found %d external devices out of %d total", len(external), len(all))
	return external, nil
}

// GetDeviceInfo re-scans and looks the id up among external devices only.
func (s *Scanner) GetDeviceInfo(ctx context.Context, id string) (*DeviceRecord, error) {
	devices, err := s.ListExternalDevices(ctx)
	if err != nil {
		return nil, err
	}
	for i := range devices {
		if devices[i].ID == id {
			return &devices[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// ListAllDevices returns every enriched record without applying the external filter.
func (s *Scanner) ListAllDevices(ctx context.Context) ([]DeviceRecord, error) {
	descs := s.enumerate(ctx)
	records := s.analyze(ctx, descs)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	records = s.enricher.Enrich(ctx, records)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// enumerate never fails: a broken mount table is reported as no devices.
func (s *Scanner) enumerate(ctx context.Context) []Descriptor {
	descs, err := s.source.Partitions(ctx)
	if err != nil {
		if len(descs) == 0 {
			s.logger.Warnf("partition enumeration failed, reporting no devices: %v", err)
			return nil
		}
		s.logger.Warnf("partition enumeration incomplete (%d entries): %v", len(descs), err)
	}
	return descs
}

// analyze reads usage and classifies each descriptor on a worker pool.
// records[i] always corresponds to descs[i].
func (s *Scanner) analyze(ctx context.Context, descs []Descriptor) []DeviceRecord {
	records := make([]DeviceRecord, len(descs))
	jobs := make(chan int)
	var wg sync.WaitGroup

	worker := func() {
		defer wg.Done()
		for i := range jobs {
			records[i] = s.analyzeOne(ctx, descs[i])
		}
	}

	workers := s.workers
	if workers > len(descs) {
		workers = len(descs)
	}
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go worker()
	}

feed:
	for i := range descs {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()
	return records
}

func (s *Scanner) analyzeOne(ctx context.Context, d Descriptor) DeviceRecord {
	rec := DeviceRecord{
		ID:                   DeviceID(d.DevicePath),
		Name:                 d.DevicePath,
		DevicePath:           d.DevicePath,
		MountPoint:           d.MountPoint,
		FSType:               d.FSType,
		Type:                 Classify(d.DevicePath, d.Opts),
		Opts:                 d.Opts,
		IdentificationMethod: MethodBasic,
		OSType:               s.caps.OS,
	}

	usage, err := s.source.Usage(ctx, d.MountPoint)
	if err != nil {
		s.logger.Debugf("usage unavailable for %s (%s): %v", d.DevicePath, d.MountPoint, err)
		return rec
	}
	rec.TotalSize = usage.Total
	rec.UsedSize = usage.Used
	rec.FreeSize = usage.Free
	return rec
}

// SmartData describes SMART availability for a device.
type SmartData struct {
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

// DeviceDetails is an external device with extra diagnostics.
type DeviceDetails struct {
	DeviceRecord
	SmartData *SmartData `json:"smart_data"`
	BootTime  uint64     `json:"boot_time"`
	ScannedAt time.Time  `json:"detailed_scan_time"`
}

// GetDeviceDetails looks a device up and attaches SMART and host information.
func (s *Scanner) GetDeviceDetails(ctx context.Context, id string) (*DeviceDetails, error) {
	rec, err := s.GetDeviceInfo(ctx, id)
	if err != nil {
		return nil, err
	}
	details := &DeviceDetails{
		DeviceRecord: *rec,
		SmartData: &SmartData{
			Available: false,
			Reason:    "SMART data requires additional tools (smartctl)",
		},
		ScannedAt: s.now().UTC(),
	}
	if bt, err := s.bootTime(ctx); err != nil {
		s.logger.Debugf("boot time unavailable: %v", err)
	} else {
		details.BootTime = bt
	}
	return details, nil
}
