package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cyclonewatch/stormtrack/internal/audit"
	"github.com/cyclonewatch/stormtrack/internal/model"
)

// Memory is an in-process Store backed by maps, guarded by one mutex. It
// implements the same replace-all and idempotent-upsert semantics as the
// Postgres store so scheduler and job unit tests can exercise real
// persistence invariants without a database.
type Memory struct {
	mu sync.Mutex

	nextID     int64
	storms     map[int64]model.Storm
	stormCodes map[string]int64
	advisories map[int64][]model.Advisory // by storm ID
	forecasts  map[int64][]model.ForecastPoint
	zones      map[int64][]model.Zone
	auditLog   []audit.Entry
}

// NewMemory constructs an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		storms:     make(map[int64]model.Storm),
		stormCodes: make(map[string]int64),
		advisories: make(map[int64][]model.Advisory),
		forecasts:  make(map[int64][]model.ForecastPoint),
		zones:      make(map[int64][]model.Zone),
	}
}

func (m *Memory) allocID() int64 {
	m.nextID++

	return m.nextID
}

// UpsertStorm implements Store.
func (m *Memory) UpsertStorm(_ context.Context, storm model.Storm) (model.Storm, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.stormCodes[storm.Code]; ok {
		return m.storms[id], nil
	}

	storm.ID = m.allocID()
	if storm.Status == "" {
		storm.Status = model.StatusActive
	}

	if storm.LastStatusChangeUTC.IsZero() {
		storm.LastStatusChangeUTC = storm.FirstSeenUTC
	}

	m.storms[storm.ID] = storm
	m.stormCodes[storm.Code] = storm.ID

	return storm, nil
}

// GetStormByCode implements Store.
func (m *Memory) GetStormByCode(_ context.Context, code string) (model.Storm, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.stormCodes[code]
	if !ok {
		return model.Storm{}, fmt.Errorf("%w: storm %q", ErrNotFound, code)
	}

	return m.storms[id], nil
}

// GetStormByID implements Store.
func (m *Memory) GetStormByID(_ context.Context, stormID int64) (model.Storm, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	storm, ok := m.storms[stormID]
	if !ok {
		return model.Storm{}, fmt.Errorf("%w: storm id %d", ErrNotFound, stormID)
	}

	return storm, nil
}

// ListStormsByStatus implements Store.
func (m *Memory) ListStormsByStatus(_ context.Context, status model.Status) ([]model.Storm, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []model.Storm

	for _, s := range m.storms {
		if s.Status == status {
			out = append(out, s)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })

	return out, nil
}

// TouchLastSeen implements Store.
func (m *Memory) TouchLastSeen(_ context.Context, stormID int64, seenAtUTC time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	storm, ok := m.storms[stormID]
	if !ok {
		return fmt.Errorf("%w: storm id %d", ErrNotFound, stormID)
	}

	if seenAtUTC.After(storm.LastSeenUTC) {
		storm.LastSeenUTC = seenAtUTC
	}

	if storm.Status == model.StatusDormant {
		m.auditLog = append(m.auditLog, audit.NewStatusChange(storm, model.StatusDormant, model.StatusActive, "new advisory observed", seenAtUTC))
		storm.Status = model.StatusActive
		storm.LastStatusChangeUTC = seenAtUTC
	}

	m.storms[stormID] = storm

	return nil
}

// TransitionStatus implements Store.
func (m *Memory) TransitionStatus(_ context.Context, stormID int64, from, to model.Status, entry audit.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	storm, ok := m.storms[stormID]
	if !ok {
		return fmt.Errorf("%w: storm id %d", ErrNotFound, stormID)
	}

	if storm.Status != from {
		return fmt.Errorf("%w: storm %s is %s, not %s", ErrConcurrentTransition, storm.Code, storm.Status, from)
	}

	storm.Status = to
	storm.LastStatusChangeUTC = entry.CreatedAtUTC
	m.storms[stormID] = storm

	m.auditLog = append(m.auditLog, entry)

	return nil
}

// checksumLine returns the parser-supplied source-line checksum or, for an
// advisory without one, a hash of its stored fields, so the in-memory store
// enforces the same idempotence invariant as Postgres.
func checksumLine(a model.Advisory) string {
	if a.SourceLineChecksum != "" {
		return a.SourceLineChecksum
	}

	sum := sha256.Sum256([]byte(fmt.Sprintf("%d|%v|%f|%f|%f|%f|%f|%f|%v",
		a.StormID, a.IssuanceTimeUTC.Unix(), a.Lat, a.Lon, a.VmaxKt, a.MSLPHpa,
		a.MotionBearingDeg, a.MotionSpeedKt, a.Radii)))

	return hex.EncodeToString(sum[:])
}

// UpsertAdvisories implements Store.
func (m *Memory) UpsertAdvisories(_ context.Context, stormID int64, advisories []model.Advisory) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing := m.advisories[stormID]
	byIssuance := make(map[int64]int, len(existing))

	for i, a := range existing {
		byIssuance[a.IssuanceTimeUTC.Unix()] = i
	}

	written := 0

	for _, incoming := range advisories {
		incoming.StormID = stormID
		incoming.SourceLineChecksum = checksumLine(incoming)

		key := incoming.IssuanceTimeUTC.Unix()
		if idx, ok := byIssuance[key]; ok {
			if existing[idx].SourceLineChecksum == incoming.SourceLineChecksum {
				continue // identical content already persisted: idempotent no-op.
			}

			incoming.ID = existing[idx].ID
			existing[idx] = incoming
			written++

			continue
		}

		incoming.ID = m.allocID()
		existing = append(existing, incoming)
		byIssuance[key] = len(existing) - 1
		written++
	}

	sort.Slice(existing, func(i, j int) bool {
		return existing[i].IssuanceTimeUTC.Before(existing[j].IssuanceTimeUTC)
	})

	m.advisories[stormID] = existing

	return written, nil
}

// UpdateRadii implements Store.
func (m *Memory) UpdateRadii(_ context.Context, stormID, advisoryID int64, radiiSet []model.Radii) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	advisories := m.advisories[stormID]

	for i := range advisories {
		if advisories[i].ID == advisoryID {
			advisories[i].Radii = radiiSet

			return nil
		}
	}

	return fmt.Errorf("%w: advisory id %d for storm %d", ErrNotFound, advisoryID, stormID)
}

// ListAdvisories implements Store.
func (m *Memory) ListAdvisories(_ context.Context, stormID int64) ([]model.Advisory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]model.Advisory, len(m.advisories[stormID]))
	copy(out, m.advisories[stormID])

	return out, nil
}

// LatestAdvisory implements Store.
func (m *Memory) LatestAdvisory(_ context.Context, stormID int64) (model.Advisory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	advisories := m.advisories[stormID]
	if len(advisories) == 0 {
		return model.Advisory{}, fmt.Errorf("%w: no advisories for storm id %d", ErrNotFound, stormID)
	}

	return advisories[len(advisories)-1], nil
}

// ReplaceForecast implements Store.
func (m *Memory) ReplaceForecast(_ context.Context, stormID int64, points []model.ForecastPoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]model.ForecastPoint, len(points))

	for i, p := range points {
		p.StormID = stormID
		p.ID = m.allocID()
		out[i] = p
	}

	sort.Slice(out, func(i, j int) bool { return out[i].LeadHours < out[j].LeadHours })

	m.forecasts[stormID] = out

	return nil
}

// LatestForecast implements Store.
func (m *Memory) LatestForecast(_ context.Context, stormID int64) ([]model.ForecastPoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]model.ForecastPoint, len(m.forecasts[stormID]))
	copy(out, m.forecasts[stormID])

	return out, nil
}

// ReplaceZones implements Store.
func (m *Memory) ReplaceZones(_ context.Context, stormID int64, zones []model.Zone) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]model.Zone, len(zones))

	for i, z := range zones {
		z.StormID = stormID
		z.ID = m.allocID()
		out[i] = z
	}

	m.zones[stormID] = out

	return nil
}

// ListZones implements Store.
func (m *Memory) ListZones(_ context.Context, stormID int64) ([]model.Zone, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]model.Zone, len(m.zones[stormID]))
	copy(out, m.zones[stormID])

	return out, nil
}

// Ping implements Store; the in-memory store is always reachable.
func (m *Memory) Ping(_ context.Context) error {
	return nil
}

// AuditLog returns a copy of every audit entry written so far, for test
// assertions.
func (m *Memory) AuditLog() []audit.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]audit.Entry, len(m.auditLog))
	copy(out, m.auditLog)

	return out
}
