package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hajiri.service/internal/core/model"
	"hajiri.service/internal/ports"
)

const metersPerLatDegree = 111194.926

var basePoint = model.Coordinate{Latitude: 28.6139, Longitude: 77.2090}

func pointNorthOf(base model.Coordinate, meters float64) model.Coordinate {
	return model.Coordinate{
		Latitude:  base.Latitude + meters/metersPerLatDegree,
		Longitude: base.Longitude,
	}
}

func testSite(orgID uuid.UUID, name string, c model.Coordinate) model.Site {
	lat, lon := c.Latitude, c.Longitude
	return model.Site{ID: uuid.New(), OrgID: orgID, Name: name, Latitude: &lat, Longitude: &lon}
}

// In-memory fakes for the engine's ports.

type fakeEmployees struct {
	byNumber map[string]*model.Employee
	err      error
}

func (f *fakeEmployees) FindByWhatsAppNumber(_ context.Context, number string) (*model.Employee, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byNumber[number], nil
}

type fakeSites struct {
	sites []model.Site
	err   error
	calls atomic.Int32
}

func (f *fakeSites) ListSites(_ context.Context, _ uuid.UUID) ([]model.Site, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.sites, nil
}

type fakeLedger struct {
	mu      sync.Mutex
	records map[string]model.AttendanceRecord
	err     error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{records: make(map[string]model.AttendanceRecord)}
}

func (f *fakeLedger) RecordPunchIn(_ context.Context, rec model.AttendanceRecord) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := rec.EmployeeID.String() + "|" + rec.Date
	if _, exists := f.records[key]; exists {
		return ports.ErrAlreadyRecorded
	}
	f.records[key] = rec
	return nil
}

func (f *fakeLedger) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (f *fakeNotifier) SendText(_ context.Context, to, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, to+": "+text)
	return f.err
}

func (f *fakeNotifier) last() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return ""
	}
	return f.sent[len(f.sent)-1]
}

type fakeAlerts struct {
	published int
}

func (f *fakeAlerts) PublishSiteConfigAlert(_ context.Context, _ uuid.UUID, _ string) error {
	f.published++
	return nil
}

type engineFixture struct {
	engine    *Engine
	employees *fakeEmployees
	sites     *fakeSites
	ledger    *fakeLedger
	notifier  *fakeNotifier
	alerts    *fakeAlerts
}

func newFixture(emp *model.Employee, sites []model.Site) *engineFixture {
	f := &engineFixture{
		employees: &fakeEmployees{byNumber: map[string]*model.Employee{}},
		sites:     &fakeSites{sites: sites},
		ledger:    newFakeLedger(),
		notifier:  &fakeNotifier{},
		alerts:    &fakeAlerts{},
	}
	if emp != nil {
		f.employees.byNumber[emp.WhatsAppNumber] = emp
	}
	f.engine = NewEngine(f.employees, f.sites, f.ledger, f.notifier, f.alerts, 50, time.UTC)
	return f
}

func pingFrom(number string, c model.Coordinate) model.LocationPing {
	return model.LocationPing{
		SenderID:   number,
		Coordinate: c,
		ReceivedAt: time.Date(2025, 11, 3, 9, 15, 0, 0, time.UTC),
	}
}

func registered(orgID uuid.UUID) *model.Employee {
	return &model.Employee{
		ID:             uuid.New(),
		OrgID:          orgID,
		Name:           "Ramesh",
		WhatsAppNumber: "919876543210",
	}
}

func TestAcceptedAtNearestSite(t *testing.T) {
	orgID := uuid.New()
	near := testSite(orgID, "Warehouse A", pointNorthOf(basePoint, 30))
	far := testSite(orgID, "Warehouse B", pointNorthOf(basePoint, 200))
	emp := registered(orgID)
	f := newFixture(emp, []model.Site{far, near})

	decision, err := f.engine.HandleLocation(context.Background(), pingFrom(emp.WhatsAppNumber, basePoint))

	require.NoError(t, err)
	assert.Equal(t, model.OutcomeAccepted, decision.Outcome)
	require.NotNil(t, decision.Site)
	assert.Equal(t, near.ID, decision.Site.ID)
	assert.InDelta(t, 30, decision.DistanceMeters, 0.5)

	require.Equal(t, 1, f.ledger.count())
	rec := f.ledger.records[emp.ID.String()+"|2025-11-03"]
	require.NotNil(t, rec.SiteID)
	assert.Equal(t, near.ID, *rec.SiteID)
	assert.Contains(t, f.notifier.last(), "Attendance Marked!")
	assert.Contains(t, f.notifier.last(), "Warehouse A")
}

func TestRejectedOutsideRadius(t *testing.T) {
	orgID := uuid.New()
	site := testSite(orgID, "Warehouse A", pointNorthOf(basePoint, 75))
	emp := registered(orgID)
	f := newFixture(emp, []model.Site{site})

	decision, err := f.engine.HandleLocation(context.Background(), pingFrom(emp.WhatsAppNumber, basePoint))

	require.NoError(t, err)
	assert.Equal(t, model.OutcomeRejected, decision.Outcome)
	require.NotNil(t, decision.Site)
	assert.Equal(t, site.ID, decision.Site.ID)
	assert.InDelta(t, 75, decision.DistanceMeters, 0.5)

	assert.Zero(t, f.ledger.count(), "rejected pings must not write the ledger")
	assert.Contains(t, f.notifier.last(), "Attendance Failed!")
}

func TestUnrestrictedCheckInSkipsGeofence(t *testing.T) {
	orgID := uuid.New()
	emp := registered(orgID)
	emp.AllowAnywhereCheckIn = true
	f := newFixture(emp, nil) // zero sites configured

	decision, err := f.engine.HandleLocation(context.Background(), pingFrom(emp.WhatsAppNumber, basePoint))

	require.NoError(t, err)
	assert.Equal(t, model.OutcomeAccepted, decision.Outcome)
	assert.Nil(t, decision.Site)
	assert.Zero(t, decision.DistanceMeters)
	assert.Zero(t, f.sites.calls.Load(), "unrestricted check-in must not consult the site directory")

	require.Equal(t, 1, f.ledger.count())
	rec := f.ledger.records[emp.ID.String()+"|2025-11-03"]
	assert.Nil(t, rec.SiteID)
	assert.Contains(t, f.notifier.last(), "Field Duty Mode")
}

func TestAssignedSiteMissingYieldsNoSitesConfigured(t *testing.T) {
	orgID := uuid.New()
	other := testSite(orgID, "Warehouse A", pointNorthOf(basePoint, 10))
	emp := registered(orgID)
	missing := uuid.New()
	emp.AssignedSiteID = &missing
	f := newFixture(emp, []model.Site{other})

	decision, err := f.engine.HandleLocation(context.Background(), pingFrom(emp.WhatsAppNumber, basePoint))

	require.NoError(t, err)
	assert.Equal(t, model.OutcomeNoSitesConfigured, decision.Outcome,
		"a dangling assigned site must not fall back to the full site set")
	assert.Zero(t, f.ledger.count())
	assert.Equal(t, 1, f.alerts.published)
	assert.Contains(t, f.notifier.last(), "koi site defined nahi hai")
}

func TestAssignedSiteRestrictsMatching(t *testing.T) {
	orgID := uuid.New()
	near := testSite(orgID, "Warehouse A", pointNorthOf(basePoint, 10))
	far := testSite(orgID, "Warehouse B", pointNorthOf(basePoint, 500))
	emp := registered(orgID)
	emp.AssignedSiteID = &far.ID
	f := newFixture(emp, []model.Site{near, far})

	decision, err := f.engine.HandleLocation(context.Background(), pingFrom(emp.WhatsAppNumber, basePoint))

	require.NoError(t, err)
	assert.Equal(t, model.OutcomeRejected, decision.Outcome,
		"standing next to an unassigned site must not count")
	require.NotNil(t, decision.Site)
	assert.Equal(t, far.ID, decision.Site.ID)
}

func TestUnregisteredSenderShortCircuits(t *testing.T) {
	f := newFixture(nil, []model.Site{testSite(uuid.New(), "Warehouse A", basePoint)})

	decision, err := f.engine.HandleLocation(context.Background(), pingFrom("910000000000", basePoint))

	require.NoError(t, err)
	assert.Equal(t, model.OutcomeUnregistered, decision.Outcome)
	assert.Zero(t, f.sites.calls.Load(), "unregistered senders must not reach the site resolver")
	assert.Zero(t, f.ledger.count())
	assert.Contains(t, f.notifier.last(), "registered nahi hai")
}

func TestSecondPingSameDayIsIdempotent(t *testing.T) {
	orgID := uuid.New()
	site := testSite(orgID, "Warehouse A", pointNorthOf(basePoint, 20))
	emp := registered(orgID)
	f := newFixture(emp, []model.Site{site})
	ping := pingFrom(emp.WhatsAppNumber, basePoint)

	first, err := f.engine.HandleLocation(context.Background(), ping)
	require.NoError(t, err)
	second, err := f.engine.HandleLocation(context.Background(), ping)
	require.NoError(t, err)

	assert.Equal(t, model.OutcomeAccepted, first.Outcome)
	assert.False(t, first.AlreadyMarked)
	assert.Equal(t, model.OutcomeAccepted, second.Outcome)
	assert.True(t, second.AlreadyMarked)
	assert.Equal(t, 1, f.ledger.count(), "exactly one record per employee per day")
	assert.Contains(t, f.notifier.last(), "pehle se lagi hui hai")
}

func TestConcurrentPingsProduceOneRecord(t *testing.T) {
	orgID := uuid.New()
	site := testSite(orgID, "Warehouse A", pointNorthOf(basePoint, 20))
	emp := registered(orgID)
	f := newFixture(emp, []model.Site{site})
	ping := pingFrom(emp.WhatsAppNumber, basePoint)

	const n = 8
	decisions := make([]model.Decision, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			decisions[i], errs[i] = f.engine.HandleLocation(context.Background(), ping)
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, model.OutcomeAccepted, decisions[i].Outcome)
	}
	assert.Equal(t, 1, f.ledger.count())
}

func TestNotifierFailureDoesNotAffectDecision(t *testing.T) {
	orgID := uuid.New()
	site := testSite(orgID, "Warehouse A", pointNorthOf(basePoint, 20))
	emp := registered(orgID)
	f := newFixture(emp, []model.Site{site})
	f.notifier.err = errors.New("graph api down")

	decision, err := f.engine.HandleLocation(context.Background(), pingFrom(emp.WhatsAppNumber, basePoint))

	require.NoError(t, err)
	assert.Equal(t, model.OutcomeAccepted, decision.Outcome)
	assert.Equal(t, 1, f.ledger.count(), "ledger write is authoritative regardless of the reply")
}

func TestDirectoryFailureAbortsEvent(t *testing.T) {
	f := newFixture(nil, nil)
	f.employees.err = fmt.Errorf("connection refused")

	_, err := f.engine.HandleLocation(context.Background(), pingFrom("919876543210", basePoint))

	require.Error(t, err)
	assert.Empty(t, f.notifier.sent, "transient failures are never exposed to the sender")
}

func TestLedgerFailureAbortsEvent(t *testing.T) {
	orgID := uuid.New()
	site := testSite(orgID, "Warehouse A", pointNorthOf(basePoint, 20))
	emp := registered(orgID)
	f := newFixture(emp, []model.Site{site})
	f.ledger.err = errors.New("deadlock detected")

	_, err := f.engine.HandleLocation(context.Background(), pingFrom(emp.WhatsAppNumber, basePoint))

	require.Error(t, err)
	for _, s := range f.notifier.sent {
		assert.False(t, strings.Contains(s, "Attendance Marked"), "no success reply without a ledger write")
	}
}

func TestHandleTextSendsInstructions(t *testing.T) {
	f := newFixture(nil, nil)

	f.engine.HandleText(context.Background(), "919876543210")

	assert.Zero(t, f.sites.calls.Load())
	assert.Zero(t, f.ledger.count())
	assert.Contains(t, f.notifier.last(), "Live Location")
}

func TestDateDerivedFromConfiguredTimezone(t *testing.T) {
	orgID := uuid.New()
	site := testSite(orgID, "Warehouse A", pointNorthOf(basePoint, 20))
	emp := registered(orgID)
	f := newFixture(emp, []model.Site{site})

	kolkata, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	f.engine = NewEngine(f.employees, f.sites, f.ledger, f.notifier, f.alerts, 50, kolkata)

	// 20:00 UTC on Nov 3 is already Nov 4 in Kolkata (+05:30).
	ping := model.LocationPing{
		SenderID:   emp.WhatsAppNumber,
		Coordinate: basePoint,
		ReceivedAt: time.Date(2025, 11, 3, 20, 0, 0, 0, time.UTC),
	}
	_, err = f.engine.HandleLocation(context.Background(), ping)
	require.NoError(t, err)

	_, exists := f.ledger.records[emp.ID.String()+"|2025-11-04"]
	assert.True(t, exists, "calendar date must follow the org timezone")
}
