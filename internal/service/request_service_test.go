package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meterstock/internal/lifecycle"
	"meterstock/internal/model"
	"meterstock/internal/repository"
)

type fakeTxManager struct{}

func (fakeTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

type fakeRequestRepo struct {
	records       map[string]model.StockRequest
	forceConflict bool
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{records: make(map[string]model.StockRequest)}
}

func (r *fakeRequestRepo) Create(ctx context.Context, rec *model.StockRequest) error {
	if _, ok := r.records[rec.RequestID]; ok {
		return repository.ErrDuplicateID
	}
	rec.Version = 1
	r.records[rec.RequestID] = *rec
	return nil
}

func (r *fakeRequestRepo) FindByRequestID(ctx context.Context, requestID string) (*model.StockRequest, error) {
	rec, ok := r.records[requestID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &rec, nil
}

func (r *fakeRequestRepo) UpdateCAS(ctx context.Context, rec *model.StockRequest, expectedVersion int) error {
	stored, ok := r.records[rec.RequestID]
	if !ok {
		return repository.ErrNotFound
	}
	if r.forceConflict || stored.Version != expectedVersion {
		return repository.ErrVersionConflict
	}
	rec.Version = expectedVersion + 1
	r.records[rec.RequestID] = *rec
	return nil
}

func (r *fakeRequestRepo) List(ctx context.Context, filter repository.RequestFilter) ([]model.StockRequest, int64, error) {
	var out []model.StockRequest
	for _, rec := range r.records {
		out = append(out, rec)
	}
	return out, int64(len(out)), nil
}

func (r *fakeRequestRepo) ListAll(ctx context.Context) ([]model.StockRequest, error) {
	var out []model.StockRequest
	for _, rec := range r.records {
		out = append(out, rec)
	}
	return out, nil
}

func (r *fakeRequestRepo) DeleteByRequestID(ctx context.Context, requestID string) error {
	if _, ok := r.records[requestID]; !ok {
		return repository.ErrNotFound
	}
	delete(r.records, requestID)
	return nil
}

func (r *fakeRequestRepo) ReplaceAll(ctx context.Context, records []model.StockRequest) error {
	r.records = make(map[string]model.StockRequest)
	for _, rec := range records {
		r.records[rec.RequestID] = rec
	}
	return nil
}

type fakeAuditRepo struct {
	entries []model.AuditLog
}

func (r *fakeAuditRepo) Log(ctx context.Context, entry *model.AuditLog) error {
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeAuditRepo) List(ctx context.Context, action string, page, limit int) ([]model.AuditLog, int64, error) {
	return r.entries, int64(len(r.entries)), nil
}

type fakeNotifier struct {
	events []lifecycle.Event
}

func (n *fakeNotifier) Notify(event lifecycle.Event) {
	n.events = append(n.events, event)
}

func newTestService() (RequestService, *fakeRequestRepo, *fakeAuditRepo, *fakeNotifier) {
	repo := newFakeRequestRepo()
	audit := &fakeAuditRepo{}
	notif := &fakeNotifier{}
	svc := NewRequestService(&lifecycle.Engine{}, repo, audit, fakeTxManager{}, notif)
	return svc, repo, audit, notif
}

var (
	testContractor = Actor{ID: "5f1b0a3e-98f5-4cb9-9c41-2f1f5d3f6a10", Role: model.RoleContractor, Name: "Deezlo"}
	testCity       = Actor{ID: "5f1b0a3e-98f5-4cb9-9c41-2f1f5d3f6a11", Role: model.RoleCity, Name: "ethekwini"}
	testBob        = Actor{ID: "5f1b0a3e-98f5-4cb9-9c41-2f1f5d3f6a12", Role: model.RoleInstaller, Name: "Bob"}
	testAlice      = Actor{ID: "5f1b0a3e-98f5-4cb9-9c41-2f1f5d3f6a13", Role: model.RoleInstaller, Name: "Alice"}
)

func submitOne(t *testing.T, svc RequestService) RequestResponse {
	t.Helper()
	records, err := svc.SubmitContractorRequest(context.Background(), testContractor, SubmitRequestDTO{
		InstallerName: "Bob",
		Items:         []RequestItemDTO{{ItemType: model.ItemTypeMeter, Quantity: 10}},
	})
	require.NoError(t, err)
	require.Len(t, records, 1)
	return records[0]
}

func TestSubmitContractorRequest(t *testing.T) {
	svc, repo, audit, notif := newTestService()

	rec := submitOne(t, svc)
	assert.Equal(t, model.StatusPendingVerification, rec.Status)
	assert.Equal(t, 1, rec.Version)
	assert.Contains(t, repo.records, rec.RequestID)

	require.Len(t, audit.entries, 1)
	assert.Equal(t, model.ActionSubmitRequest, audit.entries[0].Action)
	assert.Equal(t, rec.RequestID, audit.entries[0].EntityID)

	require.Len(t, notif.events, 1)
	assert.Equal(t, model.StatusPendingVerification, notif.events[0].To)
}

func TestApproveRequestBumpsVersionAndNotifies(t *testing.T) {
	svc, repo, _, notif := newTestService()
	rec := submitOne(t, svc)

	qty := 8
	updated, err := svc.ApproveRequest(context.Background(), testCity, rec.RequestID, ApproveRequestDTO{ApprovedQuantity: &qty})
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, updated.Status)
	assert.Equal(t, 2, updated.Version)
	require.NotNil(t, updated.ApprovedQuantity)
	assert.Equal(t, 8, *updated.ApprovedQuantity)

	stored := repo.records[rec.RequestID]
	assert.Equal(t, model.StatusApproved, stored.Status)
	assert.Equal(t, 2, stored.Version)

	require.Len(t, notif.events, 2)
	assert.Equal(t, model.StatusPendingVerification, notif.events[1].From)
	assert.Equal(t, model.StatusApproved, notif.events[1].To)
}

func TestVersionConflictSurfaces(t *testing.T) {
	svc, repo, _, notif := newTestService()
	rec := submitOne(t, svc)

	repo.forceConflict = true
	_, err := svc.ApproveRequest(context.Background(), testCity, rec.RequestID, ApproveRequestDTO{})
	assert.ErrorIs(t, err, repository.ErrVersionConflict)

	// The failed transition must not notify or change the store.
	assert.Len(t, notif.events, 1)
	assert.Equal(t, model.StatusPendingVerification, repo.records[rec.RequestID].Status)
}

func TestDeclineWithoutReasonLeavesRecordUntouched(t *testing.T) {
	svc, repo, audit, notif := newTestService()
	rec := submitOne(t, svc)

	_, err := svc.DeclineRequest(context.Background(), testCity, rec.RequestID, DeclineRequestDTO{Reason: "  "})
	assert.ErrorIs(t, err, lifecycle.ErrValidation)
	assert.Equal(t, model.StatusPendingVerification, repo.records[rec.RequestID].Status)
	assert.Len(t, audit.entries, 1)
	assert.Len(t, notif.events, 1)
}

func TestMarkReceivedEnforcesInstallerIdentity(t *testing.T) {
	svc, repo, _, _ := newTestService()
	rec := submitOne(t, svc)

	_, err := svc.ApproveRequest(context.Background(), testCity, rec.RequestID, ApproveRequestDTO{})
	require.NoError(t, err)

	_, err = svc.MarkReceived(context.Background(), testAlice, rec.RequestID)
	assert.ErrorIs(t, err, lifecycle.ErrUnauthorized)
	assert.Equal(t, model.StatusApproved, repo.records[rec.RequestID].Status)

	updated, err := svc.MarkReceived(context.Background(), testBob, rec.RequestID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusReceived, updated.Status)
	assert.Equal(t, 3, updated.Version)
}

func TestTransitionOnMissingRecord(t *testing.T) {
	svc, _, _, _ := newTestService()
	_, err := svc.ApproveRequest(context.Background(), testCity, "REQ-nope", ApproveRequestDTO{})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDispatchDateValidation(t *testing.T) {
	svc, _, _, _ := newTestService()
	maker := Actor{ID: "5f1b0a3e-98f5-4cb9-9c41-2f1f5d3f6a14", Role: model.RoleManufacturer, Name: "manufacturer1"}

	_, err := svc.SubmitManufacturerDispatch(context.Background(), maker, SubmitDispatchDTO{
		BatchNumber:  "B100",
		ItemType:     model.ItemTypeKeypad,
		Quantity:     50,
		DispatchDate: "14-05-2024",
	})
	assert.ErrorIs(t, err, lifecycle.ErrValidation)

	rec, err := svc.SubmitManufacturerDispatch(context.Background(), maker, SubmitDispatchDTO{
		BatchNumber:  "B100",
		ItemType:     model.ItemTypeKeypad,
		Quantity:     50,
		DispatchDate: "2024-05-14",
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusPendingCityApproval, rec.Status)
	require.NotNil(t, rec.DispatchDate)
	assert.Equal(t, "2024-05-14", *rec.DispatchDate)
}

func TestDeleteRequestAudits(t *testing.T) {
	svc, repo, audit, _ := newTestService()
	rec := submitOne(t, svc)

	manager := Actor{ID: "5f1b0a3e-98f5-4cb9-9c41-2f1f5d3f6a15", Role: model.RoleManager, Name: "Reece"}
	require.NoError(t, svc.DeleteRequest(context.Background(), manager, rec.RequestID))
	assert.NotContains(t, repo.records, rec.RequestID)

	require.Len(t, audit.entries, 2)
	assert.Equal(t, model.ActionDeleteRequest, audit.entries[1].Action)
}
