package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meterstock/internal/model"
)

var (
	contractor = Actor{Role: model.RoleContractor, Identity: "Deezlo"}
	city       = Actor{Role: model.RoleCity, Identity: "ethekwini"}
	bob        = Actor{Role: model.RoleInstaller, Identity: "Bob"}
	alice      = Actor{Role: model.RoleInstaller, Identity: "Alice"}
	maker      = Actor{Role: model.RoleManufacturer, Identity: "manufacturer1"}
	manager    = Actor{Role: model.RoleManager, Identity: "Reece"}
)

func now() time.Time {
	return time.Date(2024, 5, 14, 9, 30, 0, 0, time.UTC)
}

func pendingRequest() model.StockRequest {
	return model.StockRequest{
		RequestID:         "REQ-20240514093000-DN15 Meter",
		Origin:            model.OriginContractorRequest,
		Status:            model.StatusPendingVerification,
		ItemType:          model.ItemTypeMeter,
		ContractorName:    "Deezlo",
		InstallerName:     "Bob",
		RequestedQuantity: 10,
		CreatedAt:         now(),
	}
}

func pendingDispatch() model.StockRequest {
	d := now()
	return model.StockRequest{
		RequestID:        "MANU-20240514093000",
		Origin:           model.OriginManufacturerDispatch,
		Status:           model.StatusPendingCityApproval,
		ItemType:         model.ItemTypeKeypad,
		ManufacturerName: "Manufacturer1",
		BatchNumber:      "B100",
		DispatchQuantity: 50,
		DispatchDate:     &d,
		CreatedAt:        now(),
	}
}

func inStatus(t *testing.T, status string) model.StockRequest {
	t.Helper()
	e := &Engine{}
	rec := pendingRequest()
	switch status {
	case model.StatusPendingVerification:
		return rec
	case model.StatusPendingCityApproval:
		return pendingDispatch()
	case model.StatusApproved:
		rec, _, err := e.Approve(rec, city, ApprovalCommand{}, now())
		require.NoError(t, err)
		return rec
	case model.StatusDeclined:
		rec, _, err := e.Decline(rec, city, "damaged", now())
		require.NoError(t, err)
		return rec
	case model.StatusReceived:
		rec, _, err := e.Approve(rec, city, ApprovalCommand{}, now())
		require.NoError(t, err)
		rec, _, err = e.MarkReceived(rec, bob, now())
		require.NoError(t, err)
		return rec
	}
	t.Fatalf("unknown status %s", status)
	return rec
}

// applyEvent drives a named transition with an actor that is authorized for
// it, so that status legality is the only thing under test.
func applyEvent(e *Engine, rec model.StockRequest, event string) error {
	var err error
	switch event {
	case "approve":
		_, _, err = e.Approve(rec, city, ApprovalCommand{}, now())
	case "decline":
		_, _, err = e.Decline(rec, city, "reason", now())
	case "receive":
		actor := bob
		if rec.InstallerName != "" {
			actor = Actor{Role: model.RoleInstaller, Identity: rec.InstallerName}
		}
		_, _, err = e.MarkReceived(rec, actor, now())
	}
	return err
}

func TestStateCoverage(t *testing.T) {
	legal := map[string]map[string]bool{
		"approve": {model.StatusPendingVerification: true, model.StatusPendingCityApproval: true},
		"decline": {model.StatusPendingVerification: true, model.StatusPendingCityApproval: true},
		"receive": {model.StatusApproved: true},
	}
	statuses := []string{
		model.StatusPendingVerification,
		model.StatusPendingCityApproval,
		model.StatusApproved,
		model.StatusDeclined,
		model.StatusReceived,
	}

	e := &Engine{}
	for event, from := range legal {
		for _, status := range statuses {
			err := applyEvent(e, inStatus(t, status), event)
			if from[status] {
				assert.NoError(t, err, "%s from %s should be legal", event, status)
			} else {
				assert.ErrorIs(t, err, ErrInvalidTransition, "%s from %s", event, status)
			}
		}
	}
}

func TestAuthorizationPerTransition(t *testing.T) {
	e := &Engine{}
	badActors := []Actor{contractor, maker, manager, bob}
	for _, a := range badActors {
		_, _, err := e.Approve(pendingRequest(), a, ApprovalCommand{}, now())
		assert.ErrorIs(t, err, ErrUnauthorized, "approve as %s", a.Role)
		_, _, err = e.Decline(pendingDispatch(), a, "reason", now())
		assert.ErrorIs(t, err, ErrUnauthorized, "decline as %s", a.Role)
	}

	for _, a := range []Actor{contractor, maker, manager, city} {
		_, _, err := e.MarkReceived(inStatus(t, model.StatusApproved), a, now())
		assert.ErrorIs(t, err, ErrUnauthorized, "receive as %s", a.Role)
	}

	_, _, err := e.NewContractorRequests(city, "REQ-1", now(), ContractorSubmission{
		InstallerName: "Bob",
		Lines:         []SubmissionLine{{ItemType: model.ItemTypeMeter, Quantity: 1}},
	})
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, _, err = e.NewManufacturerDispatch(contractor, "MANU-1", now(), ManufacturerSubmission{
		BatchNumber: "B1", ItemType: model.ItemTypeMeter, Quantity: 1,
	})
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestDeclineRequiresReason(t *testing.T) {
	e := &Engine{}
	for _, reason := range []string{"", "   ", "\t\n"} {
		rec := pendingRequest()
		got, _, err := e.Decline(rec, city, reason, now())
		assert.ErrorIs(t, err, ErrValidation)
		assert.Equal(t, rec, got, "record must be unchanged on validation failure")
	}

	rec, ev, err := e.Decline(pendingRequest(), city, "Damaged batch", now())
	require.NoError(t, err)
	assert.Equal(t, model.StatusDeclined, rec.Status)
	assert.Equal(t, "Damaged batch", rec.DeclineReason)
	assert.Equal(t, model.StatusPendingVerification, ev.From)
	assert.Equal(t, model.StatusDeclined, ev.To)
	assert.NoError(t, Validate(rec))
}

func TestApprovalQuantityBound(t *testing.T) {
	e := &Engine{}

	over := 11
	_, _, err := e.Approve(pendingRequest(), city, ApprovalCommand{Quantity: &over}, now())
	assert.ErrorIs(t, err, ErrValidation)

	neg := -1
	_, _, err = e.Approve(pendingRequest(), city, ApprovalCommand{Quantity: &neg}, now())
	assert.ErrorIs(t, err, ErrValidation)

	// Zero-approval is a legitimate business outcome.
	zero := 0
	rec, _, err := e.Approve(pendingRequest(), city, ApprovalCommand{Quantity: &zero}, now())
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, rec.Status)
	require.NotNil(t, rec.ApprovedQuantity)
	assert.Equal(t, 0, *rec.ApprovedQuantity)
	assert.NoError(t, Validate(rec))

	// Default is the full offered quantity.
	rec, _, err = e.Approve(pendingDispatch(), city, ApprovalCommand{}, now())
	require.NoError(t, err)
	assert.Equal(t, 50, *rec.ApprovedQuantity)

	// Over-approval may be explicitly enabled.
	permissive := &Engine{AllowOverApproval: true}
	rec, _, err = permissive.Approve(pendingRequest(), city, ApprovalCommand{Quantity: &over}, now())
	require.NoError(t, err)
	assert.Equal(t, 11, *rec.ApprovedQuantity)
}

func TestTerminalImmutability(t *testing.T) {
	e := &Engine{}
	actors := []Actor{contractor, city, bob, maker, manager}
	for _, status := range []string{model.StatusDeclined, model.StatusReceived} {
		rec := inStatus(t, status)
		for _, a := range actors {
			_, _, err := e.Approve(rec, a, ApprovalCommand{}, now())
			assert.ErrorIs(t, err, ErrInvalidTransition, "approve %s as %s", status, a.Role)
			_, _, err = e.Decline(rec, a, "again", now())
			assert.ErrorIs(t, err, ErrInvalidTransition, "decline %s as %s", status, a.Role)
			_, _, err = e.MarkReceived(rec, a, now())
			assert.ErrorIs(t, err, ErrInvalidTransition, "receive %s as %s", status, a.Role)
		}
	}
}

func TestInstallerIdentityMatch(t *testing.T) {
	e := &Engine{}
	rec := inStatus(t, model.StatusApproved)

	_, _, err := e.MarkReceived(rec, alice, now())
	assert.ErrorIs(t, err, ErrUnauthorized)

	// Case-insensitive match on the assigned installer.
	got, _, err := e.MarkReceived(rec, Actor{Role: model.RoleInstaller, Identity: "bOb"}, now())
	require.NoError(t, err)
	assert.Equal(t, model.StatusReceived, got.Status)

	// Dispatch records carry no installer assignment: any installer may receive.
	disp, _, err := e.Approve(pendingDispatch(), city, ApprovalCommand{}, now())
	require.NoError(t, err)
	got, _, err = e.MarkReceived(disp, alice, now())
	require.NoError(t, err)
	assert.Equal(t, model.StatusReceived, got.Status)
}

func TestHappyPath(t *testing.T) {
	e := &Engine{}

	records, events, err := e.NewContractorRequests(contractor, NewRequestID(RequestIDPrefixContractor, now()), now(), ContractorSubmission{
		ContractorName: "Deezlo",
		InstallerName:  "Bob",
		Notes:          "northern ward rollout",
		Lines: []SubmissionLine{
			{ItemType: model.ItemTypeMeter, Quantity: 10},
			{ItemType: model.ItemTypeKeypad, Quantity: 0}, // zero lines are skipped
		},
	})
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Len(t, events, 1)

	rec := records[0]
	assert.Equal(t, "REQ-20240514093000-DN15 Meter", rec.RequestID)
	assert.Equal(t, model.StatusPendingVerification, rec.Status)
	assert.Equal(t, 10, rec.RequestedQuantity)
	assert.NoError(t, Validate(rec))

	eight := 8
	rec, ev, err := e.Approve(rec, city, ApprovalCommand{Quantity: &eight, ReviewerNotes: "partial issue"}, now())
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, rec.Status)
	assert.Equal(t, 8, *rec.ApprovedQuantity)
	require.NotNil(t, rec.ApprovedAt)
	assert.Equal(t, model.StatusApproved, ev.To)

	// The wrong installer is rejected before Bob confirms.
	_, _, err = e.MarkReceived(rec, alice, now())
	assert.ErrorIs(t, err, ErrUnauthorized)

	rec, ev, err = e.MarkReceived(rec, bob, now())
	require.NoError(t, err)
	assert.Equal(t, model.StatusReceived, rec.Status)
	require.NotNil(t, rec.ReceivedAt)
	assert.Equal(t, model.StatusApproved, ev.From)
	assert.NoError(t, Validate(rec))
}

func TestDeclinePath(t *testing.T) {
	e := &Engine{}

	rec, _, err := e.NewManufacturerDispatch(maker, NewRequestID(RequestIDPrefixManufacturer, now()), now(), ManufacturerSubmission{
		ManufacturerName: "Manufacturer1",
		BatchNumber:      "B100",
		ItemType:         model.ItemTypeKeypad,
		Quantity:         50,
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusPendingCityApproval, rec.Status)

	before := rec
	_, _, err = e.Decline(rec, city, "", now())
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, before, rec, "failed decline must not mutate the record")

	rec, _, err = e.Decline(rec, city, "Damaged batch", now())
	require.NoError(t, err)
	assert.Equal(t, model.StatusDeclined, rec.Status)
	assert.Equal(t, "Damaged batch", rec.DeclineReason)

	_, _, err = e.Approve(rec, city, ApprovalCommand{}, now())
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, _, err = e.MarkReceived(rec, bob, now())
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestSubmissionValidation(t *testing.T) {
	e := &Engine{}

	_, _, err := e.NewContractorRequests(contractor, "REQ-1", now(), ContractorSubmission{
		InstallerName: "",
		Lines:         []SubmissionLine{{ItemType: model.ItemTypeMeter, Quantity: 5}},
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, _, err = e.NewContractorRequests(contractor, "REQ-1", now(), ContractorSubmission{
		InstallerName: "Bob",
		Lines:         []SubmissionLine{{ItemType: model.ItemTypeMeter, Quantity: 0}},
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, _, err = e.NewContractorRequests(contractor, "REQ-1", now(), ContractorSubmission{
		InstallerName: "Bob",
		Lines:         []SubmissionLine{{ItemType: model.ItemTypeMeter, Quantity: -3}},
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, _, err = e.NewManufacturerDispatch(maker, "MANU-1", now(), ManufacturerSubmission{
		BatchNumber: "  ", ItemType: model.ItemTypeMeter, Quantity: 10,
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, _, err = e.NewManufacturerDispatch(maker, "MANU-1", now(), ManufacturerSubmission{
		BatchNumber: "B1", ItemType: model.ItemTypeMeter, Quantity: 0,
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestMultiLineSubmissionSharesBaseID(t *testing.T) {
	e := &Engine{}
	records, _, err := e.NewContractorRequests(contractor, "REQ-20240514093000", now(), ContractorSubmission{
		ContractorName: "Deezlo",
		InstallerName:  "Bob",
		Lines: []SubmissionLine{
			{ItemType: model.ItemTypeMeter, Quantity: 10},
			{ItemType: model.ItemTypeKeypad, Quantity: 4},
		},
	})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "REQ-20240514093000-DN15 Meter", records[0].RequestID)
	assert.Equal(t, "REQ-20240514093000-CIU Keypad", records[1].RequestID)
	assert.Equal(t, records[0].CreatedAt, records[1].CreatedAt)
}
