// Package lifecycle owns the authoritative state machine for stock request
// records: which statuses exist, which role may trigger each transition, and
// the field mutations a transition performs. Everything here is pure: the
// engine never touches the database. Callers load a record snapshot, apply a
// transition, and persist the result themselves (see service.RequestService).
package lifecycle

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"meterstock/internal/model"
)

// Transition failure taxonomy. All failures are synchronous and typed;
// nothing in this package is retryable.
var (
	// ErrInvalidTransition means the event is not legal from the record's
	// current status (including any attempt against a DECLINED/RECEIVED record).
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrUnauthorized means the actor's role, or for MarkReceived the actor's
	// identity, does not match the required actor for the transition.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrValidation means the transition payload is missing or malformed.
	ErrValidation = errors.New("validation error")
)

// Actor identifies who is attempting a transition. The engine authorizes but
// never authenticates; both values arrive from the caller's auth layer.
type Actor struct {
	Role     string
	Identity string
}

// Event describes a committed transition, handed to the notifier after the
// store write succeeds. From is empty for record creation.
type Event struct {
	RequestID string    `json:"request_id"`
	ItemType  string    `json:"item_type"`
	From      string    `json:"from_status"`
	To        string    `json:"to_status"`
	ActorRole string    `json:"actor_role"`
	ActorName string    `json:"actor_name"`
	At        time.Time `json:"at"`
}

// Engine evaluates transitions. AllowOverApproval lifts the bound of
// approved quantity by offered quantity; it defaults to off, which is the
// stricter reading of the historical behavior (the old system never checked).
type Engine struct {
	AllowOverApproval bool
}

// SubmissionLine is one item type + quantity pair inside a contractor submission.
type SubmissionLine struct {
	ItemType string
	Quantity int
}

// ContractorSubmission carries the payload of a contractor stock request.
// A single submission may list several item types; each positive line becomes
// its own record sharing the base request id and created_at.
type ContractorSubmission struct {
	ContractorName string
	InstallerName  string
	Notes          string
	Lines          []SubmissionLine
}

// ManufacturerSubmission carries the payload of a manufacturer dispatch.
type ManufacturerSubmission struct {
	ManufacturerName string
	BatchNumber      string
	ItemType         string
	Quantity         int
	DispatchDate     time.Time
	DocumentRef      string
}

// Request id prefixes, kept from the original numbering scheme.
const (
	RequestIDPrefixContractor   = "REQ"
	RequestIDPrefixManufacturer = "MANU"
)

// NewRequestID builds a timestamp-based base identifier, e.g. REQ-20240131093055.
// Contractor line records append "-<item type>" to the base (see NewContractorRequests).
func NewRequestID(prefix string, now time.Time) string {
	return fmt.Sprintf("%s-%s", prefix, now.Format("20060102150405"))
}

// NewContractorRequests creates one PENDING_VERIFICATION record per positive
// line. There is no atomicity guarantee across the set; each record stands
// alone once created.
func (e *Engine) NewContractorRequests(actor Actor, baseID string, now time.Time, sub ContractorSubmission) ([]model.StockRequest, []Event, error) {
	if actor.Role != model.RoleContractor {
		return nil, nil, fmt.Errorf("%w: only a contractor may submit a stock request", ErrUnauthorized)
	}
	if strings.TrimSpace(sub.InstallerName) == "" {
		return nil, nil, fmt.Errorf("%w: installer name is required", ErrValidation)
	}

	var lines []SubmissionLine
	for _, l := range sub.Lines {
		if l.Quantity < 0 {
			return nil, nil, fmt.Errorf("%w: quantity for %q must not be negative", ErrValidation, l.ItemType)
		}
		if strings.TrimSpace(l.ItemType) == "" {
			return nil, nil, fmt.Errorf("%w: item type is required", ErrValidation)
		}
		if l.Quantity > 0 {
			lines = append(lines, l)
		}
	}
	if len(lines) == 0 {
		return nil, nil, fmt.Errorf("%w: at least one item with a positive quantity is required", ErrValidation)
	}

	records := make([]model.StockRequest, 0, len(lines))
	events := make([]Event, 0, len(lines))
	for _, l := range lines {
		rec := model.StockRequest{
			RequestID:         fmt.Sprintf("%s-%s", baseID, l.ItemType),
			Origin:            model.OriginContractorRequest,
			Status:            model.StatusPendingVerification,
			ItemType:          l.ItemType,
			ContractorName:    sub.ContractorName,
			InstallerName:     sub.InstallerName,
			RequestedQuantity: l.Quantity,
			ContractorNotes:   sub.Notes,
			CreatedAt:         now,
		}
		records = append(records, rec)
		events = append(events, creationEvent(rec, actor, now))
	}
	return records, events, nil
}

// NewManufacturerDispatch creates a single PENDING_CITY_APPROVAL record.
func (e *Engine) NewManufacturerDispatch(actor Actor, id string, now time.Time, sub ManufacturerSubmission) (model.StockRequest, Event, error) {
	if actor.Role != model.RoleManufacturer {
		return model.StockRequest{}, Event{}, fmt.Errorf("%w: only a manufacturer may submit a dispatch", ErrUnauthorized)
	}
	if strings.TrimSpace(sub.BatchNumber) == "" {
		return model.StockRequest{}, Event{}, fmt.Errorf("%w: batch number is required", ErrValidation)
	}
	if sub.Quantity <= 0 {
		return model.StockRequest{}, Event{}, fmt.Errorf("%w: dispatch quantity must be positive", ErrValidation)
	}
	if strings.TrimSpace(sub.ItemType) == "" {
		return model.StockRequest{}, Event{}, fmt.Errorf("%w: item type is required", ErrValidation)
	}

	dispatchDate := sub.DispatchDate
	if dispatchDate.IsZero() {
		dispatchDate = now
	}
	rec := model.StockRequest{
		RequestID:           id,
		Origin:              model.OriginManufacturerDispatch,
		Status:              model.StatusPendingCityApproval,
		ItemType:            sub.ItemType,
		ManufacturerName:    sub.ManufacturerName,
		BatchNumber:         sub.BatchNumber,
		DispatchQuantity:    sub.Quantity,
		DispatchDate:        &dispatchDate,
		DispatchDocumentRef: sub.DocumentRef,
		CreatedAt:           now,
	}
	return rec, creationEvent(rec, actor, now), nil
}

// ApprovalCommand is the payload of an Approve transition. A nil Quantity
// means "approve the full offered quantity"; an explicit zero is a legitimate
// zero-approval outcome.
type ApprovalCommand struct {
	Quantity      *int
	ReviewerNotes string
	ProofPhotoRef string
}

// Approve moves a pending record to APPROVED. Only the city reviewer may
// approve. The approved quantity is bounded by the offered quantity unless
// the engine was configured with AllowOverApproval.
func (e *Engine) Approve(rec model.StockRequest, actor Actor, cmd ApprovalCommand, now time.Time) (model.StockRequest, Event, error) {
	if rec.Status != model.StatusPendingVerification && rec.Status != model.StatusPendingCityApproval {
		return rec, Event{}, fmt.Errorf("%w: cannot approve a record in status %s", ErrInvalidTransition, rec.Status)
	}
	if actor.Role != model.RoleCity {
		return rec, Event{}, fmt.Errorf("%w: only the city reviewer may approve", ErrUnauthorized)
	}

	qty := rec.OfferedQuantity()
	if cmd.Quantity != nil {
		qty = *cmd.Quantity
	}
	if qty < 0 {
		return rec, Event{}, fmt.Errorf("%w: approved quantity must not be negative", ErrValidation)
	}
	if !e.AllowOverApproval && qty > rec.OfferedQuantity() {
		return rec, Event{}, fmt.Errorf("%w: approved quantity %d exceeds offered quantity %d", ErrValidation, qty, rec.OfferedQuantity())
	}

	from := rec.Status
	rec.Status = model.StatusApproved
	rec.ApprovedQuantity = &qty
	rec.ApprovedAt = &now
	if cmd.ReviewerNotes != "" {
		rec.ReviewerNotes = cmd.ReviewerNotes
	}
	if cmd.ProofPhotoRef != "" {
		rec.ProofPhotoRef = cmd.ProofPhotoRef
	}
	return rec, transitionEvent(rec, from, actor, now), nil
}

// Decline moves a pending record to DECLINED. A non-blank reason is mandatory.
func (e *Engine) Decline(rec model.StockRequest, actor Actor, reason string, now time.Time) (model.StockRequest, Event, error) {
	if rec.Status != model.StatusPendingVerification && rec.Status != model.StatusPendingCityApproval {
		return rec, Event{}, fmt.Errorf("%w: cannot decline a record in status %s", ErrInvalidTransition, rec.Status)
	}
	if actor.Role != model.RoleCity {
		return rec, Event{}, fmt.Errorf("%w: only the city reviewer may decline", ErrUnauthorized)
	}
	if strings.TrimSpace(reason) == "" {
		return rec, Event{}, fmt.Errorf("%w: a decline reason is required", ErrValidation)
	}

	from := rec.Status
	rec.Status = model.StatusDeclined
	rec.DeclineReason = reason
	return rec, transitionEvent(rec, from, actor, now), nil
}

// MarkReceived moves an APPROVED record to RECEIVED. Only the installer the
// record was raised for may confirm receipt (compared case-insensitively).
// Manufacturer dispatches carry no installer assignment, so any installer may
// receive those.
func (e *Engine) MarkReceived(rec model.StockRequest, actor Actor, now time.Time) (model.StockRequest, Event, error) {
	if rec.Status != model.StatusApproved {
		return rec, Event{}, fmt.Errorf("%w: cannot mark a record in status %s as received", ErrInvalidTransition, rec.Status)
	}
	if actor.Role != model.RoleInstaller {
		return rec, Event{}, fmt.Errorf("%w: only an installer may confirm receipt", ErrUnauthorized)
	}
	if rec.InstallerName != "" && !strings.EqualFold(rec.InstallerName, actor.Identity) {
		return rec, Event{}, fmt.Errorf("%w: record is assigned to installer %q", ErrUnauthorized, rec.InstallerName)
	}

	from := rec.Status
	rec.Status = model.StatusReceived
	rec.ReceivedAt = &now
	return rec, transitionEvent(rec, from, actor, now), nil
}

// Validate checks the derived record invariants: field presence must agree
// with status. Used by tests and by archive restore before re-inserting rows.
func Validate(rec model.StockRequest) error {
	approvedish := rec.Status == model.StatusApproved || rec.Status == model.StatusReceived
	if approvedish && rec.ApprovedQuantity == nil {
		return fmt.Errorf("%w: status %s requires an approved quantity", ErrValidation, rec.Status)
	}
	if !approvedish && rec.ApprovedQuantity != nil {
		return fmt.Errorf("%w: approved quantity set on status %s", ErrValidation, rec.Status)
	}
	if (rec.Status == model.StatusDeclined) != (strings.TrimSpace(rec.DeclineReason) != "") {
		return fmt.Errorf("%w: decline reason must be present exactly when status is %s", ErrValidation, model.StatusDeclined)
	}
	if (rec.Status == model.StatusReceived) != (rec.ReceivedAt != nil) {
		return fmt.Errorf("%w: received_at must be present exactly when status is %s", ErrValidation, model.StatusReceived)
	}
	switch rec.Origin {
	case model.OriginContractorRequest, model.OriginManufacturerDispatch:
	default:
		return fmt.Errorf("%w: unknown origin %q", ErrValidation, rec.Origin)
	}
	return nil
}

func creationEvent(rec model.StockRequest, actor Actor, at time.Time) Event {
	return Event{
		RequestID: rec.RequestID,
		ItemType:  rec.ItemType,
		To:        rec.Status,
		ActorRole: actor.Role,
		ActorName: actor.Identity,
		At:        at,
	}
}

func transitionEvent(rec model.StockRequest, from string, actor Actor, at time.Time) Event {
	return Event{
		RequestID: rec.RequestID,
		ItemType:  rec.ItemType,
		From:      from,
		To:        rec.Status,
		ActorRole: actor.Role,
		ActorName: actor.Identity,
		At:        at,
	}
}
