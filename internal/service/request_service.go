package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"meterstock/internal/lifecycle"
	"meterstock/internal/model"
	"meterstock/internal/notifier"
	"meterstock/internal/repository"

	"github.com/google/uuid"
)

// --- DTOs ---

// Actor is the authenticated identity attached to every transition call.
// It comes straight out of the JWT; the service authorizes, never authenticates.
type Actor struct {
	ID   string
	Role string
	Name string
}

func (a Actor) lifecycleActor() lifecycle.Actor {
	return lifecycle.Actor{Role: a.Role, Identity: a.Name}
}

func (a Actor) userID() *uuid.UUID {
	parsed, err := uuid.Parse(a.ID)
	if err != nil {
		return nil
	}
	return &parsed
}

type RequestItemDTO struct {
	ItemType string `json:"item_type" binding:"required"`
	Quantity int    `json:"quantity" binding:"min=0"`
}

type SubmitRequestDTO struct {
	InstallerName string           `json:"installer_name" binding:"required"`
	Notes         string           `json:"notes"`
	Items         []RequestItemDTO `json:"items" binding:"required,min=1,dive"`
}

type SubmitDispatchDTO struct {
	BatchNumber  string `json:"batch_number" binding:"required"`
	ItemType     string `json:"item_type" binding:"required"`
	Quantity     int    `json:"quantity" binding:"required,gt=0"`
	DispatchDate string `json:"dispatch_date"` // optional, YYYY-MM-DD
	DocumentRef  string `json:"document_ref"`
}

type ApproveRequestDTO struct {
	ApprovedQuantity *int   `json:"approved_quantity"` // nil approves the full offered quantity
	ReviewerNotes    string `json:"reviewer_notes"`
	ProofPhotoRef    string `json:"proof_photo_ref"`
}

type DeclineRequestDTO struct {
	Reason string `json:"reason"`
}

type ListRequestsFilter struct {
	Status        string
	Origin        string
	InstallerName string
	Page          int
	Limit         int
}

type RequestResponse struct {
	RequestID           string  `json:"request_id"`
	Origin              string  `json:"origin"`
	Status              string  `json:"status"`
	Version             int     `json:"version"`
	ItemType            string  `json:"item_type"`
	ContractorName      string  `json:"contractor_name,omitempty"`
	InstallerName       string  `json:"installer_name,omitempty"`
	RequestedQuantity   int     `json:"requested_quantity"`
	ContractorNotes     string  `json:"contractor_notes,omitempty"`
	ManufacturerName    string  `json:"manufacturer_name,omitempty"`
	BatchNumber         string  `json:"batch_number,omitempty"`
	DispatchQuantity    int     `json:"dispatch_quantity"`
	DispatchDate        *string `json:"dispatch_date,omitempty"`
	ApprovedQuantity    *int    `json:"approved_quantity,omitempty"`
	ReviewerNotes       string  `json:"reviewer_notes,omitempty"`
	DeclineReason       string  `json:"decline_reason,omitempty"`
	ProofPhotoRef       string  `json:"proof_photo_ref,omitempty"`
	DispatchDocumentRef string  `json:"dispatch_document_ref,omitempty"`
	ApprovedAt          *string `json:"approved_at,omitempty"`
	ReceivedAt          *string `json:"received_at,omitempty"`
	CreatedAt           string  `json:"created_at"`
}

// --- Interface ---

// RequestService drives the lifecycle engine against the record store:
// fetch the current snapshot, apply the pure transition, persist through
// compare-and-swap, audit inside the transaction, notify after commit.
type RequestService interface {
	SubmitContractorRequest(ctx context.Context, actor Actor, req SubmitRequestDTO) ([]RequestResponse, error)
	SubmitManufacturerDispatch(ctx context.Context, actor Actor, req SubmitDispatchDTO) (RequestResponse, error)
	ApproveRequest(ctx context.Context, actor Actor, requestID string, req ApproveRequestDTO) (RequestResponse, error)
	DeclineRequest(ctx context.Context, actor Actor, requestID string, req DeclineRequestDTO) (RequestResponse, error)
	MarkReceived(ctx context.Context, actor Actor, requestID string) (RequestResponse, error)
	GetRequest(ctx context.Context, requestID string) (RequestResponse, error)
	ListRequests(ctx context.Context, filter ListRequestsFilter) ([]RequestResponse, int64, error)
	DeleteRequest(ctx context.Context, actor Actor, requestID string) error
}

type requestService struct {
	engine      *lifecycle.Engine
	requestRepo repository.RequestRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	notifier    notifier.Notifier
}

func NewRequestService(
	engine *lifecycle.Engine,
	requestRepo repository.RequestRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	n notifier.Notifier,
) RequestService {
	return &requestService{
		engine:      engine,
		requestRepo: requestRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		notifier:    n,
	}
}

// --- Implementation ---

func (s *requestService) SubmitContractorRequest(ctx context.Context, actor Actor, req SubmitRequestDTO) ([]RequestResponse, error) {
	now := time.Now()
	sub := lifecycle.ContractorSubmission{
		ContractorName: actor.Name,
		InstallerName:  req.InstallerName,
		Notes:          req.Notes,
	}
	for _, item := range req.Items {
		sub.Lines = append(sub.Lines, lifecycle.SubmissionLine{ItemType: item.ItemType, Quantity: item.Quantity})
	}

	baseID := lifecycle.NewRequestID(lifecycle.RequestIDPrefixContractor, now)
	records, events, err := s.engine.NewContractorRequests(actor.lifecycleActor(), baseID, now, sub)
	if err != nil {
		return nil, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		for i := range records {
			if createErr := s.requestRepo.Create(txCtx, &records[i]); createErr != nil {
				return createErr
			}
			if auditErr := s.logAudit(txCtx, actor, model.ActionSubmitRequest, records[i].RequestID, records[i].ItemType, map[string]interface{}{
				"installer": records[i].InstallerName,
				"quantity":  records[i].RequestedQuantity,
			}); auditErr != nil {
				return auditErr
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, ev := range events {
		s.notifier.Notify(ev)
	}

	responses := make([]RequestResponse, 0, len(records))
	for _, rec := range records {
		responses = append(responses, toRequestResponse(rec))
	}
	return responses, nil
}

func (s *requestService) SubmitManufacturerDispatch(ctx context.Context, actor Actor, req SubmitDispatchDTO) (RequestResponse, error) {
	now := time.Now()
	sub := lifecycle.ManufacturerSubmission{
		ManufacturerName: actor.Name,
		BatchNumber:      req.BatchNumber,
		ItemType:         req.ItemType,
		Quantity:         req.Quantity,
		DocumentRef:      req.DocumentRef,
	}
	if req.DispatchDate != "" {
		parsed, parseErr := time.Parse("2006-01-02", req.DispatchDate)
		if parseErr != nil {
			return RequestResponse{}, fmt.Errorf("%w: dispatch_date must be YYYY-MM-DD", lifecycle.ErrValidation)
		}
		sub.DispatchDate = parsed
	}

	id := lifecycle.NewRequestID(lifecycle.RequestIDPrefixManufacturer, now)
	rec, event, err := s.engine.NewManufacturerDispatch(actor.lifecycleActor(), id, now, sub)
	if err != nil {
		return RequestResponse{}, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.requestRepo.Create(txCtx, &rec); createErr != nil {
			return createErr
		}
		return s.logAudit(txCtx, actor, model.ActionSubmitDispatch, rec.RequestID, rec.ItemType, map[string]interface{}{
			"batch_number": rec.BatchNumber,
			"quantity":     rec.DispatchQuantity,
		})
	})
	if err != nil {
		return RequestResponse{}, err
	}

	s.notifier.Notify(event)
	return toRequestResponse(rec), nil
}

func (s *requestService) ApproveRequest(ctx context.Context, actor Actor, requestID string, req ApproveRequestDTO) (RequestResponse, error) {
	cmd := lifecycle.ApprovalCommand{
		Quantity:      req.ApprovedQuantity,
		ReviewerNotes: req.ReviewerNotes,
		ProofPhotoRef: req.ProofPhotoRef,
	}
	return s.transition(ctx, actor, requestID, model.ActionApproveRequest, func(rec model.StockRequest) (model.StockRequest, lifecycle.Event, error) {
		return s.engine.Approve(rec, actor.lifecycleActor(), cmd, time.Now())
	})
}

func (s *requestService) DeclineRequest(ctx context.Context, actor Actor, requestID string, req DeclineRequestDTO) (RequestResponse, error) {
	return s.transition(ctx, actor, requestID, model.ActionDeclineRequest, func(rec model.StockRequest) (model.StockRequest, lifecycle.Event, error) {
		return s.engine.Decline(rec, actor.lifecycleActor(), req.Reason, time.Now())
	})
}

func (s *requestService) MarkReceived(ctx context.Context, actor Actor, requestID string) (RequestResponse, error) {
	return s.transition(ctx, actor, requestID, model.ActionMarkReceived, func(rec model.StockRequest) (model.StockRequest, lifecycle.Event, error) {
		return s.engine.MarkReceived(rec, actor.lifecycleActor(), time.Now())
	})
}

// transition is the shared read-modify-CAS-audit loop body. The compare-and-swap
// guarantees two concurrent approvals of the same pending record cannot both
// land; the loser gets ErrVersionConflict and must re-read before retrying.
func (s *requestService) transition(
	ctx context.Context,
	actor Actor,
	requestID string,
	action string,
	apply func(model.StockRequest) (model.StockRequest, lifecycle.Event, error),
) (RequestResponse, error) {
	var updated model.StockRequest
	var event lifecycle.Event

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		rec, findErr := s.requestRepo.FindByRequestID(txCtx, requestID)
		if findErr != nil {
			return findErr
		}

		next, ev, applyErr := apply(*rec)
		if applyErr != nil {
			return applyErr
		}

		if casErr := s.requestRepo.UpdateCAS(txCtx, &next, rec.Version); casErr != nil {
			return casErr
		}

		if auditErr := s.logAudit(txCtx, actor, action, next.RequestID, next.ItemType, map[string]interface{}{
			"from": ev.From,
			"to":   ev.To,
		}); auditErr != nil {
			return auditErr
		}

		updated = next
		event = ev
		return nil
	})
	if err != nil {
		return RequestResponse{}, err
	}

	// Notification happens strictly after the commit; a slow or failing
	// notifier never affects the transition.
	s.notifier.Notify(event)
	return toRequestResponse(updated), nil
}

func (s *requestService) GetRequest(ctx context.Context, requestID string) (RequestResponse, error) {
	rec, err := s.requestRepo.FindByRequestID(ctx, requestID)
	if err != nil {
		return RequestResponse{}, err
	}
	return toRequestResponse(*rec), nil
}

func (s *requestService) ListRequests(ctx context.Context, filter ListRequestsFilter) ([]RequestResponse, int64, error) {
	records, total, err := s.requestRepo.List(ctx, repository.RequestFilter{
		Status:        filter.Status,
		Origin:        filter.Origin,
		InstallerName: filter.InstallerName,
		Page:          filter.Page,
		Limit:         filter.Limit,
	})
	if err != nil {
		return nil, 0, err
	}

	responses := make([]RequestResponse, 0, len(records))
	for _, rec := range records {
		responses = append(responses, toRequestResponse(rec))
	}
	return responses, total, nil
}

// DeleteRequest is a destructive store-level administrative operation, not a
// lifecycle transition. Only the manager role reaches this through the routes.
func (s *requestService) DeleteRequest(ctx context.Context, actor Actor, requestID string) error {
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		rec, findErr := s.requestRepo.FindByRequestID(txCtx, requestID)
		if findErr != nil {
			return findErr
		}
		if delErr := s.requestRepo.DeleteByRequestID(txCtx, requestID); delErr != nil {
			return delErr
		}
		return s.logAudit(txCtx, actor, model.ActionDeleteRequest, requestID, rec.ItemType, map[string]interface{}{
			"status_at_deletion": rec.Status,
		})
	})
}

// --- Helpers ---

func (s *requestService) logAudit(ctx context.Context, actor Actor, action, entityID, entityName string, details map[string]interface{}) error {
	payload, _ := json.Marshal(details)
	entry := model.AuditLog{
		UserID:     actor.userID(),
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    string(payload),
	}
	if err := s.auditRepo.Log(ctx, &entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func toRequestResponse(rec model.StockRequest) RequestResponse {
	resp := RequestResponse{
		RequestID:           rec.RequestID,
		Origin:              rec.Origin,
		Status:              rec.Status,
		Version:             rec.Version,
		ItemType:            rec.ItemType,
		ContractorName:      rec.ContractorName,
		InstallerName:       rec.InstallerName,
		RequestedQuantity:   rec.RequestedQuantity,
		ContractorNotes:     rec.ContractorNotes,
		ManufacturerName:    rec.ManufacturerName,
		BatchNumber:         rec.BatchNumber,
		DispatchQuantity:    rec.DispatchQuantity,
		ApprovedQuantity:    rec.ApprovedQuantity,
		ReviewerNotes:       rec.ReviewerNotes,
		DeclineReason:       rec.DeclineReason,
		ProofPhotoRef:       rec.ProofPhotoRef,
		DispatchDocumentRef: rec.DispatchDocumentRef,
		CreatedAt:           rec.CreatedAt.Format(time.RFC3339),
	}
	if rec.DispatchDate != nil {
		str := rec.DispatchDate.Format("2006-01-02")
		resp.DispatchDate = &str
	}
	if rec.ApprovedAt != nil {
		str := rec.ApprovedAt.Format(time.RFC3339)
		resp.ApprovedAt = &str
	}
	if rec.ReceivedAt != nil {
		str := rec.ReceivedAt.Format(time.RFC3339)
		resp.ReceivedAt = &str
	}
	return resp
}
