package model

import (
	"time"

	"github.com/google/uuid"
)

// Record origins. A contractor request enters at PENDING_VERIFICATION; a
// manufacturer dispatch skips straight to PENDING_CITY_APPROVAL.
const (
	OriginContractorRequest    = "CONTRACTOR_REQUEST"
	OriginManufacturerDispatch = "MANUFACTURER_DISPATCH"
)

// Lifecycle statuses. DECLINED and RECEIVED are terminal.
const (
	StatusPendingVerification = "PENDING_VERIFICATION"
	StatusPendingCityApproval = "PENDING_CITY_APPROVAL"
	StatusApproved            = "APPROVED"
	StatusDeclined            = "DECLINED"
	StatusReceived            = "RECEIVED"
)

// The five fixed roles.
const (
	RoleContractor   = "contractor"
	RoleCity         = "city"
	RoleInstaller    = "installer"
	RoleManufacturer = "manufacturer"
	RoleManager      = "manager"
)

// Item types handled by the program.
const (
	ItemTypeMeter  = "DN15 Meter"
	ItemTypeKeypad = "CIU Keypad"
)

// StockRequest is one lifecycle record: a single item type requested by a
// contractor or dispatched by a manufacturer, tracked from submission to a
// terminal status. RequestID is the human-facing key; Version backs the
// compare-and-swap updates in the repository.
type StockRequest struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RequestID string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"request_id"`
	Origin    string    `gorm:"type:varchar(50);not null;index" json:"origin"`
	Status    string    `gorm:"type:varchar(50);not null;index" json:"status"`
	Version   int       `gorm:"not null;default:1" json:"version"`
	ItemType  string    `gorm:"type:varchar(100);not null;index" json:"item_type"`

	// Contractor request fields
	ContractorName    string `gorm:"type:varchar(255)" json:"contractor_name,omitempty"`
	InstallerName     string `gorm:"type:varchar(255);index" json:"installer_name,omitempty"`
	RequestedQuantity int    `gorm:"not null;default:0" json:"requested_quantity"`
	ContractorNotes   string `gorm:"type:text" json:"contractor_notes,omitempty"`

	// Manufacturer dispatch fields
	ManufacturerName string     `gorm:"type:varchar(255)" json:"manufacturer_name,omitempty"`
	BatchNumber      string     `gorm:"type:varchar(100)" json:"batch_number,omitempty"`
	DispatchQuantity int        `gorm:"not null;default:0" json:"dispatch_quantity"`
	DispatchDate     *time.Time `json:"dispatch_date,omitempty"`

	// Review outcome fields
	ApprovedQuantity    *int       `json:"approved_quantity,omitempty"`
	ReviewerNotes       string     `gorm:"type:text" json:"reviewer_notes,omitempty"`
	DeclineReason       string     `gorm:"type:text" json:"decline_reason,omitempty"`
	ProofPhotoRef       string     `gorm:"type:varchar(512)" json:"proof_photo_ref,omitempty"`
	DispatchDocumentRef string     `gorm:"type:varchar(512)" json:"dispatch_document_ref,omitempty"`
	ApprovedAt          *time.Time `json:"approved_at,omitempty"`
	ReceivedAt          *time.Time `json:"received_at,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OfferedQuantity is the quantity on the table for review: what the
// contractor asked for, or what the manufacturer dispatched.
func (r StockRequest) OfferedQuantity() int {
	if r.Origin == OriginManufacturerDispatch {
		return r.DispatchQuantity
	}
	return r.RequestedQuantity
}

// Terminal reports whether the record can never transition again.
func (r StockRequest) Terminal() bool {
	return r.Status == StatusDeclined || r.Status == StatusReceived
}
