package archiver

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meterstock/internal/model"
)

func fullRecord() model.StockRequest {
	approvedQty := 8
	approvedAt := time.Date(2024, 5, 14, 10, 0, 0, 0, time.UTC)
	receivedAt := time.Date(2024, 5, 15, 8, 30, 0, 0, time.UTC)
	dispatchDate := time.Date(2024, 5, 13, 0, 0, 0, 0, time.UTC)
	return model.StockRequest{
		ID:                  uuid.MustParse("6f1b0a3e-98f5-4cb9-9c41-2f1f5d3f6a10"),
		RequestID:           "REQ-20240514093000-DN15 Meter",
		Origin:              model.OriginContractorRequest,
		Status:              model.StatusReceived,
		Version:             3,
		ItemType:            model.ItemTypeMeter,
		ContractorName:      "Deezlo",
		InstallerName:       "Bob",
		RequestedQuantity:   10,
		ContractorNotes:     "notes with, comma and \"quotes\"",
		ManufacturerName:    "Manufacturer1",
		BatchNumber:         "B100",
		DispatchQuantity:    50,
		DispatchDate:        &dispatchDate,
		ApprovedQuantity:    &approvedQty,
		ReviewerNotes:       "partial issue",
		DeclineReason:       "",
		ProofPhotoRef:       "photos/REQ-1.jpg",
		DispatchDocumentRef: "docs/B100.pdf",
		ApprovedAt:          &approvedAt,
		ReceivedAt:          &receivedAt,
		CreatedAt:           time.Date(2024, 5, 14, 9, 30, 0, 123456789, time.UTC),
		UpdatedAt:           time.Date(2024, 5, 15, 8, 30, 0, 0, time.UTC),
	}
}

func minimalRecord() model.StockRequest {
	return model.StockRequest{
		ID:                uuid.MustParse("0d5a2c41-7a2b-4f6a-8d9e-1b2c3d4e5f60"),
		RequestID:         "MANU-20240514093000",
		Origin:            model.OriginManufacturerDispatch,
		Status:            model.StatusPendingCityApproval,
		Version:           1,
		ItemType:          model.ItemTypeKeypad,
		BatchNumber:       "B200",
		DispatchQuantity:  25,
		RequestedQuantity: 0,
		CreatedAt:         time.Date(2024, 5, 14, 9, 31, 0, 0, time.UTC),
		UpdatedAt:         time.Date(2024, 5, 14, 9, 31, 0, 0, time.UTC),
	}
}

// Exports must round-trip every persisted field losslessly; that is the
// archiver's whole contract with the record model.
func TestCSVRoundTrip(t *testing.T) {
	in := []model.StockRequest{fullRecord(), minimalRecord()}

	data, err := MarshalCSV(in)
	require.NoError(t, err)

	out, err := UnmarshalCSV(data)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, in, out)
}

func TestCSVRoundTripEmptyStore(t *testing.T) {
	data, err := MarshalCSV(nil)
	require.NoError(t, err)

	out, err := UnmarshalCSV(data)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestUnmarshalCSVRejectsGarbage(t *testing.T) {
	_, err := UnmarshalCSV([]byte(""))
	assert.Error(t, err)

	_, err = UnmarshalCSV([]byte("just,three,columns\na,b,c\n"))
	assert.Error(t, err)
}

func TestMarshalXLSXProducesWorkbook(t *testing.T) {
	data, err := MarshalXLSX([]model.StockRequest{fullRecord()})
	require.NoError(t, err)
	// XLSX files are zip containers; check the magic bytes.
	require.Greater(t, len(data), 4)
	assert.Equal(t, []byte{'P', 'K'}, data[:2])
}
