package dto

import (
	"time"

	"github.com/spec-kit/asset-registry/internal/domain"
)

// ItemRequest payload for POST /items and PUT /items/:id. Department and
// type accept either the short code or the display name.
type ItemRequest struct {
	Department string `json:"department" validate:"required,department"`
	Type       string `json:"type" validate:"required,itemtype"`
	SubType    string `json:"subType" validate:"required,notblank,max=64"`
	Serial     string `json:"serial" validate:"required,notblank,max=128"`
	Model      string `json:"model" validate:"required,notblank,max=128"`
	Status     string `json:"status" validate:"required,notblank,max=64"`
	Location   string `json:"location" validate:"required,notblank,max=128"`
}

// ItemResponse renders an asset. Department and Type marshal to their
// display names; QRCode is base64 encoded by encoding/json.
type ItemResponse struct {
	ID             int64             `json:"id"`
	Department     domain.Department `json:"department"`
	DepartmentCode string            `json:"departmentCode"`
	Type           domain.ItemType   `json:"type"`
	TypeCode       string            `json:"typeCode"`
	SubType        string            `json:"subType"`
	Serial         string            `json:"serial"`
	Model          string            `json:"model"`
	Status         string            `json:"status"`
	Location       string            `json:"location"`
	AssetTag       string            `json:"assetTag"`
	QRCode         []byte            `json:"qrCode"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

// NewItemResponse maps a domain item.
func NewItemResponse(i *domain.Item) ItemResponse {
	return ItemResponse{
		ID:             i.ID,
		Department:     i.Department,
		DepartmentCode: i.Department.Code(),
		Type:           i.Type,
		TypeCode:       i.Type.Code(),
		SubType:        i.SubType,
		Serial:         i.Serial,
		Model:          i.Model,
		Status:         i.Status,
		Location:       i.Location,
		AssetTag:       i.AssetTag,
		QRCode:         i.QRCode,
		CreatedAt:      i.CreatedAt,
		UpdatedAt:      i.UpdatedAt,
	}
}

// NewItemResponses maps a list of items.
func NewItemResponses(items []domain.Item) []ItemResponse {
	out := make([]ItemResponse, 0, len(items))
	for i := range items {
		out = append(out, NewItemResponse(&items[i]))
	}
	return out
}

// ListQuery holds pagination parameters.
type ListQuery struct {
	Limit  int `query:"limit" validate:"gte=0,lte=500"`
	Offset int `query:"offset" validate:"gte=0"`
}
