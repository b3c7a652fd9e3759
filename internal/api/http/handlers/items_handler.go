package handlers

import (
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/asset-registry/internal/api/dto"
	"github.com/spec-kit/asset-registry/internal/auth"
	"github.com/spec-kit/asset-registry/internal/domain"
	"github.com/spec-kit/asset-registry/internal/service"
)

// ItemsHandler exposes asset endpoints.
type ItemsHandler struct {
	items *service.ItemService
}

// NewItemsHandler constructs handler.
func NewItemsHandler(itemService *service.ItemService) *ItemsHandler {
	return &ItemsHandler{items: itemService}
}

// List handles GET /items.
func (h *ItemsHandler) List(c *fiber.Ctx) error {
	opts, err := listOptions(c)
	if err != nil {
		return err
	}
	items, err := h.items.List(c.UserContext(), opts)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewItemResponses(items))
}

// Get handles GET /items/:id.
func (h *ItemsHandler) Get(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	item, err := h.items.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewItemResponse(item))
}

// QRCode handles GET /items/:id/qr and streams the stored PNG.
func (h *ItemsHandler) QRCode(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	png, tag, err := h.items.QRCode(c.UserContext(), id)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "image/png")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("inline; filename=%q", tag+".png"))
	return c.Send(png)
}

// Create handles POST /items.
func (h *ItemsHandler) Create(c *fiber.Ctx) error {
	input, err := itemInput(c)
	if err != nil {
		return err
	}
	actor, _ := auth.IdentityFromContext(c)

	item, err := h.items.Create(c.UserContext(), actor, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.NewItemResponse(item))
}

// Update handles PUT /items/:id.
func (h *ItemsHandler) Update(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	input, err := itemInput(c)
	if err != nil {
		return err
	}
	actor, _ := auth.IdentityFromContext(c)

	item, err := h.items.Update(c.UserContext(), actor, id, input)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewItemResponse(item))
}

// Delete handles DELETE /items/:id.
func (h *ItemsHandler) Delete(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	actor, _ := auth.IdentityFromContext(c)
	if err := h.items.Delete(c.UserContext(), actor, id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func itemInput(c *fiber.Ctx) (service.ItemInput, error) {
	var req dto.ItemRequest
	if err := bindJSON(c, &req); err != nil {
		return service.ItemInput{}, err
	}
	// Both values passed validation, so parsing cannot fail here.
	dept, _ := domain.ParseDepartment(req.Department)
	itemType, _ := domain.ParseItemType(req.Type)
	return service.ItemInput{
		Department: dept,
		Type:       itemType,
		SubType:    req.SubType,
		Serial:     req.Serial,
		Model:      req.Model,
		Status:     req.Status,
		Location:   req.Location,
	}, nil
}
