package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/asset-registry/internal/api/dto"
	"github.com/spec-kit/asset-registry/internal/repository"
	apperrors "github.com/spec-kit/asset-registry/pkg/util/errorutil"
)

// bindJSON decodes the body into req and validates it.
func bindJSON(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return apperrors.NewValidationError([]string{"request body must be valid JSON"})
	}
	return dto.Validate(req)
}

func pathID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError([]string{"id must be a numeric identifier"})
	}
	return id, nil
}

func listOptions(c *fiber.Ctx) (repository.ListOptions, error) {
	var q dto.ListQuery
	if err := c.QueryParser(&q); err != nil {
		return repository.ListOptions{}, apperrors.NewValidationError([]string{"limit and offset must be numbers"})
	}
	if err := dto.Validate(q); err != nil {
		return repository.ListOptions{}, err
	}
	return repository.ListOptions{Limit: q.Limit, Offset: q.Offset}, nil
}
