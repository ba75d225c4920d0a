package handlers

import (
	"github.com/bluffpark/holidaylights/internal/models"
	"github.com/bluffpark/holidaylights/internal/services"
	"github.com/bluffpark/holidaylights/internal/types"
	"github.com/bluffpark/holidaylights/internal/utils"
	"github.com/gofiber/fiber/v2"
)

// SubmissionHandler handles submission registry routes
type SubmissionHandler struct {
	Submissions *services.SubmissionService
}

// SubmissionBody is the create/update payload. Absent fields are left unchanged on update.
type SubmissionBody struct {
	FirstName   *string                       `json:"firstName"`
	LastName    *string                       `json:"lastName"`
	Address     *string                       `json:"address"`
	Lat         *float64                      `json:"lat"`
	Lng         *float64                      `json:"lng"`
	Description *string                       `json:"description"`
	Photos      *types.FlexList[models.Photo] `json:"photos"`
}

func (b SubmissionBody) input() services.SubmissionInput {
	var in services.SubmissionInput
	if b.FirstName != nil {
		in.FirstName = *b.FirstName
	}
	if b.LastName != nil {
		in.LastName = *b.LastName
	}
	if b.Address != nil {
		in.Address = *b.Address
	}
	if b.Lat != nil {
		in.Lat = *b.Lat
	}
	if b.Lng != nil {
		in.Lng = *b.Lng
	}
	if b.Description != nil {
		in.Description = *b.Description
	}
	if b.Photos != nil {
		in.Photos = b.Photos.Slice()
	}
	return in
}

func (b SubmissionBody) patch() services.SubmissionPatch {
	p := services.SubmissionPatch{
		FirstName:   b.FirstName,
		LastName:    b.LastName,
		Address:     b.Address,
		Lat:         b.Lat,
		Lng:         b.Lng,
		Description: b.Description,
	}
	if b.Photos != nil {
		photos := b.Photos.Slice()
		if photos == nil {
			photos = []models.Photo{}
		}
		p.Photos = &photos
	}
	return p
}

// ListSubmissions handles GET /api/submissions
// @Summary List submissions
// @Description All registered displays in submission order
// @Tags Submissions
// @Produce json
// @Success 200 {array} models.Submission
// @Failure 503 {object} utils.ErrorResponseStruct
// @Router /submissions [get]
func (h *SubmissionHandler) ListSubmissions(c *fiber.Ctx) error {
	subs, err := h.Submissions.ListSubmissions(c.UserContext())
	if err != nil {
		return writeError(c, err, "submissions.list")
	}
	return utils.SuccessResponse(c, subs, fiber.StatusOK)
}

// GetSubmission handles GET /api/submissions/:id
// @Summary Get a submission
// @Tags Submissions
// @Produce json
// @Param id path string true "Submission ID"
// @Success 200 {object} models.Submission
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /submissions/{id} [get]
func (h *SubmissionHandler) GetSubmission(c *fiber.Ctx) error {
	sub, err := h.Submissions.GetSubmission(c.UserContext(), pathID(c, "id"))
	if err != nil {
		return writeError(c, err, "submissions.get")
	}
	return utils.SuccessResponse(c, sub, fiber.StatusOK)
}

// CreateSubmission handles POST /api/submissions
// @Summary Register a display
// @Description Creates a submission owned by the caller with every category at zero votes
// @Tags Submissions
// @Accept json
// @Produce json
// @Param body body SubmissionBody true "Display details"
// @Success 201 {object} models.Submission
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /submissions [post]
func (h *SubmissionHandler) CreateSubmission(c *fiber.Ctx) error {
	identity, err := getIdentity(c)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusForbidden, "authorization.user")
	}

	var body SubmissionBody
	if err := c.BodyParser(&body); err != nil {
		return badInput(c, "submissions.validation.input")
	}

	sub, err := h.Submissions.CreateSubmission(c.UserContext(), identity.ID, body.input())
	if err != nil {
		return writeError(c, err, "submissions.create")
	}
	return utils.SuccessResponse(c, sub, fiber.StatusCreated)
}

// UpdateSubmission handles PATCH /api/submissions/:id
// @Summary Edit a display
// @Description Owner only. Changes descriptive fields; vote tallies are never touched.
// @Tags Submissions
// @Accept json
// @Produce json
// @Param id path string true "Submission ID"
// @Param body body SubmissionBody true "Fields to change"
// @Success 200 {object} models.Submission
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /submissions/{id} [patch]
func (h *SubmissionHandler) UpdateSubmission(c *fiber.Ctx) error {
	identity, err := getIdentity(c)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusForbidden, "authorization.user")
	}

	var body SubmissionBody
	if err := c.BodyParser(&body); err != nil {
		return badInput(c, "submissions.validation.input")
	}

	sub, err := h.Submissions.UpdateSubmission(c.UserContext(), identity.ID, pathID(c, "id"), body.patch())
	if err != nil {
		return writeError(c, err, "submissions.update")
	}
	return utils.SuccessResponse(c, sub, fiber.StatusOK)
}

// DeleteSubmission handles DELETE /api/submissions/:id
// @Summary Delete a display
// @Description Owner only
// @Tags Submissions
// @Param id path string true "Submission ID"
// @Success 204
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /submissions/{id} [delete]
func (h *SubmissionHandler) DeleteSubmission(c *fiber.Ctx) error {
	identity, err := getIdentity(c)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusForbidden, "authorization.user")
	}

	if err := h.Submissions.DeleteSubmission(c.UserContext(), identity.ID, pathID(c, "id")); err != nil {
		return writeError(c, err, "submissions.delete")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
