// votes.go
//
// Community holiday-lights showcase and vote ledger service
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of holidaylights.
// holidaylights is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// holidaylights is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with holidaylights.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package handlers

import (
	"github.com/bluffpark/holidaylights/internal/models"
	"github.com/bluffpark/holidaylights/internal/services"
	"github.com/bluffpark/holidaylights/internal/types"
	"github.com/bluffpark/holidaylights/internal/utils"
	"github.com/gofiber/fiber/v2"
)

// VoteHandler handles vote routes
type VoteHandler struct {
	Votes *services.VoteService
}

// VoteBody is the vote request payload
type VoteBody struct {
	Category string        `json:"category"`
	Delta    types.FlexInt `json:"delta"`
}

// ApplyVote handles POST /api/submissions/:id/votes
// @Summary Cast or retract a vote
// @Description Cast (+1) or retract (-1) one of the caller's votes for a submission in a category.
// @Description A rejected vote is a 200 with applied=false and a reason.
// @Tags Votes
// @Accept json
// @Produce json
// @Param id path string true "Submission ID"
// @Param body body VoteBody true "Category and delta"
// @Success 200 {object} utils.VoteResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Failure 503 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /submissions/{id}/votes [post]
func (h *VoteHandler) ApplyVote(c *fiber.Ctx) error {
	identity, err := getIdentity(c)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusForbidden, "authorization.user")
	}

	var body VoteBody
	if err := c.BodyParser(&body); err != nil {
		return badInput(c, "vote.validation.input")
	}

	category, err := models.ParseCategory(body.Category)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, "vote.validation.category")
	}

	result, err := h.Votes.ApplyVote(c.UserContext(), services.VoteRequest{
		UserID:       identity.ID,
		SubmissionID: pathID(c, "id"),
		Category:     category,
		Delta:        body.Delta.Int(),
	})
	if err != nil {
		return writeError(c, err, "vote")
	}

	if !result.Applied() {
		return utils.VoteRejectedResponse(c, result.Reason, result.User, result.Submission)
	}
	return utils.VoteAppliedResponse(c, result.User, result.Submission)
}
