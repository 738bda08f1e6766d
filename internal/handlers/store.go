// store.go
//
// A local, file-backed content store for spaced-repetition flashcards
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of recalldb.
// recalldb is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// recalldb is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with recalldb.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package handlers

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/recalldb/internal/config"
	"github.com/localnerve/recalldb/internal/document"
	"github.com/localnerve/recalldb/internal/models"
	"github.com/localnerve/recalldb/internal/services"
	"github.com/localnerve/recalldb/internal/utils"
)

// StoreHandler handles the store routes
type StoreHandler struct {
	Store  *services.Store
	Config *config.Config
}

// Load handles POST /api/load
// @Summary Load a document
// @Description Reconcile a bulk-load document into the store. The body is YAML, or JSON with comments when the content type is JSON.
// @Tags Store
// @Accept json
// @Accept x-yaml
// @Produce json
// @Param document body object true "Bulk-load document with model, template, note and card arrays"
// @Param compile query bool false "Compile cards for the templates the document touches"
// @Success 200 {object} services.LoadResult
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 503 {object} utils.ErrorResponseStruct
// @Router /load [post]
func (h *StoreHandler) Load(c *fiber.Ctx) error {
	isJSON := strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON)

	doc, err := document.Decode(c.Body(), isJSON)
	if err != nil {
		return storeError(c, "load", err)
	}

	var opts []services.LoadOption
	if c.QueryBool("compile") {
		opts = append(opts, services.CompileCards())
	}

	result, err := h.Store.Load(c.UserContext(), doc, opts...)
	if err != nil {
		return storeError(c, "load", err)
	}

	return utils.SuccessResponse(c, result, fiber.StatusOK)
}

// Tidy handles POST /api/tidy
// @Summary Sweep the store
// @Description Mark integrity violations deleted and purge tombstones left by earlier sweeps
// @Tags Store
// @Produce json
// @Success 200 {object} services.TidyReport
// @Failure 503 {object} utils.ErrorResponseStruct
// @Router /tidy [post]
func (h *StoreHandler) Tidy(c *fiber.Ctx) error {
	report, err := h.Store.Tidy(c.UserContext())
	if err != nil {
		return storeError(c, "tidy", err)
	}
	return utils.SuccessResponse(c, report, fiber.StatusOK)
}

// GetCards handles GET /api/cards?q=...&ids=...
// @Summary Query cards
// @Description List live cards matching a search filter, with resolved faces and note data
// @Tags Query
// @Produce json
// @Param q query string false "Search filter"
// @Param ids query string false "Comma-separated card, note, template or model ids"
// @Param limit query int false "Maximum number of cards"
// @Param offset query int false "Number of cards to skip"
// @Success 200 {array} services.CardView
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 503 {object} utils.ErrorResponseStruct
// @Router /cards [get]
func (h *StoreHandler) GetCards(c *fiber.Ctx) error {
	views, err := h.Store.QueryCards(c.UserContext(), services.CardQuery{
		Filter: c.Query("q"),
		IDs:    parseIDs(c),
		Limit:  c.QueryInt("limit"),
		Offset: c.QueryInt("offset"),
	})
	if err != nil {
		return storeError(c, "queryCards", err)
	}
	return utils.SuccessResponse(c, views, fiber.StatusOK)
}

// GetCardHistory handles GET /api/cards/:id/history
// @Summary Card history
// @Description List the retired generations of a card, newest first
// @Tags Query
// @Produce json
// @Param id path string true "Card ID"
// @Success 200 {array} models.Card
// @Failure 503 {object} utils.ErrorResponseStruct
// @Router /cards/{id}/history [get]
func (h *StoreHandler) GetCardHistory(c *fiber.Ctx) error {
	history, err := h.Store.CardHistory(c.UserContext(), c.Params("id"))
	if err != nil {
		return storeError(c, "cardHistory", err)
	}
	return utils.SuccessResponse(c, history, fiber.StatusOK)
}

// PutSchedule handles PUT /api/cards/:id/schedule
// @Summary Save a card schedule
// @Description Store review state computed by the caller on a live card
// @Tags Store
// @Accept json
// @Produce json
// @Param id path string true "Card ID"
// @Param schedule body models.Schedule true "Review state"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /cards/{id}/schedule [put]
func (h *StoreHandler) PutSchedule(c *fiber.Ctx) error {
	var sched models.Schedule
	if err := c.BodyParser(&sched); err != nil {
		return utils.ValidationErrorResponse(c, []string{fmt.Sprintf("invalid schedule: %v", err)})
	}

	if err := h.Store.SaveSchedule(c.UserContext(), c.Params("id"), sched); err != nil {
		return storeError(c, "saveSchedule", err)
	}
	return utils.MutationSuccessResponse(c, 1)
}

// GetMnemonic handles GET /api/cards/:id/mnemonic
// @Summary Read a card mnemonic
// @Tags Store
// @Produce plain
// @Param id path string true "Card ID"
// @Success 200 {string} string
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /cards/{id}/mnemonic [get]
func (h *StoreHandler) GetMnemonic(c *fiber.Ctx) error {
	mnemonic, err := h.Store.Mnemonic(c.UserContext(), c.Params("id"))
	if err != nil {
		return storeError(c, "mnemonic", err)
	}
	return c.Status(fiber.StatusOK).SendString(mnemonic)
}

// PutMnemonic handles PUT /api/cards/:id/mnemonic
// @Summary Replace a card mnemonic
// @Description The raw request body becomes the mnemonic text. An empty body clears it.
// @Tags Store
// @Accept plain
// @Produce json
// @Param id path string true "Card ID"
// @Param mnemonic body string true "Mnemonic text"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /cards/{id}/mnemonic [put]
func (h *StoreHandler) PutMnemonic(c *fiber.Ctx) error {
	if err := h.Store.SetMnemonic(c.UserContext(), c.Params("id"), string(c.Body())); err != nil {
		return storeError(c, "setMnemonic", err)
	}
	return utils.MutationSuccessResponse(c, 1)
}

// TagState reports whether a card carries a tag
type TagState struct {
	ID      string `json:"id"`
	Tag     string `json:"tag"`
	Present bool   `json:"present"`
}

// PatchTag handles PATCH /api/cards/:id/tags/:tag
// @Summary Toggle a card tag
// @Description Add the tag to the card, or remove it when present. Use "marked" to flag a card.
// @Tags Store
// @Produce json
// @Param id path string true "Card ID"
// @Param tag path string true "Tag"
// @Success 200 {object} handlers.TagState
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /cards/{id}/tags/{tag} [patch]
func (h *StoreHandler) PatchTag(c *fiber.Ctx) error {
	id, tag := c.Params("id"), c.Params("tag")
	present, err := h.Store.ToggleTag(c.UserContext(), id, tag)
	if err != nil {
		return storeError(c, "toggleTag", err)
	}
	return utils.SuccessResponse(c, TagState{ID: id, Tag: tag, Present: present}, fiber.StatusOK)
}

// GetNotes handles GET /api/notes?q=...&ids=...
// @Summary Query notes
// @Description List live notes matching a search filter
// @Tags Query
// @Produce json
// @Param q query string false "Search filter"
// @Param ids query string false "Comma-separated note or model ids"
// @Param limit query int false "Maximum number of notes"
// @Param offset query int false "Number of notes to skip"
// @Success 200 {array} services.NoteView
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 503 {object} utils.ErrorResponseStruct
// @Router /notes [get]
func (h *StoreHandler) GetNotes(c *fiber.Ctx) error {
	views, err := h.Store.QueryNotes(c.UserContext(), services.NoteQuery{
		Filter: c.Query("q"),
		IDs:    parseIDs(c),
		Limit:  c.QueryInt("limit"),
		Offset: c.QueryInt("offset"),
	})
	if err != nil {
		return storeError(c, "queryNotes", err)
	}
	return utils.SuccessResponse(c, views, fiber.StatusOK)
}

// DeleteModel handles DELETE /api/models/:id
// @Summary Delete a model
// @Description Tombstone a model and its templates
// @Tags Store
// @Produce json
// @Param id path string true "Model ID"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 503 {object} utils.ErrorResponseStruct
// @Router /models/{id} [delete]
func (h *StoreHandler) DeleteModel(c *fiber.Ctx) error {
	if err := h.Store.DeleteModel(c.UserContext(), c.Params("id")); err != nil {
		return storeError(c, "deleteModel", err)
	}
	return utils.MutationSuccessResponse(c, 1)
}

// Export handles GET /api/export
// @Summary Export the store
// @Description Render the live store back into a YAML bulk-load document
// @Tags Store
// @Produce x-yaml
// @Success 200 {string} string
// @Failure 503 {object} utils.ErrorResponseStruct
// @Router /export [get]
func (h *StoreHandler) Export(c *fiber.Ctx) error {
	doc, err := h.Store.Export(c.UserContext())
	if err != nil {
		return storeError(c, "export", err)
	}

	var buf bytes.Buffer
	if err := document.Encode(&buf, doc); err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "application/x-yaml")
	return c.Status(fiber.StatusOK).Send(buf.Bytes())
}

// Health handles GET /api/health
// @Summary Health check
// @Description Ping the store and check its schema
// @Tags Health
// @Produce json
// @Success 200 {object} services.HealthCheckResult
// @Failure 503 {object} services.HealthCheckResult
// @Router /health [get]
func (h *StoreHandler) Health(c *fiber.Ctx) error {
	result := services.HealthCheck(c.UserContext(), h.Config, h.Store.DB)
	status := fiber.StatusOK
	if result.Status != "healthy" {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(result)
}

// Register mounts the store routes on router
func (h *StoreHandler) Register(router fiber.Router) {
	router.Post("/load", h.Load)
	router.Post("/tidy", h.Tidy)
	router.Get("/cards", h.GetCards)
	router.Get("/cards/:id/history", h.GetCardHistory)
	router.Put("/cards/:id/schedule", h.PutSchedule)
	router.Get("/cards/:id/mnemonic", h.GetMnemonic)
	router.Put("/cards/:id/mnemonic", h.PutMnemonic)
	router.Patch("/cards/:id/tags/:tag", h.PatchTag)
	router.Get("/notes", h.GetNotes)
	router.Delete("/models/:id", h.DeleteModel)
	router.Get("/export", h.Export)
	router.Get("/health", h.Health)
}
