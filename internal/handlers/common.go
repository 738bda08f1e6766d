// common.go
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
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/recalldb/internal/types"
	"github.com/localnerve/recalldb/internal/utils"
)

// parseIDs extracts ids from query parameters,
// supporting both multiple 'ids' keys and comma-separated values.
func parseIDs(c *fiber.Ctx) []string {
	seen := make(map[string]struct{})
	var ids []string

	args := c.Context().QueryArgs()
	for key, value := range args.All() {
		if string(key) != "ids" {
			continue
		}
		for _, v := range strings.Split(string(value), ",") {
			v = strings.TrimSpace(v)
			if v == "" {
				continue
			}
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			ids = append(ids, v)
		}
	}

	return ids
}

// storeError maps a store error onto its HTTP response
func storeError(c *fiber.Ctx, op string, err error) error {
	var ve *types.ValidationError
	var se *types.StoreError

	switch {
	case errors.As(err, &ve):
		return utils.ValidationErrorResponse(c, ve.Problems)
	case errors.Is(err, types.ErrNotFound):
		return utils.NotFoundResponse(c, err.Error())
	case errors.As(err, &se):
		slog.Error("store unavailable", "op", op, "error", err)
		return utils.ErrorResponse(c, err.Error(), fiber.StatusServiceUnavailable, op)
	}
	return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, op)
}

// ErrorHandler handles errors that escape the route handlers
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := err.Error()
	errorType := "unknown"

	var ce *types.CustomError
	var fe *fiber.Error
	switch {
	case errors.As(err, &ce):
		code, message, errorType = ce.Code, ce.Message, ce.Type
	case errors.As(err, &fe):
		code, message = fe.Code, fe.Message
	}

	return utils.ErrorResponse(c, message, code, errorType)
}
