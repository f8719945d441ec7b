// Package service contains the business logic layer: validation, the
// reservation and contribution rules, and the choice of privacy projection
// per caller class. Handlers parse HTTP and call in here; repositories do
// the SQL. A service method never sees a request and never writes a query.
package service

import (
	"errors"
	"log/slog"

	"github.com/sakif/gift-registry/internal/apperror"
	"github.com/sakif/gift-registry/internal/auth"
)

// requireAdmin is the operation-level authorization check. The HTTP
// middleware already gates the admin routes, but privileged operations
// verify their caller again so the rule can't be bypassed by new callers
// (CLI tools, seeds, tests) that skip the router.
func requireAdmin(admin *auth.AdminSession) error {
	if admin == nil {
		return apperror.Unauthorized("admin authentication required")
	}
	if admin.Role != auth.RoleAdmin {
		return apperror.Forbidden("admin access required")
	}
	return nil
}

// mapRepoErr keeps the error taxonomy intact at the aggregate boundary.
// Typed domain errors (NotFound, Conflict, ...) pass through untouched;
// anything else is an unexpected storage failure — logged here with its
// operation context, then re-signalled as a generic Storage error so raw
// driver detail never reaches a caller.
func mapRepoErr(logger *slog.Logger, operation string, err error) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	logger.Error("storage failure",
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
	return apperror.Storage(operation, err)
}
