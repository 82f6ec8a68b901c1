package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/tygron-connector/internal/domain/activity"
	"github.com/rpggio/tygron-connector/internal/domain/project"
	"github.com/rpggio/tygron-connector/internal/domain/session"
	"github.com/rpggio/tygron-connector/internal/remote"
)

// errInvalidParams indicates tool arguments that could not be decoded.
var errInvalidParams = errors.New("invalid tool arguments")

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MapError maps domain errors to MCP error codes.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var statusErr *remote.StatusError
	switch {
	case errors.Is(err, errInvalidParams),
		errors.Is(err, project.ErrInvalidInput),
		errors.Is(err, session.ErrInvalidInput),
		errors.Is(err, activity.ErrInvalidInput):
		return &APIError{Code: "INVALID_INPUT", Message: "invalid input", Details: err.Error(), RecoveryHint: "Check required arguments"}
	case errors.Is(err, project.ErrNotFound):
		return &APIError{Code: "PROJECT_NOT_FOUND", Message: "project not found", Details: err.Error(), RecoveryHint: "Check the file name; names are case-sensitive"}
	case errors.Is(err, project.ErrTimeout):
		return &APIError{Code: "INIT_TIMEOUT", Message: "project initialization not confirmed", Details: err.Error(), RecoveryHint: "The project may exist unsaved; retry get_project"}
	case errors.Is(err, project.ErrInitialization):
		return &APIError{Code: "INIT_FAILED", Message: "project initialization failed", Details: err.Error()}
	case errors.Is(err, project.ErrJoin), errors.Is(err, project.ErrConnect):
		return &APIError{Code: "EDIT_SESSION_FAILED", Message: "could not open editor slot", Details: err.Error(), RecoveryHint: "Check that the slot is running"}
	case errors.Is(err, project.ErrSave):
		return &APIError{Code: "SAVE_FAILED", Message: "saving project failed", Details: err.Error()}
	case errors.Is(err, project.ErrDeletion):
		return &APIError{Code: "DELETE_FAILED", Message: "platform refused to delete project", Details: err.Error()}
	case errors.Is(err, session.ErrNoReply):
		return &APIError{Code: "NO_REPLY", Message: "platform returned no usable reply", Details: err.Error(), RecoveryHint: "Check the slot id with list_sessions"}
	case errors.Is(err, session.ErrRejected):
		return &APIError{Code: "REJECTED", Message: "platform rejected the request", Details: err.Error()}
	case errors.As(err, &statusErr):
		return &APIError{Code: "PLATFORM_ERROR", Message: fmt.Sprintf("platform answered %d", statusErr.Code), Details: err.Error(), RecoveryHint: "Check credentials and platform address"}
	default:
		return nil
	}
}
