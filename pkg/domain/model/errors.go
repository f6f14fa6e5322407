package model

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for domain operations. ErrValidation and
// ErrPermissionDenied are surfaced verbatim to the acting user;
// ErrDataIntegrity aborts only the operation that discovered it.
var (
	ErrIncidentNotFound = goerr.New("incident not found")
	ErrPermissionDenied = goerr.New("permission denied")
	ErrValidation       = goerr.New("validation error")
	ErrDataIntegrity    = goerr.New("data integrity violation")
)
