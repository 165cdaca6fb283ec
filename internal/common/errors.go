// Package common defines shared constants and sentinel errors used across
// the GophLoyalty client layers. Callers should use errors.Is to match these
// values; wrapped errors carry the underlying cause after the sentinel text.
package common

import "errors"

var (
	// Authentication and identity (sign-in, sign-up, OTP, sign-out).
	ErrAuth             = errors.New("authentication failed")
	ErrNotAuthenticated = errors.New("not authenticated")

	// Read-side failures. Recovered silently by the resolver and services.
	ErrFetch = errors.New("fetch failed")

	// Geolocation.
	ErrPermissionDenied = errors.New("location permission denied")
	ErrUnavailable      = errors.New("location unavailable")

	// Redemption preconditions.
	ErrInsufficientPoints = errors.New("insufficient points")
	ErrTierRequired       = errors.New("tier requirement not met")
	ErrRewardInactive     = errors.New("reward is not active")
	ErrRewardNotFound     = errors.New("reward not found")

	// Mutations surfaced to the member.
	ErrUpload   = errors.New("profile picture upload failed")
	ErrDeletion = errors.New("account deletion failed")
	ErrUpdate   = errors.New("update failed")

	// Input validation.
	ErrValidation = errors.New("validation error")
)
