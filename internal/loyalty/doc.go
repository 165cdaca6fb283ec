// Package loyalty derives display and eligibility facts from a member's
// profile, tier and the tier table.
//
// All functions are pure and safe to call on every render. Nothing here
// mutates points: redemption is validated locally and performed by the
// backend.
package loyalty
