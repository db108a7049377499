// Package api exposes the governance entities and the audit trail over
// REST.
//
// Mutating requests identify the acting user through the X-Acting-User
// header, which carries the numeric user id recorded in the audit trail.
// Mutations without it are rejected with 401. Soft-deleted records are
// invisible on every route except the explicit /all listings and restore
// endpoints.
package api
