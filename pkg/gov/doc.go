// Package gov defines the governance entities (objectives, key results,
// procurement plan items, committees and their members, personnel) and the
// services that operate on them.
//
// Every entity lives in a table that follows the record-store convention,
// so each service is a thin typed layer over pkg/store: it validates input,
// scopes reads to a directorate where the entity is tenant-owned, and maps
// between typed create payloads and record field maps. Mutation auditing
// happens inside the store; services never write trail entries themselves,
// except that committee minutes updates select the dedicated UPDATE_ATA
// trail action.
package gov
