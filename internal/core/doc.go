// Package core provides the business logic of the boarding-school app:
// roster and duty-schedule imports, attendance and meal reports, duty
// calendars, permission groups and the audit log.
//
// The package is independent of transport and storage. Handlers in
// internal/web call a [Service]; persistence goes through the [Store]
// interface, implemented over PostgreSQL by internal/database and in
// memory by internal/store/memstore.
//
// # Imports
//
// Both importers parse with internal/importer and then write:
//
//   - Duty schedule: for every month present in the parsed records, all
//     stored entries of that month are deleted and the new set inserted,
//     inside one transaction. A file without records changes nothing.
//   - Roster: accepted rows are appended with a single bulk insert.
//
// Imports run under an [ImportLimiter] so only a few hold a database
// transaction at a time.
//
// # Reports
//
// Reports are created and deleted, never edited. Absent students are
// stored as copies of their roster rows at creation time.
//
// # Caching
//
// List reads are cached per entity. Every write invalidates the cached
// reads of the entity it touched.
package core
