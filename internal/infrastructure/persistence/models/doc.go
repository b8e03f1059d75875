// Package models holds the GORM persistence models for the ledger tables.
//
// Domain types in internal/domain carry no storage tags; every model here
// provides ToDomain and FromDomain mappers. The SQL migrations under
// migrations/ own the production schema. AutoMigrate is only used against
// SQLite in tests.
package models
