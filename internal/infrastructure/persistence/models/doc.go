// Package models contains GORM persistence models that map to database tables.
// They are kept apart from domain entities so the domain layer stays free of
// ORM tags; repositories convert with the ToDomain / FromDomain mappers.
//
//   - base.go: BaseModel and AggregateModel
//   - payout.go: agreements, receipts, payout instructions and audit events
package models
