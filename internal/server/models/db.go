// Package models defines server-side data models persisted in the database.
// Relationships are expressed as ids; repositories resolve them with
// explicit queries.
package models
