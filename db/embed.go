// Package db embeds the schema applied at startup.
package db

import _ "embed"

// Schema holds the DDL for the full storefront schema. Every statement is
// idempotent, so re-applying on boot is safe.
//
//go:embed migrations/001_schema.sql
var Schema string
