// Package fieldbook is a survey-submission service: schemaless records
// partitioned by source, filterable and reducible queries, composed
// multi-source views with per-row overrides, and an audit ledger whose
// bulk operations can be undone.
//
// Provide the account bearer token as `Bearer <token>`.
package fieldbook
