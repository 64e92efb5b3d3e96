// Package printing contains the Printing bounded context.
// This context is responsible for managing print templates and print jobs
// for back-office documents such as payment receipts, tenant statements of
// account, and move-out settlement statements.
package printing
