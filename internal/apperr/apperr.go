// Package apperr declares the domain errors surfaced to clients.
package apperr

import "github.com/tuanvumaihuynh/product-catalog/pkg/zerror"

const (
	ValidationErrorCode     = "VALIDATION_FAILED"
	ProductNotFoundCode     = "PRODUCT_NOT_FOUND"
	ProductsNotFoundCode    = "PRODUCTS_NOT_FOUND"
	SupplierNotFoundCode    = "SUPPLIER_NOT_FOUND"
	SuppliersNotFoundCode   = "SUPPLIERS_NOT_FOUND"
	InvalidCreditRatingCode = "INVALID_CREDIT_RATING"
	InvalidDateRangeCode    = "INVALID_DATE_RANGE"
	InvalidBatchPolicyCode  = "INVALID_BATCH_POLICY"
	UnauthorizedCode        = "UNAUTHORIZED"
	ForbiddenCode           = "FORBIDDEN"
)

var (
	ValidationErr = zerror.NewValidationFailed(ValidationErrorCode, "validation error")

	ProductNotFoundErr   = zerror.NewNotFound(ProductNotFoundCode, "product not found")
	ProductsNotFoundErr  = zerror.NewNotFound(ProductsNotFoundCode, "products not found")
	SupplierNotFoundErr  = zerror.NewNotFound(SupplierNotFoundCode, "supplier not found")
	SuppliersNotFoundErr = zerror.NewNotFound(SuppliersNotFoundCode, "suppliers not found")

	InvalidCreditRatingErr = zerror.NewValidationFailed(InvalidCreditRatingCode, "credit rating must be between 0 and 5")
	InvalidDateRangeErr    = zerror.NewBadRequest(InvalidDateRangeCode, "start_date must not be after end_date")
	InvalidBatchPolicyErr  = zerror.NewBadRequest(InvalidBatchPolicyCode, "policy must be one of [strict lenient]")

	UnauthorizedErr = zerror.NewUnauthorized(UnauthorizedCode, "could not validate credentials")
	ForbiddenErr    = zerror.NewForbidden(ForbiddenCode, "not enough permissions")
)
