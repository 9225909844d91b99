package repository

import (
	"github.com/tuanvumaihuynh/product-catalog/internal/apperr"
	"github.com/tuanvumaihuynh/product-catalog/internal/model"
	"github.com/tuanvumaihuynh/product-catalog/pkg/optional"
	"github.com/tuanvumaihuynh/product-catalog/pkg/ptr"
)

func ProductRecord(p model.NewProduct) Record {
	return Record{
		"name":           p.Name,
		"price":          p.Price,
		"description":    p.Description,
		"stock_quantity": p.StockQuantity,
		"category":       p.Category,
		"discount":       p.Discount,
	}
}

// ProductPatchRecord keeps only the fields present in patch. Null is rejected
// for fields that cannot be empty.
func ProductPatchRecord(patch model.ProductPatch) (Record, error) {
	rec := Record{}
	if err := putRequired(rec, "name", patch.Name); err != nil {
		return nil, err
	}
	if err := putRequired(rec, "price", patch.Price); err != nil {
		return nil, err
	}
	if err := putRequired(rec, "stock_quantity", patch.StockQuantity); err != nil {
		return nil, err
	}
	if err := putRequired(rec, "discount", patch.Discount); err != nil {
		return nil, err
	}
	putNullable(rec, "description", patch.Description)
	putNullable(rec, "category", patch.Category)
	return rec, nil
}

func SupplierRecord(s model.NewSupplier) Record {
	return Record{
		"name":          s.Name,
		"contact_info":  s.ContactInfo,
		"credit_rating": ptr.Deref(s.CreditRating, 0),
	}
}

func SupplierPatchRecord(patch model.SupplierPatch) (Record, error) {
	rec := Record{}
	if err := putRequired(rec, "name", patch.Name); err != nil {
		return nil, err
	}
	if err := putRequired(rec, "contact_info", patch.ContactInfo); err != nil {
		return nil, err
	}
	if err := putRequired(rec, "credit_rating", patch.CreditRating); err != nil {
		return nil, err
	}
	return rec, nil
}

func putRequired[T any](rec Record, field string, v optional.Value[T]) error {
	if !v.IsSet() {
		return nil
	}
	val, ok := v.Get()
	if !ok {
		return apperr.ValidationErr.WithMsgf("%s cannot be null", field)
	}
	rec[field] = val
	return nil
}

func putNullable[T any](rec Record, field string, v optional.Value[T]) {
	if v.IsSet() {
		rec[field] = v.Ptr()
	}
}
