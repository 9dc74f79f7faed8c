package domain

import (
	"bytes"
	"encoding/json"
)

// ProductList decodes a product collection sent either as a bare array
// or wrapped as {"products": [...]} or {"data": [...]}.
type ProductList []Product

func (l *ProductList) UnmarshalJSON(data []byte) error {
	var items []Product
	if err := decodeList(data, &items, "products"); err != nil {
		return err
	}
	*l = items
	return nil
}

// CategoryList decodes a category collection sent either as a bare array
// or wrapped as {"data": [...]} or {"categories": [...]}.
type CategoryList []Category

func (l *CategoryList) UnmarshalJSON(data []byte) error {
	var items []Category
	if err := decodeList(data, &items, "categories"); err != nil {
		return err
	}
	*l = items
	return nil
}

func decodeList[T any](data []byte, out *[]T, key string) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if trimmed[0] == '[' {
		return json.Unmarshal(trimmed, out)
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return err
	}
	for _, k := range []string{key, "data"} {
		if raw, ok := envelope[k]; ok && !bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return json.Unmarshal(raw, out)
		}
	}
	return nil
}
