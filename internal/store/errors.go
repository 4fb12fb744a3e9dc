package store

import "errors"

var (
	// ErrProjectNotFound is returned when the referenced project is not registered.
	ErrProjectNotFound = errors.New("project not found")

	// ErrItemNotFound is returned when the project holds no item with the given id.
	ErrItemNotFound = errors.New("item not found")

	// ErrDuplicateItem is returned by AddItem when the id is already taken in the project.
	ErrDuplicateItem = errors.New("duplicate item id")

	// ErrInvalidItem wraps validation failures for items entering the store.
	ErrInvalidItem = errors.New("invalid item")

	// ErrMalformedPayload is returned by imports whose payload cannot be decoded.
	ErrMalformedPayload = errors.New("malformed payload")
)
