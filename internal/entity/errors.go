package entity

import "errors"

var (
	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrInvalidTransition is returned when a listing lifecycle edge is not
	// allowed from the listing's current status.
	ErrInvalidTransition = errors.New("invalid lifecycle transition")

	// ErrCycle is returned when a category reparent would make a node its own
	// ancestor.
	ErrCycle = errors.New("category reparent would create a cycle")

	// ErrSelfContact is returned when a buyer tries to open a conversation on
	// their own listing.
	ErrSelfContact = errors.New("cannot contact yourself")

	// ErrNotParticipant is returned when a message sender is neither the buyer
	// nor the seller of the conversation.
	ErrNotParticipant = errors.New("user is not a conversation participant")

	// ErrValidation covers content, length and range violations.
	ErrValidation = errors.New("validation failed")

	// ErrConcurrencyConflict is returned when an optimistic update lost the
	// race after retries were exhausted.
	ErrConcurrencyConflict = errors.New("concurrent update conflict")

	// ErrAlreadyExists is returned on unique constraint violations
	// (duplicate favorite, duplicate rating, duplicate slug).
	ErrAlreadyExists = errors.New("entity already exists")
)
