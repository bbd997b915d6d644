package domain

import (
	"context"
	"errors"
)

var (
	// ErrEventAlreadyProcessed marks a duplicate delivery; handlers answer
	// it with success so the provider stops redelivering.
	ErrEventAlreadyProcessed = errors.New("payment event already processed")

	ErrMissingEventID = errors.New("payment event id is required")

	// ErrUnknownPrice means the price id has no entry in the pricing
	// table. Nothing is granted; the event should be investigated.
	ErrUnknownPrice = errors.New("unknown price id")
)

type Service interface {
	ProcessEvent(ctx context.Context, event Event) (Receipt, error)
}
