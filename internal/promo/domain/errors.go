package domain

import "errors"

var (
	ErrPromoNotFound   = errors.New("promo code not found")
	ErrPromoInactive   = errors.New("promo code is no longer active")
	ErrPromoExpired    = errors.New("promo code has expired")
	ErrPromoExhausted  = errors.New("promo code has been fully redeemed")
	ErrAlreadyRedeemed = errors.New("promo code already redeemed")
	ErrInvalidCode     = errors.New("invalid promo code")
	ErrCodeExists      = errors.New("promo code already exists")
)
