package service

import "errors"

var (
	ErrMissingFields      = errors.New("required fields are missing")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotLoggedIn        = errors.New("login required")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrNoInvoice          = errors.New("no invoice has been generated")
	ErrLineNotInCart      = errors.New("product is not in the cart")
)
