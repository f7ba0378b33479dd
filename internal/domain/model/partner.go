package model

// Partner is a merchant allowed to submit payments. Partners are reference
// data and are never modified by the gateway.
type Partner struct {
	ID     int64
	Code   string
	Name   string
	Active bool
}
