package model

import "github.com/google/uuid"

// Organization is a buyer or supplier party as printed on purchase orders.
type Organization struct {
	ID           uuid.UUID
	Name         string
	Type         string // "BUYER" or "SUPPLIER"
	BIN          string
	HeadFullName string
	Address      string
	Phone        string
}
