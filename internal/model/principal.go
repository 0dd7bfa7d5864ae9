package model

import "github.com/google/uuid"

type Principal struct {
	UserID uuid.UUID
	OrgID  uuid.UUID
	Role   string
}

func (p Principal) IsBuyer() bool {
	return p.Role == "BUYER"
}

func (p Principal) IsSupplier() bool {
	return p.Role == "SUPPLIER"
}

func (p Principal) IsAdmin() bool {
	return p.Role == "ADMIN"
}

// OwnsTender reports whether the principal acts for the tender's buyer
// organization. Admins pass for back-office corrections.
func (p Principal) OwnsTender(t *Tender) bool {
	return p.IsAdmin() || (p.IsBuyer() && p.OrgID == t.BuyerOrgID)
}
