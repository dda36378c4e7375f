package service

import "hospital-management-backend/internal/models"

// Principal is the authenticated caller of a request, rebuilt from the
// datastore on every request by the authorization gate.
type Principal struct {
	User *models.User
	// HospitalCode is the external hospital identifier carried by the token.
	HospitalCode string
}

func (p *Principal) UserID() uint {
	return p.User.ID
}

// HospitalID is the internal ID that scopes every tenant query.
func (p *Principal) HospitalID() uint {
	return p.User.HospitalID
}

func (p *Principal) Role() models.Role {
	return p.User.Role
}

func (p *Principal) IsAdmin() bool {
	return p.User.Role == models.RoleAdmin
}
