package handlers

import (
	"time"

	"github.com/edgewl2/sp-store-users-management/pkg/address"
	"github.com/edgewl2/sp-store-users-management/pkg/audit"
	"github.com/edgewl2/sp-store-users-management/pkg/phone"
	"github.com/edgewl2/sp-store-users-management/pkg/role"
	"github.com/edgewl2/sp-store-users-management/pkg/user"
)

const dateLayout = "2006-01-02"

type auditDTO struct {
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	CreatedBy string    `json:"createdBy"`
	UpdatedBy string    `json:"updatedBy"`
}

func toAuditDTO(a audit.Audit) auditDTO {
	return auditDTO{CreatedAt: a.CreatedAt, UpdatedAt: a.UpdatedAt, CreatedBy: a.CreatedBy, UpdatedBy: a.UpdatedBy}
}

// Roles

type roleRequest struct {
	Name        string `json:"name" validate:"required,max=50"`
	Description string `json:"description" validate:"max=255"`
}

type roleResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	auditDTO
}

func toRoleResponse(r role.Role) roleResponse {
	return roleResponse{ID: r.ID, Name: r.Name, Description: r.Description, auditDTO: toAuditDTO(r.Audit)}
}

func toRoleResponses(roles []role.Role) []roleResponse {
	res := make([]roleResponse, 0, len(roles))
	for _, r := range roles {
		res = append(res, toRoleResponse(r))
	}
	return res
}

// Addresses

type addressRequest struct {
	Street    string `json:"street" validate:"required,max=255"`
	City      string `json:"city" validate:"required,max=100"`
	State     string `json:"state" validate:"max=100"`
	Country   string `json:"country" validate:"required,max=100"`
	ZipCode   string `json:"zipCode" validate:"max=20"`
	IsDefault bool   `json:"isDefault"`
	Label     string `json:"label" validate:"max=50"`
}

func (r addressRequest) toAddress() address.Address {
	return address.Address{
		Street:    r.Street,
		City:      r.City,
		State:     r.State,
		Country:   r.Country,
		ZipCode:   r.ZipCode,
		IsDefault: r.IsDefault,
		Label:     r.Label,
	}
}

type addressResponse struct {
	ID        int64  `json:"id"`
	UserID    int64  `json:"userId"`
	Street    string `json:"street"`
	City      string `json:"city"`
	State     string `json:"state"`
	Country   string `json:"country"`
	ZipCode   string `json:"zipCode"`
	IsDefault bool   `json:"isDefault"`
	Label     string `json:"label"`
	auditDTO
}

func toAddressResponse(a address.Address) addressResponse {
	return addressResponse{
		ID:        a.ID,
		UserID:    a.UserID,
		Street:    a.Street,
		City:      a.City,
		State:     a.State,
		Country:   a.Country,
		ZipCode:   a.ZipCode,
		IsDefault: a.IsDefault,
		Label:     a.Label,
		auditDTO:  toAuditDTO(a.Audit),
	}
}

func toAddressResponses(addresses []address.Address) []addressResponse {
	res := make([]addressResponse, 0, len(addresses))
	for _, a := range addresses {
		res = append(res, toAddressResponse(a))
	}
	return res
}

// Phones

type phoneRequest struct {
	Number      string `json:"number" validate:"required,max=30"`
	CountryCode string `json:"countryCode" validate:"max=10"`
	Type        string `json:"type" validate:"omitempty,oneof=MOBILE HOME WORK OTHER mobile home work other"`
	IsDefault   bool   `json:"isDefault"`
}

func (r phoneRequest) toPhone() phone.Phone {
	return phone.Phone{Number: r.Number, CountryCode: r.CountryCode, Type: phone.Type(r.Type), IsDefault: r.IsDefault}
}

type phoneResponse struct {
	ID          int64  `json:"id"`
	UserID      int64  `json:"userId"`
	Number      string `json:"number"`
	CountryCode string `json:"countryCode"`
	Type        string `json:"type"`
	IsDefault   bool   `json:"isDefault"`
	auditDTO
}

func toPhoneResponse(p phone.Phone) phoneResponse {
	return phoneResponse{
		ID:          p.ID,
		UserID:      p.UserID,
		Number:      p.Number,
		CountryCode: p.CountryCode,
		Type:        string(p.Type),
		IsDefault:   p.IsDefault,
		auditDTO:    toAuditDTO(p.Audit),
	}
}

func toPhoneResponses(phones []phone.Phone) []phoneResponse {
	res := make([]phoneResponse, 0, len(phones))
	for _, p := range phones {
		res = append(res, toPhoneResponse(p))
	}
	return res
}

// Users

type createUserRequest struct {
	Username  string           `json:"username" validate:"required,min=3,max=50"`
	Password  string           `json:"password" validate:"required,min=8,max=72"`
	Email     string           `json:"email" validate:"required,email,max=255"`
	FirstName string           `json:"firstName" validate:"max=100"`
	LastName  string           `json:"lastName" validate:"max=100"`
	BirthDate string           `json:"birthDate" validate:"required,datetime=2006-01-02"`
	Addresses []addressRequest `json:"addresses" validate:"dive"`
	Phones    []phoneRequest   `json:"phones" validate:"dive"`
	RoleIDs   []int64          `json:"roleIds" validate:"dive,gt=0"`
}

func (r createUserRequest) complete() bool {
	return len(r.Addresses) > 0 || len(r.Phones) > 0 || len(r.RoleIDs) > 0
}

type updateUserRequest struct {
	Username  string `json:"username" validate:"required,min=3,max=50"`
	Password  string `json:"password" validate:"omitempty,min=8,max=72"`
	Email     string `json:"email" validate:"required,email,max=255"`
	FirstName string `json:"firstName" validate:"max=100"`
	LastName  string `json:"lastName" validate:"max=100"`
	BirthDate string `json:"birthDate" validate:"required,datetime=2006-01-02"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,max=72"`
}

type userResponse struct {
	ID        int64             `json:"id"`
	Username  string            `json:"username"`
	Email     string            `json:"email"`
	FirstName string            `json:"firstName"`
	LastName  string            `json:"lastName"`
	BirthDate string            `json:"birthDate"`
	Enabled   bool              `json:"enabled"`
	Roles     []roleResponse    `json:"roles"`
	Addresses []addressResponse `json:"addresses"`
	Phones    []phoneResponse   `json:"phones"`
	auditDTO
}

func toUserResponse(u user.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		BirthDate: u.BirthDate.Format(dateLayout),
		Enabled:   u.Enabled,
		Roles:     toRoleResponses(u.Roles),
		Addresses: toAddressResponses(u.Addresses),
		Phones:    toPhoneResponses(u.Phones),
		auditDTO:  toAuditDTO(u.Audit),
	}
}

// parseDate is only called on validated input.
func parseDate(s string) time.Time {
	t, _ := time.Parse(dateLayout, s)
	return t
}
