package models

import (
	"time"
)

// ShippingAddress is the checkout form payload. It is also stored, as JSON, on
// the order it shipped with.
type ShippingAddress struct {
	FullName         string `json:"fullName" binding:"required"`
	Email            string `json:"email" binding:"required,email"`
	PhoneCountryCode string `json:"phoneCountryCode"`
	Phone            string `json:"phone" binding:"required"`
	AddressLine1     string `json:"addressLine1" binding:"required"`
	AddressLine2     string `json:"addressLine2"`
	City             string `json:"city" binding:"required"`
	State            string `json:"state" binding:"required"`
	PostalCode       string `json:"postalCode" binding:"required"`
	Country          string `json:"country"`
}

// UserAddress holds at most one saved address per user.
type UserAddress struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	UserID           string    `gorm:"uniqueIndex;not null" json:"userId"`
	FullName         string    `gorm:"not null" json:"fullName"`
	Email            string    `gorm:"not null" json:"email"`
	PhoneCountryCode string    `json:"phoneCountryCode"`
	Phone            string    `gorm:"not null" json:"phone"`
	AddressLine1     string    `gorm:"not null" json:"addressLine1"`
	AddressLine2     string    `json:"addressLine2"`
	City             string    `gorm:"not null" json:"city"`
	State            string    `gorm:"not null" json:"state"`
	PostalCode       string    `gorm:"not null" json:"postalCode"`
	Country          string    `gorm:"not null;default:US" json:"country"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

func (a *UserAddress) Shipping() ShippingAddress {
	return ShippingAddress{
		FullName:         a.FullName,
		Email:            a.Email,
		PhoneCountryCode: a.PhoneCountryCode,
		Phone:            a.Phone,
		AddressLine1:     a.AddressLine1,
		AddressLine2:     a.AddressLine2,
		City:             a.City,
		State:            a.State,
		PostalCode:       a.PostalCode,
		Country:          a.Country,
	}
}

func NewUserAddress(userID string, s ShippingAddress) UserAddress {
	country := s.Country
	if country == "" {
		country = "US"
	}
	return UserAddress{
		UserID:           userID,
		FullName:         s.FullName,
		Email:            s.Email,
		PhoneCountryCode: s.PhoneCountryCode,
		Phone:            s.Phone,
		AddressLine1:     s.AddressLine1,
		AddressLine2:     s.AddressLine2,
		City:             s.City,
		State:            s.State,
		PostalCode:       s.PostalCode,
		Country:          country,
	}
}
