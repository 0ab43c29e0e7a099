package checkout

import (
	"errors"
	"fmt"

	"storefront/models"
	"storefront/utils"
)

var ErrInvalidAddress = errors.New("invalid shipping address")

// ValidateAddress checks the required fields: name, email, address line 1,
// city, state, postal code and phone.
func ValidateAddress(a models.ShippingAddress) error {
	if err := utils.ValidateStruct(a); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidAddress, utils.SanitizeValidationError(err))
	}
	return nil
}

// FullPhone joins the country code and the local number.
func FullPhone(a models.ShippingAddress) string {
	if a.PhoneCountryCode == "" {
		return a.Phone
	}
	return a.PhoneCountryCode + " " + a.Phone
}
