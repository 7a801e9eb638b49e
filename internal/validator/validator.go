package validator

import (
	"net/netip"

	"gateway-registry/internal/domain/gateway"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	err := validate.RegisterValidation("ipv4addr", validateIPv4Address)
	if err != nil {
		return
	}
	err = validate.RegisterValidation("device_status", validateDeviceStatus)
	if err != nil {
		return
	}
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// ValidateVar checks a single value against a tag, e.g. "ipv4addr".
func ValidateVar(v interface{}, tag string) error {
	return validate.Var(v, tag)
}

// IsIPv4 reports whether s is a dotted-quad IPv4 address. IPv4-mapped IPv6
// forms such as ::ffff:10.0.0.1 are rejected.
func IsIPv4(s string) bool {
	return ValidateVar(s, "ipv4addr") == nil
}

func validateIPv4Address(fl validator.FieldLevel) bool {
	addr, err := netip.ParseAddr(fl.Field().String())
	if err != nil {
		return false
	}
	return addr.Is4()
}

func validateDeviceStatus(fl validator.FieldLevel) bool {
	return gateway.DeviceStatus(fl.Field().String()).IsValid()
}
