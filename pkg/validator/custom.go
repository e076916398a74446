package validator

import (
	"github.com/CLillis357/VigilantIE/internal/domain"

	"github.com/go-playground/validator/v10"
)

func RegisterCustomValidations(validate *validator.Validate) {
	validate.RegisterValidation("lat", validateLat)
	validate.RegisterValidation("lng", validateLng)
	validate.RegisterValidation("radius_km", validateRadiusKM)
	validate.RegisterValidation("crime_type", validateCrimeType)
}

func validateLat(fl validator.FieldLevel) bool {
	lat := fl.Field().Float()
	return lat >= -90.0 && lat <= 90.0
}

func validateLng(fl validator.FieldLevel) bool {
	lng := fl.Field().Float()
	return lng >= -180.0 && lng <= 180.0
}

// radius filters are offered up to 25 km in the app; MaxRadiusKm is the hard cap.
func validateRadiusKM(fl validator.FieldLevel) bool {
	radius := fl.Field().Float()
	return radius > 0 && radius <= domain.MaxRadiusKm
}

func validateCrimeType(fl validator.FieldLevel) bool {
	return domain.CrimeType(fl.Field().String()).Valid()
}
