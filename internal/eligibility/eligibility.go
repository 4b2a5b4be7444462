// Package eligibility answers whether a driver and a vehicle may be committed
// to a trip. All checks are pure: they read the records and the clock, and
// never touch availability flags.
package eligibility

import (
	"fmt"
	"time"

	"github.com/fleetops/dispatch/internal/domain"
)

// licenseMatrix maps each license class to the vehicle categories it
// authorizes. B2 and B3 are handled in CanDrive because they are defined by
// exclusion rather than enumeration.
var licenseMatrix = map[domain.LicenseClass][]domain.Category{
	domain.LicenseA1: {domain.CategoryMotorcycle},
	domain.LicenseA2: {domain.CategoryMotorcycle},
	domain.LicenseB1: {domain.CategoryCar, domain.CategoryPickup},
	domain.LicenseC1: {domain.CategoryTaxi, domain.CategoryCar},
	domain.LicenseC2: {domain.CategoryBus, domain.CategoryTruck, domain.CategoryVan},
	domain.LicenseC3: {domain.CategoryBus, domain.CategoryTruck, domain.CategoryVan},
}

// CanDrive reports whether a license class authorizes a vehicle category.
func CanDrive(class domain.LicenseClass, category domain.Category) bool {
	switch class {
	case domain.LicenseB3:
		// Articulated class drives anything.
		return true
	case domain.LicenseB2:
		// Rigid trucks and buses: anything but motorcycles.
		return category != domain.CategoryMotorcycle
	}
	for _, c := range licenseMatrix[class] {
		if c == category {
			return true
		}
	}
	return false
}

// CheckDriver verifies the driver may be committed to a trip with the given
// vehicle category: a well-formed, unexpired license of a compatible class.
// Returns an error wrapping domain.ErrEligibility on failure.
func CheckDriver(d domain.Driver, category domain.Category, now time.Time) error {
	if !d.LicenseValid(now) {
		return fmt.Errorf("%w: driver %s: license %q invalid or expired",
			domain.ErrEligibility, d.ID, d.LicenseNumber)
	}
	if !CanDrive(d.LicenseClass, category) {
		return fmt.Errorf("%w: driver %s: license class %s does not authorize category %s",
			domain.ErrEligibility, d.ID, d.LicenseClass, category)
	}
	return nil
}

// CheckVehicle verifies the vehicle's paperwork permits operation: insurance
// not expired and last inspection within one year.
// Returns an error wrapping domain.ErrEligibility on failure.
func CheckVehicle(v domain.Vehicle, now time.Time) error {
	if !v.DocsValid(now) {
		return fmt.Errorf("%w: vehicle %s: documentation expired or inspection overdue",
			domain.ErrEligibility, v.ID)
	}
	return nil
}
