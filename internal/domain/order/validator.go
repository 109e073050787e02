package order

import (
	"fmt"

	"github.com/cpq/backend/internal/domain/shared"
)

// Validation error codes
const (
	CodeLicenseLineCount         = "LICENSE_LINE_COUNT"
	CodeLicenseQtyMismatch       = "LICENSE_QTY_MISMATCH"
	CodeRetentionRequiresLicense = "RETENTION_REQUIRES_LICENSE"
)

// Validate checks the bundle rules over all line items of the order.
// Rules run in a fixed order and the first failure wins.
func Validate(o *CanonicalOrder) error {
	items := o.AllItems()

	var licenses []LineItem
	var cameraQty int64
	hasRetention := false
	for _, item := range items {
		switch item.Class {
		case ClassLicense:
			licenses = append(licenses, item)
		case ClassCamera:
			cameraQty += item.Quantity
		case ClassRetention:
			hasRetention = true
		}
	}

	if len(licenses) != 1 {
		return shared.NewDomainError(CodeLicenseLineCount,
			fmt.Sprintf("missing or duplicate license line: expected exactly 1 license line, found %d", len(licenses)))
	}
	if licenses[0].Quantity != cameraQty {
		return shared.NewDomainError(CodeLicenseQtyMismatch,
			fmt.Sprintf("license qty (%d) must equal total camera qty (%d)", licenses[0].Quantity, cameraQty))
	}

	if hasRetention && len(licenses) == 0 {
		return shared.NewDomainError(CodeRetentionRequiresLicense, "retention requires a license tier")
	}

	return nil
}
