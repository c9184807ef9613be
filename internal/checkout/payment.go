package checkout

import (
	"github.com/go-playground/validator/v10"

	pkgerrors "github.com/heritageheaven/storefront-backend/pkg/errors"
)

var paymentValidator = validator.New()

// PaymentDetails is what the payment dialog collects. Nothing is charged and the values
// are never stored; they only have to be present.
type PaymentDetails struct {
	CardholderName string `json:"cardholderName" validate:"required"`
	CardNumber     string `json:"cardNumber" validate:"required"`
	Expiry         string `json:"expiry" validate:"required"`
	CVC            string `json:"cvc" validate:"required"`
}

func (p PaymentDetails) validate() error {
	if err := paymentValidator.Struct(p); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "payment details are incomplete")
	}
	return nil
}
