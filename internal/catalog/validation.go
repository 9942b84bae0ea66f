package catalog

import "errors"

func (s *Service) validate(v Variant) error {
	if v.ProductID <= 0 {
		return errors.New("product is required")
	}
	if v.SizeL <= 0 {
		return errors.New("container volume must be positive")
	}
	if v.PriceTTC.IsNegative() {
		return errors.New("price must not be negative")
	}
	if v.DepositEUR.Valid && v.DepositEUR.Decimal.IsNegative() {
		return errors.New("deposit must not be negative")
	}
	return nil
}
