package services

import (
	"fmt"

	"github.com/shopspring/decimal"

	"storefront-backend/internal/models"
	"storefront-backend/internal/money"
)

// minInstallmentValue is the smallest viable per-installment charge.
// Options that would split the total below this are excluded.
var minInstallmentValue = decimal.NewFromFloat(10.00)

// interestRates maps installment count to the interest percentage
// applied to the total. Rates come from the financing agreement and are
// not smoothly interpolated, so they live in an explicit table.
var interestRates = map[int]float64{
	1:  0,
	2:  0,
	3:  0,
	4:  2.99,
	5:  3.99,
	6:  4.99,
	7:  5.99,
	8:  6.99,
	9:  7.99,
	10: 8.99,
	11: 9.99,
	12: 10.99,
}

const maxInstallments = 12

// InstallmentServiceImpl implements interfaces.InstallmentService
type InstallmentServiceImpl struct{}

// NewInstallmentService creates a new installment service
func NewInstallmentService() *InstallmentServiceImpl {
	return &InstallmentServiceImpl{}
}

// ComputeSchedule returns the financing options for an amount, ascending
// by installment count. Pure function of the amount and the rate table;
// nothing is persisted.
func (s *InstallmentServiceImpl) ComputeSchedule(amount float64) ([]models.InstallmentOption, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive, got %v", ErrInvalidAmount, amount)
	}

	base := money.FromFloat(amount)
	options := make([]models.InstallmentOption, 0, maxInstallments)

	for i := 1; i <= maxInstallments; i++ {
		rate := interestRates[i]
		hasInterest := rate > 0

		total := base
		if hasInterest {
			total = base.Add(money.Percent(base, money.FromFloat(rate)))
		}
		total = money.Round2(total)

		installmentValue := money.Round2(total.Div(decimal.NewFromInt(int64(i))))
		if installmentValue.LessThan(minInstallmentValue) {
			continue
		}

		totalF, _ := total.Float64()
		valueF, _ := installmentValue.Float64()

		options = append(options, models.InstallmentOption{
			Installments:     i,
			InterestRate:     rate,
			HasInterest:      hasInterest,
			InstallmentValue: valueF,
			TotalValue:       totalF,
		})
	}

	return options, nil
}
