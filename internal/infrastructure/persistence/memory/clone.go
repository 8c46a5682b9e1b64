package memory

import "github.com/estate/backend/internal/domain/leasing"

// Rows are copied on the way in and out so no caller shares a pointer field
// with a stored row, matching what a round trip through SQL gives.

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneProperty(p leasing.Property) leasing.Property {
	p.City = clonePtr(p.City)
	p.District = clonePtr(p.District)
	p.RentAmount = clonePtr(p.RentAmount)
	p.SalePrice = clonePtr(p.SalePrice)
	return p
}

func cloneContract(c leasing.Contract) leasing.Contract {
	c.ExpectedNewRent = clonePtr(c.ExpectedNewRent)
	c.DocumentPath = clonePtr(c.DocumentPath)
	return c
}

func cloneInquiry(i leasing.Inquiry) leasing.Inquiry {
	i.PreferredCity = clonePtr(i.PreferredCity)
	i.PreferredDistrict = clonePtr(i.PreferredDistrict)
	i.MinRentBudget = clonePtr(i.MinRentBudget)
	i.MaxRentBudget = clonePtr(i.MaxRentBudget)
	i.MinSaleBudget = clonePtr(i.MinSaleBudget)
	i.MaxSaleBudget = clonePtr(i.MaxSaleBudget)
	return i
}
