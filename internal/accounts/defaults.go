package accounts

import "github.com/gledger-dev/gledger/internal/model"

// DefaultChart returns the default chart of accounts for a kind of business.
func DefaultChart(kind string) []ChartEntry {
	switch kind {
	case "sole_trader":
		return soleTraderChart()
	default:
		return soleTraderChart()
	}
}

func soleTraderChart() []ChartEntry {
	return []ChartEntry{
		{Name: "activa", Role: model.RoleAsset, Description: "Bezittingen"},
		{Name: "kas", Role: model.RoleAsset, Parent: "activa", Description: "Kasgeld"},
		{Name: "bank", Role: model.RoleAsset, Parent: "activa", Description: "Zakelijke rekening"},
		{Name: "debiteuren", Role: model.RoleAsset, Parent: "activa", Description: "Openstaande facturen"},
		{Name: "passiva", Role: model.RoleLiability, Description: "Schulden en eigen vermogen"},
		{Name: "crediteuren", Role: model.RoleLiability, Parent: "passiva", Description: "Te betalen facturen"},
		{Name: "btw", Role: model.RoleLiability, Parent: "passiva", Description: "Af te dragen btw"},
		{Name: "winst", Role: model.RoleLiability, Parent: "passiva", Description: "Resultaat boekjaar"},
		{Name: "opbrengsten", Role: model.RoleIncome},
		{Name: "verkopen", Role: model.RoleIncome, Parent: "opbrengsten", Description: "Omzet"},
		{Name: "rente", Role: model.RoleIncome, Parent: "opbrengsten", Description: "Ontvangen rente"},
		{Name: "kosten", Role: model.RoleExpense},
		{Name: "inkopen", Role: model.RoleExpense, Parent: "kosten", Description: "Inkoop goederen"},
		{Name: "kantoor", Role: model.RoleExpense, Parent: "kosten", Description: "Kantoorartikelen"},
		{Name: "software", Role: model.RoleExpense, Parent: "kosten", Description: "Abonnementen"},
	}
}
