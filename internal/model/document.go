package model

// Company is the issuer printed on rendered documents.
type Company struct {
	Name     string
	Document string
	Address  string
	Phone    string
}

type InvoiceDocument struct {
	Invoice Invoice
	Company Company
}

type BudgetDocument struct {
	Budget  Budget
	Company Company
}
