package models

// DraftTrade is an unvalidated trade produced by the extraction service.
// Fields are strings as read from the document; the store applies the same
// validation as manual entry when a draft is recorded.
type DraftTrade struct {
	ID         string `json:"id"`
	MemoNumber string `json:"memo_number"`
	Date       string `json:"date"`
	Instrument string `json:"stock"`
	Quantity   string `json:"quantity"`
	Rate       string `json:"rate"`
	Commission string `json:"commission"`
	CDCCharges string `json:"cdc_charges"`
	SalesTax   string `json:"sales_tax"`
}

// DraftDividend is an unvalidated dividend produced by the extraction service.
type DraftDividend struct {
	ID           string `json:"id"`
	WarrantNo    string `json:"warrant_no"`
	PaymentDate  string `json:"payment_date"`
	Instrument   string `json:"stock"`
	RatePerShare string `json:"rate_per_security"`
	Shares       string `json:"number_of_securities"`
	TaxDeducted  string `json:"tax_deducted"`
}
