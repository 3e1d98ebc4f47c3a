package domain

// Pharmacy is the outlet branding printed at the top of every bill.
type Pharmacy struct {
	Name         string `json:"name"`
	Tagline      string `json:"tagline"`
	Address      string `json:"address"`
	Color        string `json:"color"`
	TaglineColor string `json:"tagline_color"`
	AddressColor string `json:"address_color"`
}
