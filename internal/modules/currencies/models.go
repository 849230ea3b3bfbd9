package currencies

// Currency is one of the supported exchange currencies.
type Currency struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}
