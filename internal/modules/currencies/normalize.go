package currencies

import "strings"

// supported lists the currency codes the office trades, in display order.
var supported = []string{"USD", "RUB", "UZS", "KGS", "EUR"}

// aliases maps operator spellings to canonical codes. Operators type in
// Latin, Cyrillic, with symbols and with recurring typos; the table grew out
// of real chat logs. Note that "som" is the Kyrgyz currency while
// "sum"/"so'm" is the Uzbek one.
var aliases = map[string]string{
	"usd": "USD", "dollar": "USD", "дол": "USD", "доллар": "USD", "$": "USD",
	"dolalr": "USD", "dollor": "USD", "dolr": "USD", "dolsr": "USD",
	"dolar": "USD", "doll": "USD", "uusd": "USD", "uds": "USD", "dkk": "USD",

	"rub": "RUB", "rubl": "RUB", "rubel": "RUB", "ruble": "RUB",
	"руб": "RUB", "рубл": "RUB", "рубль": "RUB", "рубли": "RUB", "₽": "RUB",
	"rubll": "RUB", "rbl": "RUB", "rrub": "RUB",

	"kgs": "KGS", "som": "KGS", "сом": "KGS", "сомов": "KGS", "сома": "KGS",
	"kgss": "KGS", "ksg": "KGS", "soom": "KGS",

	"uzs": "UZS", "so'm": "UZS", "sum": "UZS", "сум": "UZS", "сўм": "UZS",
	"uzss": "UZS", "usz": "UZS",

	"eur": "EUR", "euro": "EUR", "evro": "EUR", "евро": "EUR", "€": "EUR",
	"evra": "EUR", "evrp": "EUR", "ero": "EUR", "eurr": "EUR", "euur": "EUR",
}

// Normalize resolves a raw operator spelling to a canonical currency code.
// Matching is case-insensitive and tolerant of surrounding whitespace.
func Normalize(raw string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(raw))
	if key == "" {
		return "", false
	}
	code, ok := aliases[key]
	return code, ok
}

// Supported returns the canonical currency codes in display order.
func Supported() []string {
	out := make([]string, len(supported))
	copy(out, supported)
	return out
}

// IsSupported reports whether code is one of the canonical currency codes.
func IsSupported(code string) bool {
	for _, c := range supported {
		if c == code {
			return true
		}
	}
	return false
}
