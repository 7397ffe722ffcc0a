package pan

// Mask derives the display-safe form of a card number from its last
// four digits. Anything that is not exactly four digits yields the
// generic "****" sentinel: masking sits on read paths and must never
// fail.
func Mask(lastFourDigits string) string {
	if len(lastFourDigits) != 4 {
		return "****"
	}
	for i := 0; i < 4; i++ {
		if lastFourDigits[i] < '0' || lastFourDigits[i] > '9' {
			return "****"
		}
	}
	return "**** **** **** " + lastFourDigits
}
