package services

// DepositCents returns ceil(total * percentage / 100) in minor units.
func DepositCents(totalCents int64, percentage int) int64 {
	if totalCents <= 0 || percentage <= 0 {
		return 0
	}
	if percentage >= 100 {
		return totalCents
	}
	return (totalCents*int64(percentage) + 99) / 100
}
