package payment

// ChargeAmount computes the amount to collect for a course or bundle price.
// Prices are held in minor units (pence). Deposits are a percentage of the
// full price, rounded half-up to the nearest penny; the percentage comes from
// the tenant record so there is exactly one place this arithmetic lives.
func ChargeAmount(pricePence int64, paymentType Type, depositPercent int) int64 {
	if paymentType == TypeFull {
		return pricePence
	}
	return (pricePence*int64(depositPercent) + 50) / 100
}
