package enums

// PaymentMethod describes how a customer settles an order. Only cash on
// delivery is offered.
type PaymentMethod string

const PaymentMethodCashOnDelivery PaymentMethod = "cash_on_delivery"

var paymentMethods = newSet("payment method", PaymentMethodCashOnDelivery)

func (p PaymentMethod) String() string { return string(p) }

func (p PaymentMethod) IsValid() bool { return paymentMethods.has(p) }

func ParsePaymentMethod(value string) (PaymentMethod, error) {
	return paymentMethods.parse(value)
}
