package parser

import (
	"strings"
	"time"

	"smsledger/internal/models"
)

// PaymentApps maps Android package names of UPI/wallet apps to the label used as
// the sender of app-originated transactions.
var PaymentApps = map[string]string{
	"com.google.android.apps.nbu.paisa.user": "GPAY",
	"com.phonepe.app":                        "PHONEPE",
	"net.one97.paytm":                        "PAYTM",
	"in.amazon.mShop.android.shopping":       "AMAZONPAY",
	"in.org.npci.upiapp":                     "BHIM",
}

// AppLabel returns the sender label for a payment app package
func AppLabel(pkg string) (string, bool) {
	label, ok := PaymentApps[pkg]
	return label, ok
}

// ParseNotification extracts amount and merchant from payment-app notification text,
// e.g. "Paid ₹500 to Zomato" or "₹1,200 received from Asha". It returns nil when
// the package is not a known payment app or no amount is present.
func ParseNotification(pkg, text string, ts time.Time) *models.NotificationSignal {
	label, ok := AppLabel(pkg)
	if !ok {
		return nil
	}

	amt := &ParsedTransaction{}
	if !extractAmount(text, amt) {
		return nil
	}

	signal := &models.NotificationSignal{
		PackageName: pkg,
		AppName:     label,
		Amount:      amt.Amount,
		Timestamp:   ts,
		Text:        strings.TrimSpace(text),
	}
	if raw, ok := findMerchant(text); ok {
		signal.MerchantName = CleanMerchantName(raw)
	}
	return signal
}
