package payments

import (
	"fmt"
	"net/url"

	qrcode "github.com/skip2/go-qrcode"
)

// UPIURI builds the upi://pay deep link that payment apps scan at the
// counter.
func UPIURI(vpa, payeeName string, amount float64, note string) string {
	q := url.Values{}
	q.Set("pa", vpa)
	q.Set("pn", payeeName)
	q.Set("am", fmt.Sprintf("%.2f", amount))
	q.Set("cu", "INR")
	if note != "" {
		q.Set("tn", note)
	}
	return "upi://pay?" + q.Encode()
}

// ReceiptQR renders the UPI collection QR as a PNG.
func ReceiptQR(vpa, payeeName string, amount float64, note string) ([]byte, error) {
	if vpa == "" {
		return nil, fmt.Errorf("no UPI address configured")
	}
	return qrcode.Encode(UPIURI(vpa, payeeName, amount, note), qrcode.Medium, 256)
}
