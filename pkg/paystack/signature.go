package paystack

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
)

// SignatureHeader is the request header Paystack signs deliveries with.
const SignatureHeader = "x-paystack-signature"

// VerifySignature recomputes the HMAC-SHA512 of the raw webhook body keyed by
// the account secret and compares it to the supplied hex digest in constant
// time. Any missing input fails closed.
func VerifySignature(body []byte, signature, secret string) bool {
	if signature == "" || secret == "" {
		return false
	}
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
