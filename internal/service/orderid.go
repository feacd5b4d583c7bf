package service

import (
	"fmt"
	"math/rand"
	"time"
)

const (
	orderIDPrefix    = "ORD"
	orderIDSuffixLen = 8
	orderIDAlphabet  = "abcdefghijklmnopqrstuvwxyz0123456789"
)

// NewOrderID generates a human-readable order identifier of the form
// ORD-<unix millis>-<random suffix>. Uniqueness is probabilistic; the unique
// index on orderId is the actual enforcement point.
func NewOrderID() string {
	suffix := make([]byte, orderIDSuffixLen)
	for i := range suffix {
		suffix[i] = orderIDAlphabet[rand.Intn(len(orderIDAlphabet))]
	}
	return fmt.Sprintf("%s-%d-%s", orderIDPrefix, time.Now().UnixMilli(), suffix)
}
