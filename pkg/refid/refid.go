// Package refid generates human-readable reference numbers for business
// documents, e.g. "ORD4F7K2Q9X". The random suffix keeps numbers short
// enough to read over the phone while collisions stay unlikely.
package refid

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"
)

const (
	// PrefixOrder is used for customer orders.
	PrefixOrder = "ORD"
	// PrefixManualOrder is used for manually captured orders.
	PrefixManualOrder = "MAN"
	// PrefixPurchaseOrder is used for purchase orders.
	PrefixPurchaseOrder = "PO"
	// PrefixInvoice is used for invoices.
	PrefixInvoice = "INV"

	suffixLength = 8
	alphabet     = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// maxAttempts bounds NewUnique retries. With 36^8 combinations the
	// second attempt is already exceptional.
	maxAttempts = 10
)

// ExistsFunc reports whether a reference number is already taken.
type ExistsFunc func(ctx context.Context, ref string) (bool, error)

// New returns prefix plus an 8-character uppercase alphanumeric suffix.
func New(prefix string) string {
	buf := make([]byte, suffixLength)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms
		panic(fmt.Sprintf("refid: read random: %v", err))
	}
	var sb strings.Builder
	sb.Grow(len(prefix) + suffixLength)
	sb.WriteString(prefix)
	for _, b := range buf {
		sb.WriteByte(alphabet[int(b)%len(alphabet)])
	}
	return sb.String()
}

// NewUnique generates reference numbers until exists reports a free one.
func NewUnique(ctx context.Context, prefix string, exists ExistsFunc) (string, error) {
	for i := 0; i < maxAttempts; i++ {
		ref := New(prefix)
		taken, err := exists(ctx, ref)
		if err != nil {
			return "", fmt.Errorf("check reference %s: %w", ref, err)
		}
		if !taken {
			return ref, nil
		}
	}
	return "", fmt.Errorf("could not generate unique reference with prefix %s after %d attempts", prefix, maxAttempts)
}

// Valid reports whether ref has the given prefix and a well-formed suffix.
func Valid(ref, prefix string) bool {
	if !strings.HasPrefix(ref, prefix) {
		return false
	}
	suffix := ref[len(prefix):]
	if len(suffix) != suffixLength {
		return false
	}
	for _, c := range suffix {
		if !strings.ContainsRune(alphabet, c) {
			return false
		}
	}
	return true
}
