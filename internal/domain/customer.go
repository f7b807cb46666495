package domain

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"time"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail applies the basic address shape check used by every entity.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewOpaqueID returns "<prefix>_<unix millis>_<7 base36 chars>".
func NewOpaqueID(prefix string, now time.Time) string {
	suffix := make([]byte, 7)
	max := big.NewInt(int64(len(base36)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic(fmt.Sprintf("crypto/rand failed: %v", err))
		}
		suffix[i] = base36[n.Int64()]
	}
	return fmt.Sprintf("%s_%d_%s", prefix, now.UnixMilli(), suffix)
}

// Customer is a billable party.
type Customer struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	ImageURL  *string   `json:"image_url"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CustomerPatch carries a partial customer update. SetImageURL with a nil
// ImageURL clears the stored value.
type CustomerPatch struct {
	Name        *string
	Email       *string
	ImageURL    *string
	SetImageURL bool
}
