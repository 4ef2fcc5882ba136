package types

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

const (
	UUID_PREFIX_BUILDING      = "bldg"
	UUID_PREFIX_APARTMENT     = "apt"
	UUID_PREFIX_TARIFF        = "tarf"
	UUID_PREFIX_METER_READING = "mtrd"
	UUID_PREFIX_INVOICE       = "inv"
	UUID_PREFIX_BILLING_RUN   = "brun"
	UUID_PREFIX_SUBSCRIPTION  = "subs"
	UUID_PREFIX_REQUEST       = "req"
)

// GenerateUUID returns a lowercase ULID, sortable by creation time.
func GenerateUUID() string {
	return strings.ToLower(ulid.MustNew(ulid.Timestamp(time.Now().UTC()), rand.Reader).String())
}

// GenerateUUIDWithPrefix returns a ULID prefixed with the entity short code,
// e.g. inv_01hgw2... Prefixes keep ids self-describing in logs and APIs.
func GenerateUUIDWithPrefix(prefix string) string {
	if prefix == "" {
		return GenerateUUID()
	}
	return fmt.Sprintf("%s_%s", prefix, GenerateUUID())
}
