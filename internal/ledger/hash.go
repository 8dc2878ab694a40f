package ledger

import (
	"encoding/json"
	"fmt"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/blake2b"

	"sensemaker/internal/domain"
)

// HashEntry returns the entity address of e.
func HashEntry(e Entry) Address {
	h, _ := blake2b.New256(nil)
	h.Write([]byte(e.Type))
	h.Write([]byte{0})
	h.Write(e.Content)
	return encode(domain.SpaceEntity, h.Sum(nil))
}

// HashAction returns the revision address of a. The Address field itself is
// not hashed.
func HashAction(a Action) (Address, error) {
	a.Address = ""
	data, err := json.Marshal(a)
	if err != nil {
		return "", fmt.Errorf("encode action: %w", err)
	}
	sum := blake2b.Sum256(data)
	return encode(domain.SpaceRevision, sum[:]), nil
}

func encode(space domain.Space, digest []byte) Address {
	return Address(string(rune(space)) + base58.Encode(digest))
}

// VerifyEntry reports whether addr is the entity address of e.
func VerifyEntry(addr Address, e Entry) bool {
	return HashEntry(e) == addr
}
