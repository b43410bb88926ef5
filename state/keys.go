package state

import (
	"strconv"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

var (
	instanceKey    = ethcrypto.Keccak256([]byte("remit/instance"))
	transferPrefix = []byte("remit/transfer/")
	ratelockPrefix = []byte("remit/ratelock/")
	planPrefix     = []byte("remit/plan/")
	balancePrefix  = []byte("remit/balance/")
	custodyLabel   = []byte("remit/custody/vault")
)

func transferKey(id uint64) []byte {
	return idKey(transferPrefix, id)
}

func ratelockKey(id uint64) []byte {
	return idKey(ratelockPrefix, id)
}

func idKey(prefix []byte, id uint64) []byte {
	buf := make([]byte, 0, len(prefix)+20)
	buf = append(buf, prefix...)
	buf = strconv.AppendUint(buf, id, 10)
	return ethcrypto.Keccak256(buf)
}

func planKey(owner [20]byte) []byte {
	buf := make([]byte, 0, len(planPrefix)+len(owner))
	buf = append(buf, planPrefix...)
	buf = append(buf, owner[:]...)
	return ethcrypto.Keccak256(buf)
}

func balanceKey(token string, holder [20]byte) []byte {
	buf := make([]byte, 0, len(balancePrefix)+len(token)+1+len(holder))
	buf = append(buf, balancePrefix...)
	buf = append(buf, token...)
	buf = append(buf, ':')
	buf = append(buf, holder[:]...)
	return ethcrypto.Keccak256(buf)
}

// custodyAddress is the ledger-internal vault holding funds for scheduled
// legs and in-flight conversions. Derived from a fixed label so every
// deployment agrees on it without configuration.
func custodyAddress() [20]byte {
	var addr [20]byte
	copy(addr[:], ethcrypto.Keccak256(custodyLabel)[12:])
	return addr
}
