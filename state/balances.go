package state

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"remitledger/native/common"
)

// Balances are the custody substrate. They live under the same transactional
// overlay as the entity records, so an aborted invocation reverts its debits
// and credits together with everything else. Balance keys carry no lifetime
// envelope; funds do not expire.

// BalanceOf returns the holder's balance for a token. Absent keys read as
// zero.
func (tx *Txn) BalanceOf(token string, holder [20]byte) (*big.Int, error) {
	raw, ok, err := tx.rawGet(balanceKey(token, holder))
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	balance := new(big.Int)
	if err := rlp.DecodeBytes(raw, balance); err != nil {
		return nil, fmt.Errorf("state: corrupt balance record: %w", err)
	}
	return balance, nil
}

func (tx *Txn) setBalance(token string, holder [20]byte, balance *big.Int) error {
	raw, err := rlp.EncodeToBytes(balance)
	if err != nil {
		return err
	}
	return tx.rawPut(balanceKey(token, holder), raw)
}

// Credit mints the amount onto the holder's balance. Used by deposit-style
// entry points and test fixtures; the engines themselves only move funds.
func (tx *Txn) Credit(token string, holder [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("state: credit amount must be non-negative: %w", common.ErrInvalid)
	}
	balance, err := tx.BalanceOf(token, holder)
	if err != nil {
		return err
	}
	return tx.setBalance(token, holder, balance.Add(balance, amount))
}

// Transfer moves the amount between holders, satisfying the engines' custody
// interface. Insufficient funds fail the precondition.
func (tx *Txn) Transfer(token string, from, to [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("state: transfer amount must be non-negative: %w", common.ErrInvalid)
	}
	source, err := tx.BalanceOf(token, from)
	if err != nil {
		return err
	}
	if source.Cmp(amount) < 0 {
		return fmt.Errorf("state: balance %s below transfer amount %s: %w", source, amount, common.ErrPrecondition)
	}
	if err := tx.setBalance(token, from, source.Sub(source, amount)); err != nil {
		return err
	}
	destination, err := tx.BalanceOf(token, to)
	if err != nil {
		return err
	}
	return tx.setBalance(token, to, destination.Add(destination, amount))
}
