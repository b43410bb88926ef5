package remit

import (
	"math/big"

	"remitledger/core/events"
	"remitledger/native/fees"
	"remitledger/native/swap"
	"remitledger/state"
)

// ConvertAndTransfer converts through the venue and delivers the output to
// the recipient in one invocation.
func (s *Service) ConvertAndTransfer(credential string, from, to [20]byte, fromToken, toToken string, amount, minOut *big.Int, intermediaries []string) (uint64, error) {
	var id uint64
	err := s.run("convert_and_transfer", func(tx *state.Txn, rec *events.Recorder) error {
		if err := s.guard(tx, credential, from); err != nil {
			return err
		}
		if err := s.venueGuard(tx); err != nil {
			return err
		}
		var err error
		id, err = s.orchestrator(tx, rec).ConvertAndTransfer(from, to, fromToken, toToken, amount, minOut, intermediaries)
		return err
	})
	if err == nil {
		s.metrics.ObserveSwapHops(len(intermediaries) + 1)
	}
	return id, err
}

// ExecuteArbitrage round-trips the executor's funds through the venue,
// keeping the profit. Aborts below the profit floor.
func (s *Service) ExecuteArbitrage(credential string, executor [20]byte, tokenA, tokenB string, amount, minProfit *big.Int) (*big.Int, error) {
	var profit *big.Int
	err := s.run("execute_arbitrage", func(tx *state.Txn, rec *events.Recorder) error {
		if err := s.guard(tx, credential, executor); err != nil {
			return err
		}
		if err := s.venueGuard(tx); err != nil {
			return err
		}
		var err error
		profit, err = s.orchestrator(tx, rec).ExecuteArbitrage(executor, tokenA, tokenB, amount, minProfit)
		return err
	})
	return profit, err
}

// ExecuteCycleArbitrage runs a closed multi-asset cycle under a profit floor.
func (s *Service) ExecuteCycleArbitrage(credential string, executor [20]byte, path []string, amount, minProfit *big.Int) (*big.Int, error) {
	var profit *big.Int
	err := s.run("execute_cycle_arbitrage", func(tx *state.Txn, rec *events.Recorder) error {
		if err := s.guard(tx, credential, executor); err != nil {
			return err
		}
		if err := s.venueGuard(tx); err != nil {
			return err
		}
		var err error
		profit, err = s.orchestrator(tx, rec).ExecuteCycleArbitrage(executor, path, amount, minProfit)
		return err
	})
	return profit, err
}

// EstimateOutput previews the venue output for a direct conversion.
func (s *Service) EstimateOutput(fromToken, toToken string, amount *big.Int) (*big.Int, error) {
	var out *big.Int
	err := s.view(func(tx *state.Txn) error {
		var err error
		out, err = s.orchestrator(tx, events.NoopEmitter{}).EstimateOutput(fromToken, toToken, amount)
		return err
	})
	return out, err
}

// BestQuote compares the pool venue against the order-book heuristic.
func (s *Service) BestQuote(fromToken, toToken string, amount *big.Int) (*swap.Quote, error) {
	var quote *swap.Quote
	err := s.view(func(tx *state.Txn) error {
		var err error
		quote, err = s.orchestrator(tx, events.NoopEmitter{}).BestQuote(fromToken, toToken, amount)
		return err
	})
	return quote, err
}

// EstimateArbitrageProfit previews a round-trip profit without moving funds.
func (s *Service) EstimateArbitrageProfit(tokenA, tokenB string, amount *big.Int) (*big.Int, error) {
	var profit *big.Int
	err := s.view(func(tx *state.Txn) error {
		var err error
		profit, err = s.orchestrator(tx, events.NoopEmitter{}).EstimateArbitrageProfit(tokenA, tokenB, amount)
		return err
	})
	return profit, err
}

// HasArbitrageOpportunity reports whether the estimated round-trip profit
// clears the basis-point floor.
func (s *Service) HasArbitrageOpportunity(tokenA, tokenB string, amount *big.Int, minProfitBps uint32) (bool, error) {
	var ok bool
	err := s.view(func(tx *state.Txn) error {
		var err error
		ok, err = s.orchestrator(tx, events.NoopEmitter{}).HasArbitrageOpportunity(tokenA, tokenB, amount, minProfitBps)
		return err
	})
	return ok, err
}

// SuggestPath returns the conversion route between two assets.
func (s *Service) SuggestPath(fromToken, toToken string) swap.Path {
	return swap.SuggestPath(fromToken, toToken)
}

// QuoteFee prices a transfer for the payer, applying any active plan.
func (s *Service) QuoteFee(payer [20]byte, amount *big.Int, isBatch bool, batchSize uint32) (fees.Breakdown, error) {
	var breakdown fees.Breakdown
	err := s.view(func(tx *state.Txn) error {
		plan, _, err := tx.PlanGet(payer)
		if err != nil {
			return err
		}
		breakdown = fees.Quote(fees.DefaultSchedule(), fees.QuoteInput{
			Amount:    amount,
			IsBatch:   isBatch,
			BatchSize: batchSize,
			Plan:      plan,
			Now:       s.nowFn(),
		})
		return nil
	})
	return breakdown, err
}

// EstimateScheduleSavings returns the heuristic saving from delaying a
// transfer by the given number of hours.
func (s *Service) EstimateScheduleSavings(amount *big.Int, hoursDelay uint32) *big.Int {
	return fees.EstimateScheduleSavings(amount, hoursDelay)
}
