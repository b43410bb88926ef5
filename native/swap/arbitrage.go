package swap

import (
	"fmt"
	"math/big"

	"remitledger/native/common"
)

// The arbitrage helpers are a thin composition over the swap primitive plus a
// profit floor; there is no separate engine behind them.

// ExecuteArbitrage round-trips the executor's funds through one venue hop and
// returns the profit in the output asset. The call aborts when profit falls
// below minProfit.
func (o *Orchestrator) ExecuteArbitrage(executor [20]byte, tokenA, tokenB string, amount, minProfit *big.Int) (*big.Int, error) {
	if err := o.ready(); err != nil {
		return nil, err
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, fmt.Errorf("swap: amount must be positive: %w", common.ErrInvalid)
	}
	if minProfit == nil || minProfit.Sign() < 0 {
		return nil, fmt.Errorf("swap: minimum profit must be non-negative: %w", common.ErrInvalid)
	}
	src, err := common.NormalizeToken(tokenA)
	if err != nil {
		return nil, err
	}
	dst, err := common.NormalizeToken(tokenB)
	if err != nil {
		return nil, err
	}
	vault := o.state.CustodyAddress()
	if err := o.custody.Transfer(src, executor, vault, amount); err != nil {
		return nil, err
	}
	output, err := o.direct(src, dst, amount, minProfit)
	if err != nil {
		return nil, err
	}
	profit := new(big.Int).Sub(output, amount)
	if profit.Cmp(minProfit) < 0 {
		return nil, fmt.Errorf("swap: arbitrage profit %s below floor %s: %w", profit, minProfit, common.ErrSlippage)
	}
	if err := o.custody.Transfer(dst, vault, executor, output); err != nil {
		return nil, err
	}
	return profit, nil
}

// ExecuteCycleArbitrage swaps along a cyclic path (first and last asset must
// match, at least three entries) and returns the profit in the starting
// asset. Intermediate hops run with a zero floor; only the final profit check
// guards the result.
func (o *Orchestrator) ExecuteCycleArbitrage(executor [20]byte, path []string, amount, minProfit *big.Int) (*big.Int, error) {
	if err := o.ready(); err != nil {
		return nil, err
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, fmt.Errorf("swap: amount must be positive: %w", common.ErrInvalid)
	}
	if len(path) < 3 {
		return nil, fmt.Errorf("swap: cycle needs at least 3 assets: %w", common.ErrInvalid)
	}
	route := make([]string, 0, len(path))
	for _, hop := range path {
		normalized, err := common.NormalizeToken(hop)
		if err != nil {
			return nil, err
		}
		route = append(route, normalized)
	}
	if route[0] != route[len(route)-1] {
		return nil, fmt.Errorf("swap: path must close the cycle: %w", common.ErrInvalid)
	}
	start := route[0]
	vault := o.state.CustodyAddress()
	if err := o.custody.Transfer(start, executor, vault, amount); err != nil {
		return nil, err
	}
	output, err := o.multiHop(start, start, amount, big.NewInt(0), route[1:len(route)-1])
	if err != nil {
		return nil, err
	}
	profit := new(big.Int).Sub(output, amount)
	if profit.Cmp(minProfit) < 0 {
		return nil, fmt.Errorf("swap: arbitrage profit %s below floor %s: %w", profit, minProfit, common.ErrSlippage)
	}
	if err := o.custody.Transfer(start, vault, executor, output); err != nil {
		return nil, err
	}
	return profit, nil
}

// EstimateArbitrageProfit previews the profit of a single-hop round trip
// without moving funds. The result may be negative.
func (o *Orchestrator) EstimateArbitrageProfit(tokenA, tokenB string, amount *big.Int) (*big.Int, error) {
	output, err := o.EstimateOutput(tokenA, tokenB, amount)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Sub(output, amount), nil
}

// HasArbitrageOpportunity reports whether the estimated profit clears the
// given basis-point floor on the input amount.
func (o *Orchestrator) HasArbitrageOpportunity(tokenA, tokenB string, amount *big.Int, minProfitBps uint32) (bool, error) {
	profit, err := o.EstimateArbitrageProfit(tokenA, tokenB, amount)
	if err != nil {
		return false, err
	}
	floor := new(big.Int).Mul(amount, big.NewInt(int64(minProfitBps)))
	floor.Div(floor, big.NewInt(10_000))
	return profit.Cmp(floor) >= 0, nil
}
