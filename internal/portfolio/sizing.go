package portfolio

import (
	"fmt"
	"math"

	"github.com/holiuunc/etf-justification-engine/internal/domain"
)

// sizeTrade converts a target weight into whole-share terms against the
// current position. Share counts are floored so a target weight is never
// overshot by a fractional share rounded up.
func sizeTrade(snap domain.Snapshot, symbol string, price, targetWeight float64) domain.AllocationDetail {
	detail := domain.AllocationDetail{
		CurrentWeight: snap.Weight(symbol),
		TargetWeight:  targetWeight,
	}
	detail.WeightChange = detail.TargetWeight - detail.CurrentWeight

	if pos, ok := snap.Positions[symbol]; ok {
		detail.SharesCurrent = pos.Shares
	}
	if price > 0 && snap.TotalValue > 0 {
		detail.SharesTarget = int64(math.Floor(targetWeight * snap.TotalValue / price))
	}
	detail.SharesToTrade = detail.SharesTarget - detail.SharesCurrent
	return detail
}

// tradeCost estimates the execution cost of a sized trade. Commission is a
// flat amount per executed trade; a HOLD carries none. Total cost is cash
// out the door for buys and net proceeds for sells.
func tradeCost(action domain.Action, detail domain.AllocationDetail, price, commission float64) domain.TradeCost {
	cost := domain.TradeCost{Price: price}
	if !action.IsTrade() || detail.SharesToTrade == 0 {
		return cost
	}

	shares := detail.SharesToTrade
	if shares < 0 {
		shares = -shares
	}
	cost.GrossAmount = float64(shares) * price
	cost.Commission = commission
	if detail.SharesToTrade > 0 {
		cost.TotalCost = cost.GrossAmount + commission
	} else {
		cost.TotalCost = cost.GrossAmount - commission
	}
	return cost
}

// belowMinimum reports whether a sized trade is too small to be worth its
// commission, with the note explaining the forced HOLD.
func belowMinimum(detail domain.AllocationDetail, price, minTradeSize float64) (bool, string) {
	if detail.SharesToTrade == 0 {
		return true, "target already met at whole-share resolution"
	}
	shares := detail.SharesToTrade
	if shares < 0 {
		shares = -shares
	}
	gross := float64(shares) * price
	if gross < minTradeSize {
		return true, fmt.Sprintf("trade value $%.2f is below the $%.0f minimum", gross, minTradeSize)
	}
	return false, ""
}
