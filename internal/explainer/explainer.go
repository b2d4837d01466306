package explainer

import (
	"fmt"
	"math"
	"strings"

	"crypto-mentor-bot/internal/market"
	"crypto-mentor-bot/internal/strategy"
)

// Setup summarizes the trade plan attached to an entry.
type Setup struct {
	Entry      float64 `json:"entry"`
	StopLoss   float64 `json:"stop_loss"`
	TakeProfit float64 `json:"take_profit"`
	RiskReward float64 `json:"risk_reward"`
}

// EntryExplanation is the mentor's write-up for a newly opened trade.
type EntryExplanation struct {
	FullText        string           `json:"full_text"`
	Header          string           `json:"header"`
	Reasons         []string         `json:"reasons"`
	LearningPoints  []string         `json:"learning_points"`
	Setup           Setup            `json:"setup"`
	Strategy        string           `json:"strategy"`
	ConfluenceScore int              `json:"confluence_score"`
	Indicators      *market.Snapshot `json:"indicators,omitempty"`
}

// ExitAnalysis is the mentor's post-trade review for a closed trade.
type ExitAnalysis struct {
	FullText       string   `json:"full_text"`
	ResultSummary  string   `json:"result_summary"`
	WhatWentRight  []string `json:"what_went_right"`
	WhatWentWrong  []string `json:"what_went_wrong"`
	Improvements   []string `json:"improvements"`
	Lesson         string   `json:"lesson"`
	Won            bool     `json:"won"`
	HitTakeProfit  bool     `json:"hit_take_profit"`
	HitStopLoss    bool     `json:"hit_stop_loss"`
}

// GenerateEntryExplanation builds the full teaching write-up for a signal
// that is about to become a trade.
func GenerateEntryExplanation(sig *strategy.Signal) *EntryExplanation {
	header := formatHeader(sig)
	sections := []string{
		header,
		formatReasons(sig),
		formatConfluence(sig),
		formatSetup(sig),
		"STRATEGY: " + sig.Strategy,
	}
	if learning := formatLearning(sig); learning != "" {
		sections = append(sections, learning)
	}

	return &EntryExplanation{
		FullText:        strings.Join(sections, "\n\n"),
		Header:          header,
		Reasons:         sig.Reasons,
		LearningPoints:  sig.LearningPoints,
		Setup: Setup{
			Entry:      sig.Price,
			StopLoss:   sig.StopLoss,
			TakeProfit: sig.TakeProfit,
			RiskReward: sig.RiskReward,
		},
		Strategy:        sig.Strategy,
		ConfluenceScore: sig.Confidence,
		Indicators:      sig.Indicators,
	}
}

// GenerateExitExplanation builds the post-trade review: what happened, what
// worked, what didn't, and the lesson to take away.
func GenerateExitExplanation(sig *strategy.Signal, exitPrice, pnl, pnlPercent float64) *ExitAnalysis {
	won := pnl > 0
	hitTP := sig.TakeProfit > 0 &&
		((sig.Action == strategy.ActionBuy && exitPrice >= sig.TakeProfit) ||
			(sig.Action == strategy.ActionSell && exitPrice <= sig.TakeProfit))
	hitSL := sig.StopLoss > 0 &&
		((sig.Action == strategy.ActionBuy && exitPrice <= sig.StopLoss) ||
			(sig.Action == strategy.ActionSell && exitPrice >= sig.StopLoss))

	outcome := "LOSS"
	if won {
		outcome = "PROFIT"
	}
	result := fmt.Sprintf("TRADE RESULT: %+.2f%% ($%.2f)\n%s | Entry: $%v -> Exit: $%v",
		pnlPercent, pnl, outcome, sig.Price, exitPrice)

	var happened []string
	switch {
	case hitTP:
		happened = append(happened, "Price hit the take profit level. The trade played out exactly according to plan.")
	case hitSL:
		happened = append(happened, "Price hit the stop loss. The market moved against the position.")
	case won:
		happened = append(happened, "The trade was closed in profit before reaching the take profit.")
	default:
		happened = append(happened, "The trade was closed at a loss.")
	}

	var right, wrong, improvements []string
	if won {
		right = append(right, "The analysis was correct. The market moved in the predicted direction.")
		if hitTP {
			right = append(right, "The take profit level was well placed.")
		}
		if sig.Confidence >= 4 {
			right = append(right, "This was a high-confluence trade, and high confluence means a higher win rate.")
		}
	} else {
		wrong = append(wrong, "The market did not follow the analysis this time.")
		if hitSL {
			wrong = append(wrong,
				"The stop loss was hit, but that is NOT a mistake. The stop loss exists to protect your capital. Without it, the loss could have been far bigger.")
		}
		if sig.Confidence <= 2 {
			wrong = append(wrong,
				"This was a low-confluence trade, and low-confluence setups carry higher risk. Next time, consider waiting for more confirmation.")
		}
	}

	if won && pnlPercent < 1 {
		improvements = append(improvements,
			"The profit was small. Consider a wider take profit, or holding longer when the trend is strong.")
	}
	if !won && math.Abs(pnlPercent) > 2 {
		improvements = append(improvements,
			"The loss was on the large side. Consider a tighter stop loss or a smaller position size.")
	}
	if !won {
		improvements = append(improvements,
			"Review the chart again. What was the market saying that the analysis missed?")
	}

	var lesson string
	if won {
		lesson = fmt.Sprintf(
			"This trade worked because %d confluences agreed. LESSON: patience plus confluence equals profitable trading. You do not need to trade every signal, only the quality ones.",
			sig.Confidence)
	} else {
		lesson = "This trade did not work out, and that is fine. In trading, a loss is tuition. What matters: (1) the stop loss protected your capital, (2) one loss does not mean the strategy is broken, judge it over 20-50 trades, (3) review, improve, and do not give up."
	}

	var b strings.Builder
	b.WriteString("TRADE RESULT\n")
	b.WriteString(strings.Repeat("=", 40) + "\n")
	b.WriteString(result + "\n\n")
	b.WriteString("WHAT HAPPENED:\n" + bulletList("- ", happened))
	if len(right) > 0 {
		b.WriteString("\nWHAT WENT RIGHT:\n" + bulletList("+ ", right))
	}
	if len(wrong) > 0 {
		b.WriteString("\nWHAT WENT WRONG:\n" + bulletList("- ", wrong))
	}
	if len(improvements) > 0 {
		b.WriteString("\nROOM TO IMPROVE:\n" + bulletList("* ", improvements))
	}
	b.WriteString("\nLESSON:\n" + lesson)

	return &ExitAnalysis{
		FullText:      b.String(),
		ResultSummary: result,
		WhatWentRight: right,
		WhatWentWrong: wrong,
		Improvements:  improvements,
		Lesson:        lesson,
		Won:           won,
		HitTakeProfit: hitTP,
		HitStopLoss:   hitSL,
	}
}

func formatHeader(sig *strategy.Signal) string {
	return fmt.Sprintf("%s %s @ $%v\nTimeframe: %s | Confidence: %d/5",
		sig.Action, sig.Pair, sig.Price, sig.Timeframe, sig.Confidence)
}

func formatReasons(sig *strategy.Signal) string {
	lines := []string{fmt.Sprintf("WHY I %s:", sig.Action)}
	for i, reason := range sig.Reasons {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, reason))
	}
	return strings.Join(lines, "\n")
}

func formatConfluence(sig *strategy.Signal) string {
	labels := map[int]string{1: "Weak", 2: "Moderate", 3: "Strong", 4: "Very Strong", 5: "Extreme"}
	label, ok := labels[sig.Confidence]
	if !ok {
		label = "Unknown"
	}
	filled := sig.Confidence
	if filled < 0 {
		filled = 0
	}
	if filled > 5 {
		filled = 5
	}
	bar := strings.Repeat("#", filled) + strings.Repeat(".", 5-filled)
	return fmt.Sprintf("CONFLUENCE SCORE: [%s] %d/5 (%s)", bar, sig.Confidence, label)
}

func formatSetup(sig *strategy.Signal) string {
	lines := []string{"SETUP:", fmt.Sprintf("  Entry: $%v", sig.Price)}

	slLine := fmt.Sprintf("  Stop Loss: $%v", sig.StopLoss)
	if sig.StopLoss > 0 && sig.Price > 0 {
		pct := math.Abs(sig.Price-sig.StopLoss) / sig.Price * 100
		sign := "-"
		if sig.Action == strategy.ActionSell {
			sign = "+"
		}
		slLine += fmt.Sprintf(" (%s%.2f%%)", sign, pct)
	}
	lines = append(lines, slLine)

	tpLine := fmt.Sprintf("  Take Profit: $%v", sig.TakeProfit)
	if sig.TakeProfit > 0 && sig.Price > 0 {
		pct := math.Abs(sig.TakeProfit-sig.Price) / sig.Price * 100
		sign := "+"
		if sig.Action == strategy.ActionSell {
			sign = "-"
		}
		tpLine += fmt.Sprintf(" (%s%.2f%%)", sign, pct)
	}
	lines = append(lines, tpLine)

	if sig.RiskReward > 0 {
		lines = append(lines, fmt.Sprintf("  Risk:Reward = 1:%.2f", sig.RiskReward))
	}
	return strings.Join(lines, "\n")
}

func formatLearning(sig *strategy.Signal) string {
	if len(sig.LearningPoints) == 0 {
		return ""
	}
	lines := []string{"WHAT YOU CAN LEARN:"}
	for _, point := range sig.LearningPoints {
		lines = append(lines, "  - "+point)
	}
	return strings.Join(lines, "\n")
}

func bulletList(prefix string, items []string) string {
	var b strings.Builder
	for _, item := range items {
		b.WriteString(prefix + item + "\n")
	}
	return b.String()
}
