package sbisec

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"sbisec-trading-bot/internal/page"
)

const (
	orderFormName   = "FORM"
	limitInSelect   = "limit_in"
	orderResultExpr = "/html/body/div/table/tbody/tr"
)

// sellOrderFields is the spot-sell order form as a limit order, valid for
// the day, on the firm's preferred market, skipping the confirmation page.
func sellOrderFields(code string, quantity int, price, tradePassword string) map[string]string {
	return map[string]string{
		// 0 spot buy, 1 spot sell, 2 margin buy, 3 margin sell
		"trade_kbn":      "1",
		"stock_sec_code": code,
		// three spaces: firm preferred market / SOR
		"input_market":   "   ",
		"input_quantity": strconv.Itoa(quantity),
		// " " limit, "N" market, "G" stop
		"in_sasinari_kbn":    " ",
		"sasine_condition":   " ",
		"nariyuki_condition": "N",

		// stop order leg, unused
		"input_trigger_price":    "",
		"input_trigger_zone":     "1",
		"gsn_sasinari_kbn":       " ",
		"gsn_sasine_condition":   " ",
		"gsn_input_price":        "",
		"gsn_nariyuki_condition": "N",

		"input_price":       price,
		"selected_limit_in": "this_day",
		// 0 specific account, 1 general account
		"hitokutei_trade_kbn": "0",
		// 6 standardized margin
		"payment_limit": "6",
		"trade_pwd":     tradePassword,
		"skip_estimate": "on",
		"ACT_place":     "注文発注",
	}
}

// orderFields merges the caller's order fields into the trading page's form:
// the first expiry option is selected and the page's own submit buttons are
// dropped so only ACT_place triggers.
func orderFields(form *page.Form, limitOptions []string, overrides map[string]string) map[string]string {
	if len(limitOptions) > 0 {
		form.Fields[limitInSelect] = limitOptions[0]
	}
	form.Remove("ACT_estimate", "ACT_order")
	form.Merge(overrides)
	return form.Values()
}

// PlaceSellOrder submits a spot sell limit order. Calling it twice places
// two orders.
func (s *Session) PlaceSellOrder(ctx context.Context, code string, quantity int, price string) (*page.Document, error) {
	return s.submitOrder(ctx, sellOrderFields(code, quantity, price, s.client.opts.TradePassword))
}

func (s *Session) submitOrder(ctx context.Context, fields map[string]string) (*page.Document, error) {
	trading, err := s.NavigateByAlt(ctx, AltTrade)
	if err != nil {
		return nil, fmt.Errorf("order: open trading page: %w", err)
	}

	form, err := page.ExtractForm(trading, orderFormName)
	if err != nil {
		return nil, fmt.Errorf("order: %w", err)
	}
	options, err := page.SelectOptions(trading, limitInSelect)
	if err != nil {
		return nil, fmt.Errorf("order: %w", err)
	}

	if err := s.client.pause(ctx); err != nil {
		return nil, err
	}
	result, err := s.client.post(ctx, s.client.tradeURL.String(), orderFields(form, options, fields))
	if err != nil {
		return nil, fmt.Errorf("order: submit: %w", err)
	}
	return result, nil
}

// OrderMessage is the text of the result box on the page answering an order,
// split into words.
func OrderMessage(doc *page.Document) ([]string, error) {
	node, err := doc.First(orderResultExpr)
	if err != nil {
		return nil, err
	}
	return strings.Fields(page.CellText(node)), nil
}
