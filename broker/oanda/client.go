// Package oanda implements the broker gateway against OANDA's v3 REST
// API. Only the endpoints the engine needs are wired: pricing, market
// order creation with bracket legs, trade stop modification and trade
// close.
package oanda

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rustyeddy/fxengine/broker"
	"github.com/rustyeddy/fxengine/market"
	"github.com/rustyeddy/fxengine/order"
)

type Client struct {
	cfg  Config
	http *http.Client
}

var _ broker.Gateway = (*Client)(nil)

func NewClient(cfg Config) *Client {
	return &Client{
		cfg: cfg,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) do(ctx context.Context, method, path string, query map[string]string, body any) ([]byte, int, error) {
	u, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return nil, 0, err
	}
	u.Path = path
	if len(query) > 0 {
		q := u.Query()
		for k, v := range query {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, 0, err
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return b, resp.StatusCode, nil
}

// pricing response

type apiPrice struct {
	Instrument string `json:"instrument"`
	Time       string `json:"time"`
	Bids       []struct {
		Price string `json:"price"`
	} `json:"bids"`
	Asks []struct {
		Price string `json:"price"`
	} `json:"asks"`
}

func (c *Client) GetTick(ctx context.Context, instrument string) (market.Tick, error) {
	path := fmt.Sprintf("/v3/accounts/%s/pricing", c.cfg.AccountID)
	b, status, err := c.do(ctx, http.MethodGet, path, map[string]string{"instruments": instrument}, nil)
	if err != nil {
		return market.Tick{}, &broker.GatewayError{Op: "getTick", Err: err}
	}
	if status != http.StatusOK {
		return market.Tick{}, &broker.GatewayError{Op: "getTick", Err: httpError(status, b)}
	}

	var out struct {
		Prices []apiPrice `json:"prices"`
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return market.Tick{}, &broker.GatewayError{Op: "getTick", Err: err}
	}
	if len(out.Prices) == 0 || len(out.Prices[0].Bids) == 0 || len(out.Prices[0].Asks) == 0 {
		return market.Tick{}, broker.ErrQuoteUnavailable
	}

	p := out.Prices[0]
	bid, err1 := strconv.ParseFloat(p.Bids[0].Price, 64)
	ask, err2 := strconv.ParseFloat(p.Asks[0].Price, 64)
	if err1 != nil || err2 != nil {
		return market.Tick{}, &broker.GatewayError{Op: "getTick", Err: fmt.Errorf("bad price in %q", string(b))}
	}
	ts, _ := time.Parse(time.RFC3339Nano, p.Time)

	return market.Tick{
		Instrument: p.Instrument,
		Time:       ts,
		Bid:        bid,
		Ask:        ask,
	}, nil
}

// order create request/response

type onFill struct {
	Price       string `json:"price"`
	TimeInForce string `json:"timeInForce"`
}

type marketOrder struct {
	Type             string `json:"type"`
	Instrument       string `json:"instrument"`
	Units            string `json:"units"`
	TimeInForce      string `json:"timeInForce"`
	PositionFill     string `json:"positionFill"`
	StopLossOnFill   onFill `json:"stopLossOnFill"`
	TakeProfitOnFill onFill `json:"takeProfitOnFill"`
}

func (c *Client) SubmitOrder(ctx context.Context, req order.Request) (broker.Fill, error) {
	prec := 5
	if inst, err := market.Lookup(req.Instrument); err == nil {
		prec = inst.DisplayPrecision
	}

	body := struct {
		Order marketOrder `json:"order"`
	}{
		Order: marketOrder{
			Type:         "MARKET",
			Instrument:   req.Instrument,
			Units:        strconv.Itoa(req.Units),
			TimeInForce:  string(req.EntryTIF),
			PositionFill: "DEFAULT",
			StopLossOnFill: onFill{
				Price:       strconv.FormatFloat(req.StopLoss.Price, 'f', prec, 64),
				TimeInForce: string(req.StopLoss.TimeInForce),
			},
			TakeProfitOnFill: onFill{
				Price:       strconv.FormatFloat(req.TakeProfit.Price, 'f', prec, 64),
				TimeInForce: string(req.TakeProfit.TimeInForce),
			},
		},
	}

	path := fmt.Sprintf("/v3/accounts/%s/orders", c.cfg.AccountID)
	b, status, err := c.do(ctx, http.MethodPost, path, nil, body)
	if err != nil {
		return broker.Fill{}, &broker.GatewayError{Op: "submitOrder", Err: err}
	}
	if status != http.StatusCreated && status != http.StatusOK {
		return broker.Fill{}, &broker.GatewayError{Op: "submitOrder", Err: httpError(status, b)}
	}

	var out struct {
		OrderFillTransaction *struct {
			Price       string `json:"price"`
			Time        string `json:"time"`
			TradeOpened *struct {
				TradeID string `json:"tradeID"`
				Units   string `json:"units"`
			} `json:"tradeOpened"`
		} `json:"orderFillTransaction"`
		OrderCancelTransaction *struct {
			Reason string `json:"reason"`
		} `json:"orderCancelTransaction"`
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return broker.Fill{}, &broker.GatewayError{Op: "submitOrder", Err: err}
	}

	if out.OrderCancelTransaction != nil {
		return broker.Fill{}, &broker.RejectedError{Reason: out.OrderCancelTransaction.Reason}
	}
	if out.OrderFillTransaction == nil || out.OrderFillTransaction.TradeOpened == nil {
		return broker.Fill{}, &broker.RejectedError{Reason: "order did not open a trade"}
	}

	fill := out.OrderFillTransaction
	price, _ := strconv.ParseFloat(fill.Price, 64)
	units, _ := strconv.Atoi(strings.TrimSuffix(fill.TradeOpened.Units, ".0"))
	ts, _ := time.Parse(time.RFC3339Nano, fill.Time)

	return broker.Fill{
		TradeID:    fill.TradeOpened.TradeID,
		Instrument: req.Instrument,
		Units:      units,
		Price:      price,
		Time:       ts,
	}, nil
}

func (c *Client) ModifyTradeStop(ctx context.Context, tradeID string, stopPrice float64) error {
	// The trade's instrument is not known here, so format with the
	// fewest digits that round-trip; the price was already rounded to
	// the instrument's precision upstream.
	body := struct {
		StopLoss onFill `json:"stopLoss"`
	}{
		StopLoss: onFill{
			Price:       strconv.FormatFloat(stopPrice, 'f', -1, 64),
			TimeInForce: string(order.GTC),
		},
	}

	path := fmt.Sprintf("/v3/accounts/%s/trades/%s/orders", c.cfg.AccountID, tradeID)
	b, status, err := c.do(ctx, http.MethodPut, path, nil, body)
	if err != nil {
		return &broker.GatewayError{Op: "modifyTradeStop", Err: err}
	}
	if status != http.StatusOK {
		return &broker.GatewayError{Op: "modifyTradeStop", Err: httpError(status, b)}
	}
	return nil
}

func (c *Client) CloseTrade(ctx context.Context, tradeID string) error {
	body := struct {
		Units string `json:"units"`
	}{Units: "ALL"}

	path := fmt.Sprintf("/v3/accounts/%s/trades/%s/close", c.cfg.AccountID, tradeID)
	b, status, err := c.do(ctx, http.MethodPut, path, nil, body)
	if err != nil {
		return &broker.GatewayError{Op: "closeTrade", Err: err}
	}
	if status != http.StatusOK {
		return &broker.GatewayError{Op: "closeTrade", Err: httpError(status, b)}
	}
	return nil
}

func httpError(status int, body []byte) error {
	return fmt.Errorf("http %d: %s", status, strings.TrimSpace(string(body)))
}
