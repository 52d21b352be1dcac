package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrDecode is returned when an inbound frame is not valid JSON
var ErrDecode = errors.New("decode inbound frame")

type MessageKind int

const (
	KindUnrecognized MessageKind = iota
	KindSnapshot
	KindErrorNotice
)

func (k MessageKind) String() string {
	switch k {
	case KindSnapshot:
		return "snapshot"
	case KindErrorNotice:
		return "error_notice"
	default:
		return "unrecognized"
	}
}

// Message is a decoded inbound frame
type Message struct {
	Kind   MessageKind
	Stocks []StockRecord // KindSnapshot
	Error  string        // KindErrorNotice
}

type wireStock struct {
	Ticker              string   `json:"ticker"`
	Price               *float64 `json:"price"`
	LatestIntradayPrice *float64 `json:"latest_intraday_price"`
	ChangePercent       *float64 `json:"change_percent"`
	Direction           *string  `json:"direction"`
}

// DecodeMessage parses a raw text frame.
//
//	{"stocks":[{...}, ...]}      -> KindSnapshot
//	{"ticker":"AAPL","price":1}  -> KindSnapshot with one record (legacy feed)
//	{"error":"..."}              -> KindErrorNotice
//	any other JSON               -> KindUnrecognized
//
// Invalid JSON returns an error wrapping ErrDecode.
func DecodeMessage(raw []byte) (Message, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		if json.Valid(raw) {
			// well-formed, but not an object
			return Message{Kind: KindUnrecognized}, nil
		}
		return Message{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	if rs, ok := obj["stocks"]; ok {
		var items []json.RawMessage
		if err := json.Unmarshal(rs, &items); err == nil && items != nil {
			return Message{Kind: KindSnapshot, Stocks: decodeRecords(items)}, nil
		}
	}

	if re, ok := obj["error"]; ok {
		var s *string
		if err := json.Unmarshal(re, &s); err == nil && s != nil {
			return Message{Kind: KindErrorNotice, Error: *s}, nil
		}
	}

	// 早期版本的推送：单条 {"ticker":..., "price":...}
	if _, ok := obj["ticker"]; ok {
		if rec, ok := decodeRecord(raw); ok {
			return Message{Kind: KindSnapshot, Stocks: []StockRecord{rec}}, nil
		}
	}

	return Message{Kind: KindUnrecognized}, nil
}

func decodeRecords(items []json.RawMessage) []StockRecord {
	out := make([]StockRecord, 0, len(items))
	for _, it := range items {
		if rec, ok := decodeRecord(it); ok {
			out = append(out, rec)
		}
	}
	return out
}

// decodeRecord drops records without a ticker or without any price field
func decodeRecord(b []byte) (StockRecord, bool) {
	var w wireStock
	if err := json.Unmarshal(b, &w); err != nil {
		return StockRecord{}, false
	}
	t := NormalizeTicker(w.Ticker)
	if t.IsZero() {
		return StockRecord{}, false
	}

	price := w.Price
	if price == nil {
		price = w.LatestIntradayPrice
	}
	if price == nil {
		return StockRecord{}, false
	}

	rec := StockRecord{
		Ticker:        t,
		Price:         *price,
		ChangePercent: w.ChangePercent,
	}
	if w.Direction != nil {
		if d, ok := ParseDirection(*w.Direction); ok {
			rec.Direction = &d
		}
	}
	return rec, true
}
