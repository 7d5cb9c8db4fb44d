package itch

import "fmt"

// Encode renders a message back into its framed wire image: a 16-bit length
// prefix followed by header and body. Raw enumerated bytes, reserved bytes,
// and tri-state flags are written exactly as decoded.
func Encode(m *Message) []byte {
	body := appendBody(nil, m.Body)
	length := headerSize + len(body)

	out := make([]byte, 0, 2+length)
	out = appendU16(out, uint16(length))
	out = append(out, m.Body.tag())
	out = appendU16(out, m.StockLocate)
	out = appendU16(out, m.TrackingNumber)
	out = appendU48(out, uint64(m.Timestamp))
	return append(out, body...)
}

func appendU16(b []byte, v uint16) []byte {
	return append(b, byte(v>>8), byte(v))
}

func appendU32(b []byte, v uint32) []byte {
	return append(b, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

func appendU48(b []byte, v uint64) []byte {
	return append(b, byte(v>>40), byte(v>>32), byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

func appendU64(b []byte, v uint64) []byte {
	return append(b,
		byte(v>>56), byte(v>>48), byte(v>>40), byte(v>>32),
		byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

func appendBody(out []byte, body Body) []byte {
	switch b := body.(type) {
	case *SystemEvent:
		return append(out, byte(b.Event))
	case *StockDirectory:
		out = append(out, b.Stock[:]...)
		out = append(out, byte(b.MarketCategory), byte(b.FinancialStatus))
		out = appendU32(out, b.RoundLotSize)
		out = append(out, encodeYesNo(b.RoundLotsOnly), byte(b.IssueClassification))
		out = append(out, b.IssueSubType[:]...)
		out = append(out, b.Authenticity, encodeMaybe(b.ShortSaleThreshold), encodeMaybe(b.IpoFlag))
		out = append(out, byte(b.LuldTier), encodeMaybe(b.EtpFlag))
		out = appendU32(out, b.EtpLeverageFactor)
		return append(out, encodeYesNo(b.InverseIndicator))
	case *TradingAction:
		out = append(out, b.Stock[:]...)
		out = append(out, byte(b.State), b.Reserved)
		return append(out, b.Reason[:]...)
	case *RegShoRestriction:
		out = append(out, b.Stock[:]...)
		return append(out, byte(b.Action))
	case *ParticipantPosition:
		out = append(out, b.Mpid[:]...)
		out = append(out, b.Stock[:]...)
		return append(out, encodeYesNo(b.Primary), byte(b.Mode), byte(b.State))
	case *AddOrder:
		out = appendU64(out, b.Reference)
		out = append(out, byte(b.Side))
		out = appendU32(out, b.Shares)
		out = append(out, b.Stock[:]...)
		out = appendU32(out, b.Price.Raw())
		if b.Mpid != nil {
			out = append(out, b.Mpid[:]...)
		}
		return out
	case *OrderExecuted:
		out = appendU64(out, b.Reference)
		out = appendU32(out, b.Executed)
		return appendU64(out, b.MatchNumber)
	case *OrderExecutedWithPrice:
		out = appendU64(out, b.Reference)
		out = appendU32(out, b.Executed)
		out = appendU64(out, b.MatchNumber)
		out = append(out, encodeYesNo(b.Printable))
		return appendU32(out, b.Price.Raw())
	case *OrderCancelled:
		out = appendU64(out, b.Reference)
		return appendU32(out, b.Cancelled)
	case *DeleteOrder:
		return appendU64(out, b.Reference)
	case *ReplaceOrder:
		out = appendU64(out, b.OldReference)
		out = appendU64(out, b.NewReference)
		out = appendU32(out, b.Shares)
		return appendU32(out, b.Price.Raw())
	case *NonCrossTrade:
		out = appendU64(out, b.Reference)
		out = append(out, byte(b.Side))
		out = appendU32(out, b.Shares)
		out = append(out, b.Stock[:]...)
		out = appendU32(out, b.Price.Raw())
		return appendU64(out, b.MatchNumber)
	case *CrossTrade:
		out = appendU64(out, b.Shares)
		out = append(out, b.Stock[:]...)
		out = appendU32(out, b.CrossPrice.Raw())
		out = appendU64(out, b.MatchNumber)
		return append(out, byte(b.CrossType))
	case *BrokenTrade:
		return appendU64(out, b.MatchNumber)
	case *Imbalance:
		out = appendU64(out, b.PairedShares)
		out = appendU64(out, b.ImbalanceShares)
		out = append(out, byte(b.Direction))
		out = append(out, b.Stock[:]...)
		out = appendU32(out, b.FarPrice.Raw())
		out = appendU32(out, b.NearPrice.Raw())
		out = appendU32(out, b.CurrentRefPrice.Raw())
		return append(out, byte(b.CrossType), b.PriceVariation)
	case *Rpii:
		out = append(out, b.Stock[:]...)
		return append(out, byte(b.Interest))
	case *IpoQuotingPeriod:
		out = append(out, b.Stock[:]...)
		out = appendU32(out, b.ReleaseTime)
		out = append(out, byte(b.Qualifier))
		return appendU32(out, b.Price.Raw())
	case *LuldAuctionCollar:
		out = append(out, b.Stock[:]...)
		out = appendU32(out, b.RefPrice.Raw())
		out = appendU32(out, b.Upper.Raw())
		out = appendU32(out, b.Lower.Raw())
		return appendU32(out, b.Extension)
	case *MwcbDeclineLevel:
		out = appendU64(out, b.Level1.Raw())
		out = appendU64(out, b.Level2.Raw())
		return appendU64(out, b.Level3.Raw())
	case *MwcbBreach:
		return append(out, byte(b.Level))
	}
	panic(fmt.Sprintf("ENCODE_UNKNOWN_BODY: %T", body))
}
