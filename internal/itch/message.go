package itch

import (
	"github.com/saadzaki7/NASDAQ-SIMULATOR/pkg/quant"
)

// Message tags, one byte on the wire.
const (
	TagSystemEvent            = 'S'
	TagStockDirectory         = 'R'
	TagTradingAction          = 'H'
	TagRegSho                 = 'Y'
	TagParticipantPosition    = 'L'
	TagAddOrder               = 'A'
	TagAddOrderMpid           = 'F'
	TagOrderExecuted          = 'E'
	TagOrderExecutedWithPrice = 'C'
	TagOrderCancelled         = 'X'
	TagDeleteOrder            = 'D'
	TagReplaceOrder           = 'U'
	TagNonCrossTrade          = 'P'
	TagCrossTrade             = 'Q'
	TagBrokenTrade            = 'B'
	TagImbalance              = 'I'
	TagRpii                   = 'N'
	TagIpoQuotingPeriod       = 'K'
	TagLuldAuctionCollar      = 'J'
	TagMwcbDeclineLevel       = 'V'
	TagMwcbBreach             = 'W'
)

// headerSize is tag + stock locate + tracking number + timestamp.
const headerSize = 11

// bodySizes gives the exact body length per tag. Frames whose length prefix
// disagrees are rejected without decoding the body.
var bodySizes = map[byte]int{
	TagSystemEvent:            1,
	TagStockDirectory:         28,
	TagTradingAction:          14,
	TagRegSho:                 9,
	TagParticipantPosition:    15,
	TagAddOrder:               25,
	TagAddOrderMpid:           29,
	TagOrderExecuted:          20,
	TagOrderExecutedWithPrice: 25,
	TagOrderCancelled:         12,
	TagDeleteOrder:            8,
	TagReplaceOrder:           24,
	TagNonCrossTrade:          33,
	TagCrossTrade:             29,
	TagBrokenTrade:            8,
	TagImbalance:              39,
	TagRpii:                   9,
	TagIpoQuotingPeriod:       17,
	TagLuldAuctionCollar:      24,
	TagMwcbDeclineLevel:       24,
	TagMwcbBreach:             1,
}

// Body is the closed set of message payloads. Each variant reports the tag
// it travels under; AddOrder reports 'A' or 'F' depending on attribution.
type Body interface {
	tag() byte
}

// Message is one framed ITCH record: the common header plus a body variant.
type Message struct {
	Tag            byte
	StockLocate    uint16
	TrackingNumber uint16
	Timestamp      quant.Timestamp
	Body           Body
}

// SystemEvent marks session boundaries.
type SystemEvent struct {
	Event EventCode
}

// StockDirectory describes one listed issue. Raw bytes are kept for fields
// that do not map cleanly onto booleans (Authenticity is 'P' for live,
// anything else test) so re-encoding is exact.
type StockDirectory struct {
	Stock              Stock
	MarketCategory     MarketCategory
	FinancialStatus    FinancialStatus
	RoundLotSize       uint32
	RoundLotsOnly      bool
	IssueClassification IssueClassification
	IssueSubType       IssueSubType
	Authenticity       byte
	ShortSaleThreshold *bool
	IpoFlag            *bool
	LuldTier           LuldTier
	EtpFlag            *bool
	EtpLeverageFactor  uint32
	InverseIndicator   bool
}

// Live reports whether the issue is marked production ('P') rather than test.
func (d *StockDirectory) Live() bool { return d.Authenticity == 'P' }

// TradingAction reports a halt/resume state change. The reserved byte is
// preserved verbatim.
type TradingAction struct {
	Stock    Stock
	State    TradingState
	Reserved byte
	Reason   Alpha4
}

// RegShoRestriction flags a short-sale price test restriction.
type RegShoRestriction struct {
	Stock  Stock
	Action RegShoAction
}

// ParticipantPosition describes a market participant's role in an issue.
type ParticipantPosition struct {
	Mpid    Alpha4
	Stock   Stock
	Primary bool
	Mode    MarketMakerMode
	State   ParticipantState
}

// AddOrder introduces a resting order. Attribution is present only on 'F'
// frames.
type AddOrder struct {
	Reference uint64
	Side      Side
	Shares    uint32
	Stock     Stock
	Price     quant.Price4
	Mpid      *Alpha4
}

// OrderExecuted reports shares matched against a resting order.
type OrderExecuted struct {
	Reference   uint64
	Executed    uint32
	MatchNumber uint64
}

// OrderExecutedWithPrice is an execution at a price different from the
// resting order's display price. The book is mutated at the order's price;
// the trade price feeds statistics only.
type OrderExecutedWithPrice struct {
	Reference   uint64
	Executed    uint32
	MatchNumber uint64
	Printable   bool
	Price       quant.Price4
}

// OrderCancelled removes part of a resting order.
type OrderCancelled struct {
	Reference uint64
	Cancelled uint32
}

// DeleteOrder removes a resting order entirely.
type DeleteOrder struct {
	Reference uint64
}

// ReplaceOrder retires the old reference and introduces the new one
// atomically, inheriting side, symbol and timestamp from the original.
type ReplaceOrder struct {
	OldReference uint64
	NewReference uint64
	Shares       uint32
	Price        quant.Price4
}

// NonCrossTrade reports a match against non-displayed liquidity. It does not
// mutate the book.
type NonCrossTrade struct {
	Reference   uint64
	Side        Side
	Shares      uint32
	Stock       Stock
	Price       quant.Price4
	MatchNumber uint64
}

// CrossTrade summarizes an auction match. It does not mutate the book.
type CrossTrade struct {
	Shares      uint64
	Stock       Stock
	CrossPrice  quant.Price4
	MatchNumber uint64
	CrossType   CrossType
}

// BrokenTrade voids a previously reported match.
type BrokenTrade struct {
	MatchNumber uint64
}

// Imbalance is the net order imbalance indicator published ahead of crosses.
// PriceVariation keeps its raw character; the code space is open-ended.
type Imbalance struct {
	PairedShares    uint64
	ImbalanceShares uint64
	Direction       ImbalanceDirection
	Stock           Stock
	FarPrice        quant.Price4
	NearPrice       quant.Price4
	CurrentRefPrice quant.Price4
	CrossType       CrossType
	PriceVariation  byte
}

// Rpii flags available retail price improvement interest.
type Rpii struct {
	Stock    Stock
	Interest InterestFlag
}

// IpoQuotingPeriod announces or cancels an IPO release.
type IpoQuotingPeriod struct {
	Stock       Stock
	ReleaseTime uint32
	Qualifier   IpoQualifier
	Price       quant.Price4
}

// LuldAuctionCollar publishes the collar around a reopening auction.
type LuldAuctionCollar struct {
	Stock     Stock
	RefPrice  quant.Price4
	Upper     quant.Price4
	Lower     quant.Price4
	Extension uint32
}

// MwcbDeclineLevel publishes the S&P decline levels, as Price8.
type MwcbDeclineLevel struct {
	Level1 quant.Price8
	Level2 quant.Price8
	Level3 quant.Price8
}

// MwcbBreach reports a circuit-breaker level being hit.
type MwcbBreach struct {
	Level MwcbLevel
}

func (*SystemEvent) tag() byte            { return TagSystemEvent }
func (*StockDirectory) tag() byte         { return TagStockDirectory }
func (*TradingAction) tag() byte          { return TagTradingAction }
func (*RegShoRestriction) tag() byte      { return TagRegSho }
func (*ParticipantPosition) tag() byte    { return TagParticipantPosition }
func (m *AddOrder) tag() byte {
	if m.Mpid != nil {
		return TagAddOrderMpid
	}
	return TagAddOrder
}
func (*OrderExecuted) tag() byte          { return TagOrderExecuted }
func (*OrderExecutedWithPrice) tag() byte { return TagOrderExecutedWithPrice }
func (*OrderCancelled) tag() byte         { return TagOrderCancelled }
func (*DeleteOrder) tag() byte            { return TagDeleteOrder }
func (*ReplaceOrder) tag() byte           { return TagReplaceOrder }
func (*NonCrossTrade) tag() byte          { return TagNonCrossTrade }
func (*CrossTrade) tag() byte             { return TagCrossTrade }
func (*BrokenTrade) tag() byte            { return TagBrokenTrade }
func (*Imbalance) tag() byte              { return TagImbalance }
func (*Rpii) tag() byte                   { return TagRpii }
func (*IpoQuotingPeriod) tag() byte       { return TagIpoQuotingPeriod }
func (*LuldAuctionCollar) tag() byte      { return TagLuldAuctionCollar }
func (*MwcbDeclineLevel) tag() byte       { return TagMwcbDeclineLevel }
func (*MwcbBreach) tag() byte             { return TagMwcbBreach }
