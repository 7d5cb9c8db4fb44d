package itch

import (
	"fmt"
	"io"

	"github.com/saadzaki7/NASDAQ-SIMULATOR/pkg/quant"
)

// MalformedRecordError reports a frame that does not match the schema. The
// offset is the byte position of the frame's length prefix in the stream.
type MalformedRecordError struct {
	Offset uint64
	Cause  error
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record at offset %d: %v", e.Offset, e.Cause)
}

func (e *MalformedRecordError) Unwrap() error { return e.Cause }

// Decoder consumes length-prefixed ITCH 5.0 frames and produces typed
// messages. Any schema violation is terminal: the stream cannot be resynced
// past a bad frame.
type Decoder struct {
	r *Reader
}

func NewDecoder(src io.Reader) *Decoder {
	return &Decoder{r: NewReader(src)}
}

// Next decodes one message. It returns io.EOF at a clean end of stream, a
// *MalformedRecordError when a frame violates the schema, and the underlying
// error when the source fails.
func (d *Decoder) Next() (*Message, error) {
	if d.r.EOF() {
		return nil, io.EOF
	}

	frameOffset := d.r.Offset()
	length, err := d.r.U16()
	if err != nil {
		if err == ErrUnexpectedEOF {
			return nil, &MalformedRecordError{Offset: frameOffset, Cause: err}
		}
		// Underlying stream failure, not a framing problem.
		return nil, err
	}

	tag, err := d.r.U8()
	if err != nil {
		return nil, &MalformedRecordError{Offset: frameOffset, Cause: err}
	}

	want, ok := bodySizes[tag]
	if !ok {
		return nil, &MalformedRecordError{Offset: frameOffset, Cause: fmt.Errorf("unknown tag %q", tag)}
	}
	if int(length) != headerSize+want {
		return nil, &MalformedRecordError{
			Offset: frameOffset,
			Cause:  fmt.Errorf("tag %q frame length %d, want %d", tag, length, headerSize+want),
		}
	}

	m := &Message{Tag: tag}
	if m.StockLocate, err = d.r.U16(); err != nil {
		return nil, &MalformedRecordError{Offset: frameOffset, Cause: err}
	}
	if m.TrackingNumber, err = d.r.U16(); err != nil {
		return nil, &MalformedRecordError{Offset: frameOffset, Cause: err}
	}
	ts, err := d.r.U48()
	if err != nil {
		return nil, &MalformedRecordError{Offset: frameOffset, Cause: err}
	}
	m.Timestamp = quant.Timestamp(ts)

	bodyStart := d.r.Offset()
	m.Body, err = d.decodeBody(tag)
	if err != nil {
		return nil, &MalformedRecordError{Offset: frameOffset, Cause: err}
	}
	if consumed := d.r.Offset() - bodyStart; consumed != uint64(want) {
		return nil, &MalformedRecordError{
			Offset: frameOffset,
			Cause:  fmt.Errorf("tag %q body consumed %d bytes, want %d", tag, consumed, want),
		}
	}
	return m, nil
}

func (d *Decoder) decodeBody(tag byte) (Body, error) {
	switch tag {
	case TagSystemEvent:
		return d.systemEvent()
	case TagStockDirectory:
		return d.stockDirectory()
	case TagTradingAction:
		return d.tradingAction()
	case TagRegSho:
		return d.regSho()
	case TagParticipantPosition:
		return d.participantPosition()
	case TagAddOrder:
		return d.addOrder(false)
	case TagAddOrderMpid:
		return d.addOrder(true)
	case TagOrderExecuted:
		return d.orderExecuted()
	case TagOrderExecutedWithPrice:
		return d.orderExecutedWithPrice()
	case TagOrderCancelled:
		return d.orderCancelled()
	case TagDeleteOrder:
		return d.deleteOrder()
	case TagReplaceOrder:
		return d.replaceOrder()
	case TagNonCrossTrade:
		return d.nonCrossTrade()
	case TagCrossTrade:
		return d.crossTrade()
	case TagBrokenTrade:
		return d.brokenTrade()
	case TagImbalance:
		return d.imbalance()
	case TagRpii:
		return d.rpii()
	case TagIpoQuotingPeriod:
		return d.ipoQuotingPeriod()
	case TagLuldAuctionCollar:
		return d.luldAuctionCollar()
	case TagMwcbDeclineLevel:
		return d.mwcbDeclineLevel()
	case TagMwcbBreach:
		return d.mwcbBreach()
	}
	return nil, fmt.Errorf("unknown tag %q", tag)
}

func (d *Decoder) stock() (Stock, error) {
	var s Stock
	err := d.r.Bytes(s[:])
	return s, err
}

func (d *Decoder) alpha4() (Alpha4, error) {
	var a Alpha4
	err := d.r.Bytes(a[:])
	return a, err
}

func (d *Decoder) price4() (quant.Price4, error) {
	v, err := d.r.U32()
	return quant.Price4(v), err
}

func (d *Decoder) price8() (quant.Price8, error) {
	v, err := d.r.U64()
	return quant.Price8(v), err
}

func (d *Decoder) systemEvent() (Body, error) {
	b, err := d.r.U8()
	if err != nil {
		return nil, err
	}
	code, err := parseEventCode(b)
	if err != nil {
		return nil, err
	}
	return &SystemEvent{Event: code}, nil
}

func (d *Decoder) stockDirectory() (Body, error) {
	var (
		dir StockDirectory
		err error
	)
	if dir.Stock, err = d.stock(); err != nil {
		return nil, err
	}
	b, err := d.r.U8()
	if err != nil {
		return nil, err
	}
	if dir.MarketCategory, err = parseMarketCategory(b); err != nil {
		return nil, err
	}
	if b, err = d.r.U8(); err != nil {
		return nil, err
	}
	if dir.FinancialStatus, err = parseFinancialStatus(b); err != nil {
		return nil, err
	}
	if dir.RoundLotSize, err = d.r.U32(); err != nil {
		return nil, err
	}
	if b, err = d.r.U8(); err != nil {
		return nil, err
	}
	if dir.RoundLotsOnly, err = yesNo(b); err != nil {
		return nil, err
	}
	if b, err = d.r.U8(); err != nil {
		return nil, err
	}
	if dir.IssueClassification, err = parseIssueClassification(b); err != nil {
		return nil, err
	}
	var sub [2]byte
	if err = d.r.Bytes(sub[:]); err != nil {
		return nil, err
	}
	if dir.IssueSubType, err = parseIssueSubType(sub); err != nil {
		return nil, err
	}
	if dir.Authenticity, err = d.r.U8(); err != nil {
		return nil, err
	}
	if b, err = d.r.U8(); err != nil {
		return nil, err
	}
	if dir.ShortSaleThreshold, err = maybeYesNo(b); err != nil {
		return nil, err
	}
	if b, err = d.r.U8(); err != nil {
		return nil, err
	}
	if dir.IpoFlag, err = maybeYesNo(b); err != nil {
		return nil, err
	}
	if b, err = d.r.U8(); err != nil {
		return nil, err
	}
	if dir.LuldTier, err = parseLuldTier(b); err != nil {
		return nil, err
	}
	if b, err = d.r.U8(); err != nil {
		return nil, err
	}
	if dir.EtpFlag, err = maybeYesNo(b); err != nil {
		return nil, err
	}
	if dir.EtpLeverageFactor, err = d.r.U32(); err != nil {
		return nil, err
	}
	if b, err = d.r.U8(); err != nil {
		return nil, err
	}
	if dir.InverseIndicator, err = yesNo(b); err != nil {
		return nil, err
	}
	return &dir, nil
}

func (d *Decoder) tradingAction() (Body, error) {
	var (
		ta  TradingAction
		err error
	)
	if ta.Stock, err = d.stock(); err != nil {
		return nil, err
	}
	b, err := d.r.U8()
	if err != nil {
		return nil, err
	}
	if ta.State, err = parseTradingState(b); err != nil {
		return nil, err
	}
	if ta.Reserved, err = d.r.U8(); err != nil {
		return nil, err
	}
	if ta.Reason, err = d.alpha4(); err != nil {
		return nil, err
	}
	return &ta, nil
}

func (d *Decoder) regSho() (Body, error) {
	var (
		rs  RegShoRestriction
		err error
	)
	if rs.Stock, err = d.stock(); err != nil {
		return nil, err
	}
	b, err := d.r.U8()
	if err != nil {
		return nil, err
	}
	if rs.Action, err = parseRegShoAction(b); err != nil {
		return nil, err
	}
	return &rs, nil
}

func (d *Decoder) participantPosition() (Body, error) {
	var (
		pp  ParticipantPosition
		err error
	)
	if pp.Mpid, err = d.alpha4(); err != nil {
		return nil, err
	}
	if pp.Stock, err = d.stock(); err != nil {
		return nil, err
	}
	b, err := d.r.U8()
	if err != nil {
		return nil, err
	}
	if pp.Primary, err = yesNo(b); err != nil {
		return nil, err
	}
	if b, err = d.r.U8(); err != nil {
		return nil, err
	}
	if pp.Mode, err = parseMarketMakerMode(b); err != nil {
		return nil, err
	}
	if b, err = d.r.U8(); err != nil {
		return nil, err
	}
	if pp.State, err = parseParticipantState(b); err != nil {
		return nil, err
	}
	return &pp, nil
}

func (d *Decoder) addOrder(withMpid bool) (Body, error) {
	var (
		ao  AddOrder
		err error
	)
	if ao.Reference, err = d.r.U64(); err != nil {
		return nil, err
	}
	b, err := d.r.U8()
	if err != nil {
		return nil, err
	}
	if ao.Side, err = parseSide(b); err != nil {
		return nil, err
	}
	if ao.Shares, err = d.r.U32(); err != nil {
		return nil, err
	}
	if ao.Stock, err = d.stock(); err != nil {
		return nil, err
	}
	if ao.Price, err = d.price4(); err != nil {
		return nil, err
	}
	if withMpid {
		mpid, err := d.alpha4()
		if err != nil {
			return nil, err
		}
		ao.Mpid = &mpid
	}
	return &ao, nil
}

func (d *Decoder) orderExecuted() (Body, error) {
	var (
		oe  OrderExecuted
		err error
	)
	if oe.Reference, err = d.r.U64(); err != nil {
		return nil, err
	}
	if oe.Executed, err = d.r.U32(); err != nil {
		return nil, err
	}
	if oe.MatchNumber, err = d.r.U64(); err != nil {
		return nil, err
	}
	return &oe, nil
}

func (d *Decoder) orderExecutedWithPrice() (Body, error) {
	var (
		oe  OrderExecutedWithPrice
		err error
	)
	if oe.Reference, err = d.r.U64(); err != nil {
		return nil, err
	}
	if oe.Executed, err = d.r.U32(); err != nil {
		return nil, err
	}
	if oe.MatchNumber, err = d.r.U64(); err != nil {
		return nil, err
	}
	b, err := d.r.U8()
	if err != nil {
		return nil, err
	}
	if oe.Printable, err = yesNo(b); err != nil {
		return nil, err
	}
	if oe.Price, err = d.price4(); err != nil {
		return nil, err
	}
	return &oe, nil
}

func (d *Decoder) orderCancelled() (Body, error) {
	var (
		oc  OrderCancelled
		err error
	)
	if oc.Reference, err = d.r.U64(); err != nil {
		return nil, err
	}
	if oc.Cancelled, err = d.r.U32(); err != nil {
		return nil, err
	}
	return &oc, nil
}

func (d *Decoder) deleteOrder() (Body, error) {
	ref, err := d.r.U64()
	if err != nil {
		return nil, err
	}
	return &DeleteOrder{Reference: ref}, nil
}

func (d *Decoder) replaceOrder() (Body, error) {
	var (
		ro  ReplaceOrder
		err error
	)
	if ro.OldReference, err = d.r.U64(); err != nil {
		return nil, err
	}
	if ro.NewReference, err = d.r.U64(); err != nil {
		return nil, err
	}
	if ro.Shares, err = d.r.U32(); err != nil {
		return nil, err
	}
	if ro.Price, err = d.price4(); err != nil {
		return nil, err
	}
	return &ro, nil
}

func (d *Decoder) nonCrossTrade() (Body, error) {
	var (
		tr  NonCrossTrade
		err error
	)
	if tr.Reference, err = d.r.U64(); err != nil {
		return nil, err
	}
	b, err := d.r.U8()
	if err != nil {
		return nil, err
	}
	if tr.Side, err = parseSide(b); err != nil {
		return nil, err
	}
	if tr.Shares, err = d.r.U32(); err != nil {
		return nil, err
	}
	if tr.Stock, err = d.stock(); err != nil {
		return nil, err
	}
	if tr.Price, err = d.price4(); err != nil {
		return nil, err
	}
	if tr.MatchNumber, err = d.r.U64(); err != nil {
		return nil, err
	}
	return &tr, nil
}

func (d *Decoder) crossTrade() (Body, error) {
	var (
		ct  CrossTrade
		err error
	)
	if ct.Shares, err = d.r.U64(); err != nil {
		return nil, err
	}
	if ct.Stock, err = d.stock(); err != nil {
		return nil, err
	}
	if ct.CrossPrice, err = d.price4(); err != nil {
		return nil, err
	}
	if ct.MatchNumber, err = d.r.U64(); err != nil {
		return nil, err
	}
	b, err := d.r.U8()
	if err != nil {
		return nil, err
	}
	if ct.CrossType, err = parseCrossType(b); err != nil {
		return nil, err
	}
	return &ct, nil
}

func (d *Decoder) brokenTrade() (Body, error) {
	match, err := d.r.U64()
	if err != nil {
		return nil, err
	}
	return &BrokenTrade{MatchNumber: match}, nil
}

func (d *Decoder) imbalance() (Body, error) {
	var (
		im  Imbalance
		err error
	)
	if im.PairedShares, err = d.r.U64(); err != nil {
		return nil, err
	}
	if im.ImbalanceShares, err = d.r.U64(); err != nil {
		return nil, err
	}
	b, err := d.r.U8()
	if err != nil {
		return nil, err
	}
	if im.Direction, err = parseImbalanceDirection(b); err != nil {
		return nil, err
	}
	if im.Stock, err = d.stock(); err != nil {
		return nil, err
	}
	if im.FarPrice, err = d.price4(); err != nil {
		return nil, err
	}
	if im.NearPrice, err = d.price4(); err != nil {
		return nil, err
	}
	if im.CurrentRefPrice, err = d.price4(); err != nil {
		return nil, err
	}
	if b, err = d.r.U8(); err != nil {
		return nil, err
	}
	if im.CrossType, err = parseNoiiCrossType(b); err != nil {
		return nil, err
	}
	if im.PriceVariation, err = d.r.U8(); err != nil {
		return nil, err
	}
	return &im, nil
}

func (d *Decoder) rpii() (Body, error) {
	var (
		rp  Rpii
		err error
	)
	if rp.Stock, err = d.stock(); err != nil {
		return nil, err
	}
	b, err := d.r.U8()
	if err != nil {
		return nil, err
	}
	if rp.Interest, err = parseInterestFlag(b); err != nil {
		return nil, err
	}
	return &rp, nil
}

func (d *Decoder) ipoQuotingPeriod() (Body, error) {
	var (
		ipo IpoQuotingPeriod
		err error
	)
	if ipo.Stock, err = d.stock(); err != nil {
		return nil, err
	}
	if ipo.ReleaseTime, err = d.r.U32(); err != nil {
		return nil, err
	}
	b, err := d.r.U8()
	if err != nil {
		return nil, err
	}
	if ipo.Qualifier, err = parseIpoQualifier(b); err != nil {
		return nil, err
	}
	if ipo.Price, err = d.price4(); err != nil {
		return nil, err
	}
	return &ipo, nil
}

func (d *Decoder) luldAuctionCollar() (Body, error) {
	var (
		lc  LuldAuctionCollar
		err error
	)
	if lc.Stock, err = d.stock(); err != nil {
		return nil, err
	}
	if lc.RefPrice, err = d.price4(); err != nil {
		return nil, err
	}
	if lc.Upper, err = d.price4(); err != nil {
		return nil, err
	}
	if lc.Lower, err = d.price4(); err != nil {
		return nil, err
	}
	if lc.Extension, err = d.r.U32(); err != nil {
		return nil, err
	}
	return &lc, nil
}

func (d *Decoder) mwcbDeclineLevel() (Body, error) {
	var (
		ml  MwcbDeclineLevel
		err error
	)
	if ml.Level1, err = d.price8(); err != nil {
		return nil, err
	}
	if ml.Level2, err = d.price8(); err != nil {
		return nil, err
	}
	if ml.Level3, err = d.price8(); err != nil {
		return nil, err
	}
	return &ml, nil
}

func (d *Decoder) mwcbBreach() (Body, error) {
	b, err := d.r.U8()
	if err != nil {
		return nil, err
	}
	level, err := parseMwcbLevel(b)
	if err != nil {
		return nil, err
	}
	return &MwcbBreach{Level: level}, nil
}
