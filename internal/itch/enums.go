package itch

import (
	"fmt"
	"strings"
)

// Enumerated wire fields keep their raw byte as the Go value so re-encoding
// a decoded message is byte-exact. Decode-time validation happens against
// the closed sets below; a byte outside its set is a malformed record.

// Stock is the fixed 8-byte right-space-padded symbol field.
type Stock [8]byte

// Alpha4 is the 4-byte variant used for MPIDs and trading-halt reasons.
type Alpha4 [4]byte

// NewStock pads a symbol to the 8-byte wire form. Longer input is truncated.
func NewStock(symbol string) Stock {
	var s Stock
	copy(s[:], symbol)
	for i := len(symbol); i < len(s); i++ {
		s[i] = ' '
	}
	return s
}

func (s Stock) String() string {
	return strings.TrimRight(string(s[:]), " ")
}

func (a Alpha4) String() string {
	return strings.TrimRight(string(a[:]), " ")
}

// Side of the book an order rests on.
type Side byte

const (
	Buy  Side = 'B'
	Sell Side = 'S'
)

func parseSide(b byte) (Side, error) {
	switch Side(b) {
	case Buy, Sell:
		return Side(b), nil
	}
	return 0, fmt.Errorf("unknown side %q", b)
}

func (s Side) String() string {
	switch s {
	case Buy:
		return "Buy"
	case Sell:
		return "Sell"
	}
	return fmt.Sprintf("Side(%q)", byte(s))
}

// EventCode values of the system event message.
type EventCode byte

const (
	StartOfMessages    EventCode = 'O'
	StartOfSystemHours EventCode = 'S'
	StartOfMarketHours EventCode = 'Q'
	EndOfMarketHours   EventCode = 'M'
	EndOfSystemHours   EventCode = 'E'
	EndOfMessages      EventCode = 'C'
)

func parseEventCode(b byte) (EventCode, error) {
	switch EventCode(b) {
	case StartOfMessages, StartOfSystemHours, StartOfMarketHours,
		EndOfMarketHours, EndOfSystemHours, EndOfMessages:
		return EventCode(b), nil
	}
	return 0, fmt.Errorf("unknown system event code %q", b)
}

func (c EventCode) String() string {
	switch c {
	case StartOfMessages:
		return "StartOfMessages"
	case StartOfSystemHours:
		return "StartOfSystemHours"
	case StartOfMarketHours:
		return "StartOfMarketHours"
	case EndOfMarketHours:
		return "EndOfMarketHours"
	case EndOfSystemHours:
		return "EndOfSystemHours"
	case EndOfMessages:
		return "EndOfMessages"
	}
	return fmt.Sprintf("EventCode(%q)", byte(c))
}

// MarketCategory of a listed issue.
type MarketCategory byte

const (
	NasdaqGlobalSelect MarketCategory = 'Q'
	NasdaqGlobalMarket MarketCategory = 'G'
	NasdaqCapital      MarketCategory = 'S'
	Nyse               MarketCategory = 'N'
	NyseMkt            MarketCategory = 'A'
	NyseArca           MarketCategory = 'P'
	BatsZ              MarketCategory = 'Z'
	Iex                MarketCategory = 'V'
	CategoryNA         MarketCategory = ' '
)

func parseMarketCategory(b byte) (MarketCategory, error) {
	switch MarketCategory(b) {
	case NasdaqGlobalSelect, NasdaqGlobalMarket, NasdaqCapital,
		Nyse, NyseMkt, NyseArca, BatsZ, Iex, CategoryNA:
		return MarketCategory(b), nil
	}
	return 0, fmt.Errorf("unknown market category %q", b)
}

// FinancialStatus indicator from the stock directory.
type FinancialStatus byte

const (
	FinNormal                      FinancialStatus = 'N'
	FinDeficient                   FinancialStatus = 'D'
	FinDelinquent                  FinancialStatus = 'E'
	FinBankrupt                    FinancialStatus = 'Q'
	FinSuspended                   FinancialStatus = 'S'
	FinDeficientBankrupt           FinancialStatus = 'G'
	FinDeficientDelinquent         FinancialStatus = 'H'
	FinDelinquentBankrupt          FinancialStatus = 'J'
	FinDeficientDelinquentBankrupt FinancialStatus = 'K'
	FinEtpSuspended                FinancialStatus = 'C'
	FinNA                          FinancialStatus = ' '
)

func parseFinancialStatus(b byte) (FinancialStatus, error) {
	switch FinancialStatus(b) {
	case FinNormal, FinDeficient, FinDelinquent, FinBankrupt, FinSuspended,
		FinDeficientBankrupt, FinDeficientDelinquent, FinDelinquentBankrupt,
		FinDeficientDelinquentBankrupt, FinEtpSuspended, FinNA:
		return FinancialStatus(b), nil
	}
	return 0, fmt.Errorf("unknown financial status %q", b)
}

// IssueClassification of a listed instrument.
type IssueClassification byte

var issueClassifications = map[IssueClassification]string{
	'A': "AmericanDepositaryShare",
	'B': "Bond",
	'C': "CommonStock",
	'F': "DepositoryReceipt",
	'I': "A144",
	'L': "LimitedPartnership",
	'N': "Notes",
	'O': "OrdinaryShare",
	'P': "PreferredStock",
	'Q': "OtherSecurities",
	'R': "Right",
	'S': "SharesOfBeneficialInterest",
	'T': "ConvertibleDebenture",
	'U': "Unit",
	'V': "UnitsPerBenifInt",
	'W': "Warrant",
}

func parseIssueClassification(b byte) (IssueClassification, error) {
	if _, ok := issueClassifications[IssueClassification(b)]; !ok {
		return 0, fmt.Errorf("unknown issue classification %q", b)
	}
	return IssueClassification(b), nil
}

func (c IssueClassification) String() string {
	if name, ok := issueClassifications[c]; ok {
		return name
	}
	return fmt.Sprintf("IssueClassification(%q)", byte(c))
}

// IssueSubType is the 2-character sub-type code from the stock directory.
type IssueSubType [2]byte

var issueSubTypes = map[IssueSubType]string{
	{'A', ' '}: "PreferredTrustSecurities",
	{'A', 'I'}: "AlphaIndexETNs",
	{'B', ' '}: "IndexBasedDerivative",
	{'C', ' '}: "CommonShares",
	{'C', 'B'}: "CommodityBasedTrustShares",
	{'C', 'F'}: "CommodityFuturesTrustShares",
	{'C', 'L'}: "CommodityLinkedSecurities",
	{'C', 'M'}: "CommodityIndexTrustShares",
	{'C', 'O'}: "CollateralizedMortgageObligation",
	{'C', 'T'}: "CurrencyTrustShares",
	{'C', 'U'}: "CommodityCurrencyLinkedSecurities",
	{'C', 'W'}: "CurrencyWarrants",
	{'D', ' '}: "GlobalDepositaryShares",
	{'E', ' '}: "ETFPortfolioDepositaryReceipt",
	{'E', 'G'}: "EquityGoldShares",
	{'E', 'I'}: "ETNEquityIndexLinkedSecurities",
	{'E', 'M'}: "ExchangeTradedManagedFunds",
	{'E', 'N'}: "ExchangeTradedNotes",
	{'E', 'U'}: "EquityUnits",
	{'F', ' '}: "Holdrs",
	{'F', 'I'}: "ETNFixedIncomeLinkedSecurities",
	{'F', 'L'}: "ETNFuturesLinkedSecurities",
	{'G', ' '}: "GlobalShares",
	{'I', ' '}: "ETFIndexFundShares",
	{'I', 'R'}: "InterestRate",
	{'I', 'W'}: "IndexWarrant",
	{'I', 'X'}: "IndexLinkedExchangeableNotes",
	{'J', ' '}: "CorporateBackedTrustSecurity",
	{'L', ' '}: "ContingentLitigationRight",
	{'L', 'L'}: "Llc",
	{'M', ' '}: "EquityBasedDerivative",
	{'M', 'F'}: "ManagedFundShares",
	{'M', 'L'}: "ETNMultiFactorIndexLinkedSecurities",
	{'M', 'T'}: "ManagedTrustSecurities",
	{'N', ' '}: "NYRegistryShares",
	{'O', ' '}: "OpenEndedMutualFund",
	{'P', ' '}: "PrivatelyHeldSecurity",
	{'P', 'P'}: "PoisonPill",
	{'P', 'U'}: "PartnershipUnits",
	{'Q', ' '}: "ClosedEndFunds",
	{'R', ' '}: "RegS",
	{'R', 'C'}: "CommodityRedeemableCommodityLinkedSecurities",
	{'R', 'F'}: "ETNRedeemableFuturesLinkedSecurities",
	{'R', 'T'}: "REIT",
	{'R', 'U'}: "CommodityRedeemableCurrencyLinkedSecurities",
	{'S', ' '}: "Seed",
	{'S', 'C'}: "SpotRateClosing",
	{'S', 'I'}: "SpotRateIntraday",
	{'T', ' '}: "TrackingStock",
	{'T', 'C'}: "TrustCertificates",
	{'T', 'U'}: "TrustUnits",
	{'U', ' '}: "Portal",
	{'V', ' '}: "ContingentValueRight",
	{'W', ' '}: "TrustIssuedReceipts",
	{'W', 'C'}: "WorldCurrencyOption",
	{'X', ' '}: "Trust",
	{'Y', ' '}: "Other",
	{'Z', ' '}: "NotApplicable",
}

func parseIssueSubType(b [2]byte) (IssueSubType, error) {
	if _, ok := issueSubTypes[IssueSubType(b)]; !ok {
		return IssueSubType{}, fmt.Errorf("unknown issue subtype %q", b[:])
	}
	return IssueSubType(b), nil
}

func (s IssueSubType) String() string {
	if name, ok := issueSubTypes[s]; ok {
		return name
	}
	return fmt.Sprintf("IssueSubType(%q)", s[:])
}

// LuldTier is the LULD reference price tier.
type LuldTier byte

const (
	LuldTier1 LuldTier = '1'
	LuldTier2 LuldTier = '2'
	LuldNA    LuldTier = ' '
)

func parseLuldTier(b byte) (LuldTier, error) {
	switch LuldTier(b) {
	case LuldTier1, LuldTier2, LuldNA:
		return LuldTier(b), nil
	}
	return 0, fmt.Errorf("unknown LULD tier %q", b)
}

// MarketMakerMode of a participant.
type MarketMakerMode byte

const (
	MmNormal      MarketMakerMode = 'N'
	MmPassive     MarketMakerMode = 'P'
	MmSyndicate   MarketMakerMode = 'S'
	MmPresyndicate MarketMakerMode = 'R'
	MmPenalty     MarketMakerMode = 'L'
)

func parseMarketMakerMode(b byte) (MarketMakerMode, error) {
	switch MarketMakerMode(b) {
	case MmNormal, MmPassive, MmSyndicate, MmPresyndicate, MmPenalty:
		return MarketMakerMode(b), nil
	}
	return 0, fmt.Errorf("unknown market maker mode %q", b)
}

// ParticipantState of a market participant.
type ParticipantState byte

const (
	ParticipantActive    ParticipantState = 'A'
	ParticipantExcused   ParticipantState = 'E'
	ParticipantWithdrawn ParticipantState = 'W'
	ParticipantSuspended ParticipantState = 'S'
	ParticipantDeleted   ParticipantState = 'D'
)

func parseParticipantState(b byte) (ParticipantState, error) {
	switch ParticipantState(b) {
	case ParticipantActive, ParticipantExcused, ParticipantWithdrawn,
		ParticipantSuspended, ParticipantDeleted:
		return ParticipantState(b), nil
	}
	return 0, fmt.Errorf("unknown participant state %q", b)
}

// RegShoAction of a short-sale price-test restriction.
type RegShoAction byte

const (
	RegShoNone     RegShoAction = '0'
	RegShoIntraday RegShoAction = '1'
	RegShoExtant   RegShoAction = '2'
)

func parseRegShoAction(b byte) (RegShoAction, error) {
	switch RegShoAction(b) {
	case RegShoNone, RegShoIntraday, RegShoExtant:
		return RegShoAction(b), nil
	}
	return 0, fmt.Errorf("unknown RegSHO action %q", b)
}

// TradingState of a halted or trading issue.
type TradingState byte

const (
	TradingHalted    TradingState = 'H'
	TradingPaused    TradingState = 'P'
	QuotationOnly    TradingState = 'Q'
	Trading          TradingState = 'T'
)

func parseTradingState(b byte) (TradingState, error) {
	switch TradingState(b) {
	case TradingHalted, TradingPaused, QuotationOnly, Trading:
		return TradingState(b), nil
	}
	return 0, fmt.Errorf("unknown trading state %q", b)
}

// ImbalanceDirection of a NOII message.
type ImbalanceDirection byte

const (
	ImbalanceBuy          ImbalanceDirection = 'B'
	ImbalanceSell         ImbalanceDirection = 'S'
	NoImbalance           ImbalanceDirection = 'N'
	InsufficientOrders    ImbalanceDirection = 'O'
)

func parseImbalanceDirection(b byte) (ImbalanceDirection, error) {
	switch ImbalanceDirection(b) {
	case ImbalanceBuy, ImbalanceSell, NoImbalance, InsufficientOrders:
		return ImbalanceDirection(b), nil
	}
	return 0, fmt.Errorf("unknown imbalance direction %q", b)
}

// CrossType of an auction match.
type CrossType byte

const (
	CrossOpening       CrossType = 'O'
	CrossClosing       CrossType = 'C'
	CrossIpoOrHalted   CrossType = 'H'
	CrossIntraday      CrossType = 'I'
	CrossExtendedClose CrossType = 'A'
)

func parseCrossType(b byte) (CrossType, error) {
	switch CrossType(b) {
	case CrossOpening, CrossClosing, CrossIpoOrHalted, CrossIntraday, CrossExtendedClose:
		return CrossType(b), nil
	}
	return 0, fmt.Errorf("unknown cross type %q", b)
}

// NOII messages carry the same code space minus the intraday cross.
func parseNoiiCrossType(b byte) (CrossType, error) {
	switch CrossType(b) {
	case CrossOpening, CrossClosing, CrossIpoOrHalted, CrossExtendedClose:
		return CrossType(b), nil
	}
	return 0, fmt.Errorf("unknown NOII cross type %q", b)
}

// IpoQualifier of an IPO quoting period release.
type IpoQualifier byte

const (
	IpoAnticipated IpoQualifier = 'A'
	IpoCancelled   IpoQualifier = 'C'
)

func parseIpoQualifier(b byte) (IpoQualifier, error) {
	switch IpoQualifier(b) {
	case IpoAnticipated, IpoCancelled:
		return IpoQualifier(b), nil
	}
	return 0, fmt.Errorf("unknown IPO release qualifier %q", b)
}

// MwcbLevel names the market-wide circuit breaker level breached.
type MwcbLevel byte

const (
	MwcbLevel1 MwcbLevel = '1'
	MwcbLevel2 MwcbLevel = '2'
	MwcbLevel3 MwcbLevel = '3'
)

func parseMwcbLevel(b byte) (MwcbLevel, error) {
	switch MwcbLevel(b) {
	case MwcbLevel1, MwcbLevel2, MwcbLevel3:
		return MwcbLevel(b), nil
	}
	return 0, fmt.Errorf("unknown breach level %q", b)
}

// InterestFlag of a retail price improvement indicator.
type InterestFlag byte

const (
	RpiBuySide   InterestFlag = 'B'
	RpiSellSide  InterestFlag = 'S'
	RpiBothSides InterestFlag = 'A'
	RpiNone      InterestFlag = 'N'
)

func parseInterestFlag(b byte) (InterestFlag, error) {
	switch InterestFlag(b) {
	case RpiBuySide, RpiSellSide, RpiBothSides, RpiNone:
		return InterestFlag(b), nil
	}
	return 0, fmt.Errorf("unknown interest flag %q", b)
}

// yesNo decodes the strict 'Y'/'N' boolean flavor.
func yesNo(b byte) (bool, error) {
	switch b {
	case 'Y':
		return true, nil
	case 'N':
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean character %q", b)
}

// maybeYesNo decodes the tri-state 'Y'/'N'/' ' flavor; space means absent.
func maybeYesNo(b byte) (*bool, error) {
	switch b {
	case 'Y':
		v := true
		return &v, nil
	case 'N':
		v := false
		return &v, nil
	case ' ':
		return nil, nil
	}
	return nil, fmt.Errorf("invalid tri-state boolean character %q", b)
}

// encodeMaybe is the inverse of maybeYesNo.
func encodeMaybe(v *bool) byte {
	switch {
	case v == nil:
		return ' '
	case *v:
		return 'Y'
	default:
		return 'N'
	}
}

func encodeYesNo(v bool) byte {
	if v {
		return 'Y'
	}
	return 'N'
}
