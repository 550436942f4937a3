package engine

import "fmt"

// Treatment labels as they appear in transaction data and in the persisted
// output. These are the full closed set; anything else is rejected.
const (
	LabelNone    = "Tanpa Diskon"
	LabelGeneric = "Generic Product Discount"
	LabelBOGO    = "BOGO"
	LabelExpiry  = "Expired Discount"
	LabelEvent   = "Event Based Discount"
)

type Kind int

const (
	KindNone Kind = iota
	KindGeneric
	KindBOGO
	KindExpiry
	KindEvent
)

// Strategy is the resolved discount strategy for one product. Event carries
// the qualifying event name once the generic event placeholder has been
// resolved; it is empty for every other kind.
type Strategy struct {
	Kind  Kind
	Event string
}

// Label renders the persisted strategy string, e.g. "Event Based (Ramadan)".
func (s Strategy) Label() string {
	switch s.Kind {
	case KindNone:
		return LabelNone
	case KindGeneric:
		return LabelGeneric
	case KindBOGO:
		return LabelBOGO
	case KindExpiry:
		return LabelExpiry
	case KindEvent:
		if s.Event != "" {
			return fmt.Sprintf("Event Based (%s)", s.Event)
		}
		return LabelEvent
	default:
		return LabelGeneric
	}
}

// StrategyFromLabel maps a treatment label from the model layer onto the
// closed strategy set. Unknown labels are rejected rather than skipped: a
// label outside the trained treatment set means the caller broke the
// treatment-mapping contract.
func StrategyFromLabel(label string) (Strategy, error) {
	switch label {
	case LabelNone:
		return Strategy{Kind: KindNone}, nil
	case LabelGeneric:
		return Strategy{Kind: KindGeneric}, nil
	case LabelBOGO:
		return Strategy{Kind: KindBOGO}, nil
	case LabelExpiry:
		return Strategy{Kind: KindExpiry}, nil
	case LabelEvent:
		return Strategy{Kind: KindEvent}, nil
	default:
		return Strategy{}, fmt.Errorf("unknown treatment label %q", label)
	}
}
