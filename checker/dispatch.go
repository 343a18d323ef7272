package checker

import (
	"fmt"

	"github.com/tuxedo-labs/tuxedo/checker/amoeba"
	"github.com/tuxedo-labs/tuxedo/checker/dummy"
	"github.com/tuxedo-labs/tuxedo/checker/money"
	"github.com/tuxedo-labs/tuxedo/checker/poe"
	"github.com/tuxedo-labs/tuxedo/checker/timestamp"
	"github.com/tuxedo-labs/tuxedo/checker/tux0"
	"github.com/tuxedo-labs/tuxedo/checker/upgrade"
	"github.com/tuxedo-labs/tuxedo/payload"
	"github.com/tuxedo-labs/tuxedo/txtypes"
)

// Check evaluates the checker variant c holds against a transaction's
// full outputs. Variants backed by a SimpleConstraintChecker project
// inputs/peeks/outputs down to payloads first; Tux0Transfer, the one
// variant that must see verifiers, is dispatched through the structural
// ConstraintChecker interface directly.
func (c OuterChecker) Check(inputs, peeks, outputs []txtypes.Output) (uint64, error) {
	if c.Kind == KindTux0Transfer {
		return (tux0.TransferChecker{ID: c.CoinID}).Check(inputs, peeks, outputs)
	}

	simple, err := c.simpleChecker()
	if err != nil {
		return 0, err
	}
	return simple.Check(payloadsOf(inputs), payloadsOf(peeks), payloadsOf(outputs))
}

func payloadsOf(outs []txtypes.Output) []payload.Payload {
	ps := make([]payload.Payload, len(outs))
	for i, o := range outs {
		ps[i] = o.Payload
	}
	return ps
}

func (c OuterChecker) simpleChecker() (SimpleConstraintChecker, error) {
	switch c.Kind {
	case KindMoney:
		return money.Checker{ID: c.CoinID}, nil
	case KindTux0Mint:
		return tux0.MintChecker{ID: c.CoinID}, nil
	case KindPoEClaim:
		return poe.ClaimChecker{}, nil
	case KindPoERevoke:
		return poe.RevokeChecker{}, nil
	case KindPoEDispute:
		return poe.DisputeChecker{}, nil
	case KindTimestamp:
		return timestamp.Checker{}, nil
	case KindAmoebaCreation:
		return amoeba.CreationChecker{}, nil
	case KindAmoebaMitosis:
		return amoeba.MitosisChecker{}, nil
	case KindAmoebaDeath:
		return amoeba.DeathChecker{}, nil
	case KindRuntimeUpgrade:
		return upgrade.Checker{}, nil
	case KindDummy:
		return dummy.Checker{}, nil
	default:
		return nil, fmt.Errorf("checker: unknown kind %d", c.Kind)
	}
}
