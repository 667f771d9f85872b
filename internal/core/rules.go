package core

import "siteledger/pkg/domain"

// Rule is the contract for checks evaluated inside every transaction.
type Rule = domain.Rule

// NewRulesEngine constructs an empty engine.
func NewRulesEngine() *RulesEngine {
	return domain.NewRulesEngine()
}

// NewDefaultRulesEngine builds a rules engine with the built-in consistency checks.
func NewDefaultRulesEngine() *RulesEngine {
	engine := NewRulesEngine()
	engine.Register(ReferentialIntegrityRule())
	engine.Register(SingleAssignmentRule())
	engine.Register(StockBoundsRule())
	engine.Register(LifecycleTransitionRule())
	engine.Register(MeasurementBoundsRule())
	return engine
}

func blockf(rule string, kind domain.ErrorKind, entity EntityType, id, message string) Violation {
	return Violation{
		Rule:     rule,
		Severity: SeverityBlock,
		Kind:     kind,
		Message:  message,
		Entity:   entity,
		EntityID: id,
	}
}
