package reallocation

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/travigo/trainrac/pkg/rail"
)

// GroupStrategy orders the members of a group for upgrade suggestions.
// Implementations must not reorder passengers they consider equal.
type GroupStrategy interface {
	Order(passengers []*rail.Passenger) ([]*rail.Passenger, error)
}

// AgePriorityStrategy puts children and elderly passengers first
type AgePriorityStrategy struct {
	ChildBelow   int
	ElderlyAbove int
}

func NewAgePriorityStrategy() AgePriorityStrategy {
	return AgePriorityStrategy{ChildBelow: 12, ElderlyAbove: 60}
}

func (a AgePriorityStrategy) Order(passengers []*rail.Passenger) ([]*rail.Passenger, error) {
	return partition(passengers, func(p *rail.Passenger) (bool, error) {
		return p.Age < a.ChildBelow || p.Age > a.ElderlyAbove, nil
	})
}

// ExprStrategy prioritises passengers matching a boolean expression over age, gender and racNumber
type ExprStrategy struct {
	Expression string
	program    *vm.Program
}

func strategyEnv(p *rail.Passenger) map[string]interface{} {
	return map[string]interface{}{
		"age":       p.Age,
		"gender":    p.Gender,
		"racNumber": p.RACNumber,
	}
}

func NewExprStrategy(expression string) (*ExprStrategy, error) {
	program, err := expr.Compile(expression, expr.Env(strategyEnv(&rail.Passenger{})), expr.AsBool())
	if err != nil {
		return nil, rail.NewValidationError("invalid priority expression %q: %s", expression, err)
	}

	return &ExprStrategy{Expression: expression, program: program}, nil
}

func (e *ExprStrategy) Order(passengers []*rail.Passenger) ([]*rail.Passenger, error) {
	return partition(passengers, func(p *rail.Passenger) (bool, error) {
		output, err := expr.Run(e.program, strategyEnv(p))
		if err != nil {
			return false, fmt.Errorf("evaluating %q for %s: %w", e.Expression, p.PNR, err)
		}
		return output.(bool), nil
	})
}

// partition moves matching passengers to the front, keeping relative order within each half
func partition(passengers []*rail.Passenger, first func(*rail.Passenger) (bool, error)) ([]*rail.Passenger, error) {
	ordered := make([]*rail.Passenger, 0, len(passengers))
	var rest []*rail.Passenger

	for _, passenger := range passengers {
		match, err := first(passenger)
		if err != nil {
			return nil, err
		}
		if match {
			ordered = append(ordered, passenger)
		} else {
			rest = append(rest, passenger)
		}
	}

	return append(ordered, rest...), nil
}

// SuggestGroup returns the RAC members of a group in the order the strategy prefers for upgrades
func SuggestGroup(passengers []*rail.Passenger, groupID string, strategy GroupStrategy) ([]*rail.Passenger, error) {
	var members []*rail.Passenger
	for _, passenger := range passengers {
		if passenger.GroupID == groupID && passenger.PNRStatus == rail.PNRStatusRAC && passenger.Travelling() {
			members = append(members, passenger)
		}
	}

	if strategy == nil {
		return members, nil
	}
	return strategy.Order(members)
}
