package registrar

import "fmt"

// DefaultUnitCap is the maximum number of units a student may carry.
const DefaultUnitCap = 18

// Decision is the result of evaluating one registration against the cap.
type Decision struct {
	Admit          bool
	AttemptedTotal int
	Cap            int
}

// Policy is the capacity rule: a registration is admitted while the
// student's load including the new course stays at or below Cap.
type Policy struct {
	Cap int
}

// NewPolicy returns a policy for unitCap, which must be positive.
func NewPolicy(unitCap int) (Policy, error) {
	if unitCap <= 0 {
		return Policy{}, fmt.Errorf("unit cap must be positive, got %d", unitCap)
	}
	return Policy{Cap: unitCap}, nil
}

// DefaultPolicy returns the policy for DefaultUnitCap.
func DefaultPolicy() Policy {
	return Policy{Cap: DefaultUnitCap}
}

// Evaluate decides whether incomingUnits fit on top of currentUnits.
func (p Policy) Evaluate(currentUnits, incomingUnits int) Decision {
	return Evaluate(currentUnits, incomingUnits, p.Cap)
}

// Evaluate admits when currentUnits+incomingUnits <= unitCap. Reaching the cap
// exactly is allowed.
func Evaluate(currentUnits, incomingUnits, unitCap int) Decision {
	total := currentUnits + incomingUnits
	return Decision{
		Admit:          total <= unitCap,
		AttemptedTotal: total,
		Cap:            unitCap,
	}
}
