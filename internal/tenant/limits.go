package tenant

// Limits are the per-plan ceilings enforced when a tenant creates courses or
// customers. A nil field means the plan has no ceiling at all, so callers must
// check for nil rather than comparing against a sentinel value.
type Limits struct {
	Plan        Plan `json:"plan"`
	MaxStudents *int `json:"max_students,omitempty"`
	MaxCourses  *int `json:"max_courses,omitempty"`
}

func intPtr(n int) *int { return &n }

// LimitsForPlan resolves a plan to its ceilings. Unrecognised plans fall back
// to STARTER so a corrupt plan value can never grant unlimited capacity.
func LimitsForPlan(plan Plan) Limits {
	switch plan {
	case PlanProfessional:
		return Limits{
			Plan:        PlanProfessional,
			MaxStudents: intPtr(150),
			MaxCourses:  intPtr(15),
		}
	case PlanEnterprise:
		return Limits{
			Plan: PlanEnterprise,
		}
	default:
		return Limits{
			Plan:        PlanStarter,
			MaxStudents: intPtr(50),
			MaxCourses:  intPtr(5),
		}
	}
}

// AllowsStudents reports whether the plan admits one more student on top of
// the current count.
func (l Limits) AllowsStudents(current int) bool {
	return l.MaxStudents == nil || current < *l.MaxStudents
}

// AllowsCourses reports whether the plan admits one more course.
func (l Limits) AllowsCourses(current int) bool {
	return l.MaxCourses == nil || current < *l.MaxCourses
}
