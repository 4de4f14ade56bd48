package workflow

import (
	"sort"
	"time"
)

// perStepEstimate is the fixed advisory cost used by EstimateDuration.
// It is reporting-only and never a scheduling input.
const perStepEstimate = 500 * time.Millisecond

// CreatePlan orders steps with a stable Kahn topological sort: among
// steps with zero remaining in-degree, the lowest declaration order
// wins. The same step set therefore always yields the same plan,
// independent of map iteration order.
func CreatePlan(steps []*Step) (*ExecutionPlan, error) {
	index := make(map[string]int, len(steps))
	for i, s := range steps {
		index[s.ID] = i
	}

	// In-degree per step, plus the reverse adjacency used to release
	// dependents as their dependencies complete.
	indegree := make(map[string]int, len(steps))
	dependents := make(map[string][]string, len(steps))
	for _, s := range steps {
		indegree[s.ID] = 0
	}
	for _, s := range steps {
		for _, dep := range s.DependsOn {
			if dep == s.ID {
				return nil, &MalformedStepError{StepID: s.ID, Reason: "step depends on itself"}
			}
			if _, ok := index[dep]; !ok {
				return nil, &UnresolvedReferenceError{Referrer: s.ID, Ref: dep}
			}
			indegree[s.ID]++
			dependents[dep] = append(dependents[dep], s.ID)
		}
	}

	var ready []string
	for _, s := range steps {
		if indegree[s.ID] == 0 {
			ready = append(ready, s.ID)
		}
	}

	ordered := make([]*Step, 0, len(steps))
	for len(ready) > 0 {
		// Lowest declaration order among the ready steps.
		sort.Slice(ready, func(i, j int) bool {
			return index[ready[i]] < index[ready[j]]
		})
		id := ready[0]
		ready = ready[1:]

		ordered = append(ordered, steps[index[id]])
		for _, dep := range dependents[id] {
			indegree[dep]--
			if indegree[dep] == 0 {
				ready = append(ready, dep)
			}
		}
	}

	if len(ordered) != len(steps) {
		placed := make(map[string]bool, len(ordered))
		for _, s := range ordered {
			placed[s.ID] = true
		}
		var cycle []string
		for _, s := range steps {
			if !placed[s.ID] {
				cycle = append(cycle, s.ID)
			}
		}
		return nil, &CycleDetectedError{StepIDs: cycle}
	}

	return &ExecutionPlan{
		Steps:        ordered,
		Dependencies: ExtractDependencies(ordered),
	}, nil
}

// ExtractDependencies maps each step ID to its dependsOn list.
func ExtractDependencies(steps []*Step) map[string][]string {
	deps := make(map[string][]string, len(steps))
	for _, s := range steps {
		deps[s.ID] = append([]string(nil), s.DependsOn...)
	}
	return deps
}

// EstimateDuration returns an advisory run estimate for the
// validate-only path: a fixed per-step constant times the plan length.
func EstimateDuration(plan *ExecutionPlan) time.Duration {
	return time.Duration(len(plan.Steps)) * perStepEstimate
}
