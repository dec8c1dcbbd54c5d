package sets

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrCyclicDependency is returned when some sets can never be ordered
	ErrCyclicDependency = errors.New("sets: cyclic dependency")
	// ErrUnknownSet is returned when a set depends on a name that was never declared
	ErrUnknownSet = errors.New("sets: unknown set")
)

// Order returns the set names so that every set comes after all the sets it depends on.
//
// deps maps each set name to the names it depends on; leaf sets map to an empty list.
// The in-degree of a set is the number of times other sets name it, so the worklist
// drains from the outermost consumers inwards and the result is reversed before returning.
func Order(deps map[string][]string) ([]string, error) {
	indegree := make(map[string]int, len(deps))
	for name := range deps {
		indegree[name] += 0
	}
	for name, list := range deps {
		for _, dep := range list {
			if _, ok := deps[dep]; !ok {
				return nil, fmt.Errorf("%q depends on %q: %w", name, dep, ErrUnknownSet)
			}
			indegree[dep]++
		}
	}

	queue := make([]string, 0, len(deps))
	for name, n := range indegree {
		if n == 0 {
			queue = append(queue, name)
		}
	}
	sort.Strings(queue)

	consumerFirst := make([]string, 0, len(deps))
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		consumerFirst = append(consumerFirst, name)

		for _, dep := range deps[name] {
			indegree[dep]--
			if indegree[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}

	if len(consumerFirst) != len(deps) {
		var stuck []string
		for name, n := range indegree {
			if n > 0 {
				stuck = append(stuck, name)
			}
		}
		sort.Strings(stuck)
		return nil, fmt.Errorf("%w: %s", ErrCyclicDependency, strings.Join(stuck, ", "))
	}

	order := make([]string, len(consumerFirst))
	for i, name := range consumerFirst {
		order[len(order)-1-i] = name
	}
	return order, nil
}

// Union concatenates the member lists of the named sets in order. An element that
// appears in more than one set keeps its first position.
func Union[T comparable](names []string, members map[string][]T) []T {
	seen := make(map[T]struct{})
	var out []T
	for _, name := range names {
		for _, m := range members[name] {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			out = append(out, m)
		}
	}
	return out
}
