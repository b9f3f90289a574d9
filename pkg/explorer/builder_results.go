package explorer

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/vanderheijden86/orbview/pkg/debug"
	"github.com/vanderheijden86/orbview/pkg/model"
)

// UnknownDuration labels passes whose timestamps cannot be parsed.
const UnknownDuration = "Unknown"

func (b *builder) resultsNode() *Node {
	plans, accepted := b.planNodes()
	orders := b.orderNodes()
	return group(IDResults, TypeResultGroup, "Results", []*Node{
		b.opportunitiesNode(),
		group(IDPlans, TypeResultGroup, "Plans", plans, newBadge(accepted, SeveritySuccess)),
		group(IDOrders, TypeOrderGroup, "Orders", orders, newBadge(len(orders), SeverityInfo)),
	}, nil)
}

// ── Opportunities ──

type indexedPass struct {
	index int
	pass  model.Opportunity
}

// filteredPasses applies FilterByTarget while remembering each pass's
// position in the unfiltered list.
func (b *builder) filteredPasses() []indexedPass {
	filter := strings.TrimSpace(b.snap.FilterByTarget)
	passes := b.snap.Passes()
	out := make([]indexedPass, 0, len(passes))
	for i, p := range passes {
		if filter != "" && p.Target != filter {
			continue
		}
		out = append(out, indexedPass{index: i, pass: p})
	}
	return out
}

// OpportunityID returns the node id of the pass at index in the unfiltered
// pass list.
func OpportunityID(index int, target string) string {
	return fmt.Sprintf("opportunity_%d_%s", index, target)
}

func (b *builder) opportunitiesNode() *Node {
	passes := b.filteredPasses()

	hasSAR := false
	for _, p := range passes {
		if p.pass.IsSAR() {
			hasSAR = true
			break
		}
	}

	badge := newBadge(len(passes), SeverityInfo)
	if !hasSAR {
		return group(IDOpportunities, TypeOpportunityGroup, "Opportunities", opportunityNodes(passes), badge)
	}

	left, right, other := partitionByLookSide(passes)
	var children []*Node
	for _, part := range []struct {
		id, name string
		passes   []indexedPass
	}{
		{IDLeftLooking, "Left-Looking", left},
		{IDRightLooking, "Right-Looking", right},
		{IDOtherLooking, "Other", other},
	} {
		if len(part.passes) == 0 {
			continue
		}
		nodes := opportunityNodes(part.passes)
		children = append(children, group(part.id, TypeOpportunityGroup, part.name, nodes, newBadge(len(nodes), SeverityInfo)))
	}
	return group(IDOpportunities, TypeOpportunityGroup, "Opportunities", children, badge)
}

// partitionByLookSide splits passes into three disjoint groups: SAR passes
// looking left, SAR passes looking right, and everything else (optical
// passes and SAR passes with no usable look side).
func partitionByLookSide(passes []indexedPass) (left, right, other []indexedPass) {
	for _, p := range passes {
		switch {
		case p.pass.SAR != nil && strings.EqualFold(string(p.pass.SAR.LookSide), string(model.LookLeft)):
			left = append(left, p)
		case p.pass.SAR != nil && strings.EqualFold(string(p.pass.SAR.LookSide), string(model.LookRight)):
			right = append(right, p)
		default:
			other = append(other, p)
		}
	}
	return left, right, other
}

func opportunityNodes(passes []indexedPass) []*Node {
	nodes := make([]*Node, 0, len(passes))
	for _, p := range passes {
		duration := UnknownDuration
		if d, ok := p.pass.Duration(); ok {
			duration = formatDuration(d)
		}
		name := fmt.Sprintf("%s · %s · %s (%s)", p.pass.Target, p.pass.Satellite, clock(p.pass.StartTime), duration)
		nodes = append(nodes, &Node{
			ID:   OpportunityID(p.index, p.pass.Target),
			Type: TypeOpportunity,
			Name: name,
			Meta: OpportunityMeta{Index: p.index, Opportunity: p.pass, Duration: duration},
		})
	}
	return nodes
}

// clock returns the HH:MM:SS part of a timestamp, or the raw value when it
// does not parse.
func clock(ts string) string {
	t, err := model.ParseTime(ts)
	if err != nil {
		if ts == "" {
			return "?"
		}
		return ts
	}
	return t.Format("15:04:05")
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	m := int(d / time.Minute)
	s := int((d % time.Minute) / time.Second)
	if m == 0 {
		return fmt.Sprintf("%ds", s)
	}
	return fmt.Sprintf("%dm %02ds", m, s)
}

// ── Plans ──

// validAlgorithms returns the algorithms with a usable result, sorted.
func (b *builder) validAlgorithms() []string {
	algs := make([]string, 0, len(b.snap.Results))
	for alg, res := range b.snap.Results {
		if !res.Valid() {
			debug.Log("explorer: skipping malformed result for %q", alg)
			continue
		}
		algs = append(algs, alg)
	}
	sort.Strings(algs)
	return algs
}

// PlanItemID returns the node id of schedule entry index of algorithm.
func PlanItemID(algorithm string, index int) string {
	return fmt.Sprintf("plan_item_%s_%d", algorithm, index)
}

func (b *builder) planNodes() (nodes []*Node, accepted int) {
	for _, alg := range b.validAlgorithms() {
		res := b.snap.Results[alg]
		items := make([]*Node, 0, len(res.Schedule))
		for i, item := range res.Schedule {
			items = append(items, &Node{
				ID:   PlanItemID(alg, i),
				Type: TypePlanItem,
				Name: fmt.Sprintf("%s · %s · %s", item.Target, item.Satellite, clock(item.StartTime)),
				Meta: PlanItemMeta{Algorithm: alg, Index: i, Item: item},
			})
		}
		accepted += res.Metrics.Accepted
		nodes = append(nodes, &Node{
			ID:         "plan_" + alg,
			Type:       TypePlan,
			Name:       AlgorithmName(alg),
			Badge:      newBadge(res.Metrics.Accepted, SeveritySuccess),
			Meta:       PlanMeta{Algorithm: alg, Metrics: *res.Metrics, Items: len(items)},
			Children:   items,
			Expandable: true,
		})
	}
	return nodes, accepted
}

// ── Orders ──

// MatchesPlan reports whether an order's schedule carries the structural
// signature of plan: same length, and the same (target, start time) on the
// first and last entries. Orders carry no reference to the run that produced
// them, so this is an approximation: two different schedules can share the
// signature.
func MatchesPlan(order, plan []model.ScheduleItem) bool {
	if len(order) == 0 || len(order) != len(plan) {
		return false
	}
	last := len(order) - 1
	return sameSlot(order[0], plan[0]) && sameSlot(order[last], plan[last])
}

func sameSlot(a, b model.ScheduleItem) bool {
	return a.Target == b.Target && a.StartTime == b.StartTime
}

// orderNodes keeps only orders that match the current result of their
// algorithm, so orders from an earlier planning run stay out of the tree.
func (b *builder) orderNodes() []*Node {
	seen := make(map[string]bool)
	var nodes []*Node
	for _, o := range b.snap.Orders {
		if o.OrderID == "" {
			debug.Log("explorer: skipping order without id")
			continue
		}
		res := b.snap.Results[o.Algorithm]
		if !res.Valid() || !MatchesPlan(o.Schedule, res.Schedule) {
			debug.Log("explorer: order %s does not match the active %q plan", o.OrderID, o.Algorithm)
			continue
		}
		id := "order_" + o.OrderID
		if seen[id] {
			continue
		}
		seen[id] = true
		name := o.Name
		if name == "" {
			name = "Order " + o.OrderID
		}
		nodes = append(nodes, &Node{
			ID:    id,
			Type:  TypeOrder,
			Name:  name,
			Badge: newBadge(len(o.Schedule), SeverityInfo),
			Meta:  OrderMeta{Order: o},
		})
	}
	return nodes
}
