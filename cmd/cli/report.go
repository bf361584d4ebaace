package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"

	"github.com/limaJavier/satmodel/pkg/problems/airport"
	"github.com/limaJavier/satmodel/pkg/problems/logicgrid"
	"github.com/limaJavier/satmodel/pkg/problems/staffing"
	"github.com/limaJavier/satmodel/pkg/problems/supplychain"
	"github.com/limaJavier/satmodel/pkg/problems/tour"
)

var styles = struct {
	title   lipgloss.Style
	label   lipgloss.Style
	record  lipgloss.Style
	failure lipgloss.Style
}{
	title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
	label:   lipgloss.NewStyle().Faint(true),
	record:  lipgloss.NewStyle().PaddingLeft(2),
	failure: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
}

func renderLogic(result logicgrid.Result, input logicgrid.Input) string {
	lines := lo.Map(result.Rows, func(row logicgrid.Row, _ int) string {
		values := lo.Map(input.Attributes, func(attribute logicgrid.Attribute, _ int) string {
			return fmt.Sprintf("%v=%v", attribute.Name, row.Values[attribute.Name])
		})
		return fmt.Sprintf("%-10v %v", row.Entity, strings.Join(values, " "))
	})
	return strings.Join(lines, "\n")
}

func renderStaffing(result staffing.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Projects: %v\n", strings.Join(result.Projects, ", "))
	for _, a := range result.Assignments {
		fmt.Fprintf(&b, "%v %v: %v by %v (%d)\n", a.Project, a.Month, a.Job, a.Contractor, a.Quote)
	}
	fmt.Fprintf(&b, "Value %d, cost %d, profit %d", result.Value, result.Cost, result.Profit)
	return b.String()
}

func renderSupply(result supplychain.Result) string {
	var b strings.Builder
	for _, bill := range result.Bills {
		fmt.Fprintf(&b, "%v pays %v %.2f\n", bill.Factory, bill.Supplier, bill.Amount)
	}
	for _, p := range result.Production {
		fmt.Fprintf(&b, "%v makes %d %v\n", p.Factory, p.Units, p.Product)
	}
	for _, factory := range sortedKeys(result.Manufacturing) {
		fmt.Fprintf(&b, "%v manufacturing cost %.2f\n", factory, result.Manufacturing[factory])
	}
	for _, d := range result.Deliveries {
		fmt.Fprintf(&b, "%v ships %d %v to %v\n", d.Factory, d.Units, d.Product, d.Customer)
	}
	for _, customer := range sortedKeys(result.Shipping) {
		fmt.Fprintf(&b, "%v shipping cost %.2f\n", customer, result.Shipping[customer])
	}
	for _, u := range result.UnitCosts {
		fmt.Fprintf(&b, "%v pays %.2f per %v from %v\n", u.Customer, u.Cost, u.Product, u.Factory)
	}
	fmt.Fprintf(&b, "Total cost %.2f", result.Total)
	return b.String()
}

func renderTour(result tour.Result) string {
	return fmt.Sprintf("%v\nDistance %.1f", strings.Join(result.Route, " -> "), result.Distance)
}

func renderAirport(result airport.Result) string {
	var b strings.Builder
	for _, a := range result.Allocations {
		fmt.Fprintf(&b, "%v lands on %v, parks at %v, leaves from %v (taxi %.0f)\n", a.Flight, a.ArrivalRunway, a.Terminal, a.DepartureRunway, a.Taxi)
	}
	for _, o := range result.Occupancy {
		fmt.Fprintf(&b, "slot %d %v: %v\n", o.Time, o.Terminal, strings.Join(o.Flights, ", "))
	}
	fmt.Fprintf(&b, "Taxi distance %.0f", result.Distance)
	return b.String()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := lo.Keys(m)
	slices.Sort(keys)
	return keys
}
