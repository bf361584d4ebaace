package logicgrid

import "fmt"

type ClueKind string

const (
	// Every fact holds
	ClueFact ClueKind = "fact"
	// Exactly one of two facts holds
	ClueXor ClueKind = "xor"
	// The first fact implies the second
	ClueImplies ClueKind = "implies"
	// The first fact implies at least one of the remaining ones
	ClueImpliesAny ClueKind = "implies_any"
	// At least one fact holds
	ClueAny ClueKind = "any"
)

type Attribute struct {
	Name   string   `mapstructure:"name"`
	Values []string `mapstructure:"values"`
	// Unique attributes give every entity a different value
	Unique bool `mapstructure:"unique"`
}

// Fact states that an entity has (or, when Not is set, lacks) a value of an attribute
type Fact struct {
	Entity    string `mapstructure:"entity"`
	Attribute string `mapstructure:"attribute"`
	Value     string `mapstructure:"value"`
	Not       bool   `mapstructure:"not"`
}

func (f Fact) String() string {
	if f.Not {
		return fmt.Sprintf("%v is not %v=%v", f.Entity, f.Attribute, f.Value)
	}
	return fmt.Sprintf("%v is %v=%v", f.Entity, f.Attribute, f.Value)
}

type Clue struct {
	Kind  ClueKind `mapstructure:"kind"`
	Facts []Fact   `mapstructure:"facts"`
}

type Input struct {
	Entities   []string    `mapstructure:"entities"`
	Attributes []Attribute `mapstructure:"attributes"`
	Clues      []Clue      `mapstructure:"clues"`
}

func (input Input) attribute(name string) (int, Attribute, bool) {
	for i, attribute := range input.Attributes {
		if attribute.Name == name {
			return i, attribute, true
		}
	}
	return 0, Attribute{}, false
}

// holds evaluates a fact against a decoded result
func (input Input) holds(result Result, fact Fact) bool {
	row, ok := result.Row(fact.Entity)
	if !ok {
		return false
	}
	return (row.Values[fact.Attribute] == fact.Value) != fact.Not
}

func fact(entity, attribute, value string) Fact {
	return Fact{Entity: entity, Attribute: attribute, Value: value}
}

func not(entity, attribute, value string) Fact {
	return Fact{Entity: entity, Attribute: attribute, Value: value, Not: true}
}

// StudentsPuzzle is the four students puzzle: two boys and two girls from different countries study different
// subjects at different universities.
func StudentsPuzzle() Input {
	students := []string{"Carol", "Elisa", "Oliver", "Lucas"}
	clues := []Clue{
		{Kind: ClueFact, Facts: []Fact{
			fact("Carol", "gender", "girl"), fact("Elisa", "gender", "girl"),
			fact("Oliver", "gender", "boy"), fact("Lucas", "gender", "boy"),
		}},
		// One of them is going to London
		{Kind: ClueXor, Facts: []Fact{fact("Carol", "university", "Cambridge"), fact("Elisa", "university", "Edinburgh")}},
		{Kind: ClueXor, Facts: []Fact{fact("Lucas", "university", "London"), fact("Oliver", "university", "Oxford")}},
		// Exactly one boy is Australian and the other studies History
		{Kind: ClueXor, Facts: []Fact{fact("Lucas", "nationality", "Australia"), fact("Oliver", "nationality", "Australia")}},
		{Kind: ClueImplies, Facts: []Fact{not("Lucas", "nationality", "Australia"), fact("Lucas", "subject", "History")}},
		{Kind: ClueImplies, Facts: []Fact{not("Oliver", "nationality", "Australia"), fact("Oliver", "subject", "History")}},
		// A girl goes to Cambridge and the other studies Medicine
		{Kind: ClueXor, Facts: []Fact{fact("Carol", "university", "Cambridge"), fact("Carol", "subject", "Medicine")}},
		{Kind: ClueImplies, Facts: []Fact{fact("Carol", "subject", "Medicine"), fact("Elisa", "university", "Cambridge")}},
		{Kind: ClueImplies, Facts: []Fact{fact("Elisa", "subject", "Medicine"), fact("Carol", "university", "Cambridge")}},
		{Kind: ClueFact, Facts: []Fact{
			not("Oliver", "university", "Cambridge"), not("Lucas", "university", "Cambridge"),
			not("Oliver", "subject", "Medicine"), not("Lucas", "subject", "Medicine"),
		}},
		// Oliver is not South African
		{Kind: ClueFact, Facts: []Fact{not("Oliver", "nationality", "SouthAfrica")}},
		// Oliver either studies Law or is American, never both
		{Kind: ClueXor, Facts: []Fact{fact("Oliver", "subject", "Law"), fact("Oliver", "nationality", "USA")}},
	}
	for _, student := range students {
		// The Canadian studies History or goes to Oxford
		clues = append(clues, Clue{Kind: ClueImpliesAny, Facts: []Fact{
			fact(student, "nationality", "Canada"), fact(student, "subject", "History"), fact(student, "university", "Oxford"),
		}})
		// The South African studies Law or goes to Edinburgh
		clues = append(clues, Clue{Kind: ClueImpliesAny, Facts: []Fact{
			fact(student, "nationality", "SouthAfrica"), fact(student, "subject", "Law"), fact(student, "university", "Edinburgh"),
		}})
	}

	return Input{
		Entities: students,
		Attributes: []Attribute{
			{Name: "gender", Values: []string{"boy", "girl"}},
			{Name: "nationality", Values: []string{"Australia", "USA", "SouthAfrica", "Canada"}, Unique: true},
			{Name: "university", Values: []string{"Oxford", "Cambridge", "Edinburgh", "London"}, Unique: true},
			{Name: "subject", Values: []string{"History", "Law", "Architecture", "Medicine"}, Unique: true},
		},
		Clues: clues,
	}
}
