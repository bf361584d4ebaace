package supplychain

import (
	"context"
	"fmt"
	"slices"

	"github.com/samber/lo"

	"github.com/limaJavier/satmodel/pkg/decode"
	"github.com/limaJavier/satmodel/pkg/model"
	"github.com/limaJavier/satmodel/pkg/sat"
)

type Supplier struct {
	Name string `mapstructure:"name"`
	// Stock maps every material the supplier offers to the units available
	Stock map[string]int64 `mapstructure:"stock"`
	// Prices maps a material to its price per unit
	Prices map[string]float64 `mapstructure:"prices"`
	// Shipping maps a factory to the cost of shipping one unit of any material to it
	Shipping map[string]float64 `mapstructure:"shipping"`
}

type Product struct {
	Name string `mapstructure:"name"`
	// Requirements maps a material to the units consumed per product
	Requirements map[string]int64 `mapstructure:"requirements"`
	// Capacity maps every factory able to make the product to its maximum volume
	Capacity map[string]int64   `mapstructure:"capacity"`
	Cost     map[string]float64 `mapstructure:"cost"`
	// Demand maps a customer to the exact units they ordered
	Demand map[string]int64 `mapstructure:"demand"`
}

type Input struct {
	Factories []string   `mapstructure:"factories"`
	Customers []string   `mapstructure:"customers"`
	Suppliers []Supplier `mapstructure:"suppliers"`
	Products  []Product  `mapstructure:"products"`
	// Delivery maps factory and customer to the cost of shipping one product unit
	Delivery map[string]map[string]float64 `mapstructure:"delivery"`
}

// Materials lists every material offered by some supplier, sorted
func (input Input) Materials() []string {
	materials := lo.Uniq(lo.FlatMap(input.Suppliers, func(supplier Supplier, _ int) []string {
		return lo.Keys(supplier.Stock)
	}))
	slices.Sort(materials)
	return materials
}

type Order struct {
	Material string
	Factory  string
	Supplier string
	Units    int64
	// Cost includes material price and shipping
	Cost float64
}

type Bill struct {
	Factory  string
	Supplier string
	Amount   float64
}

type Production struct {
	Product string
	Factory string
	Units   int64
	Cost    float64
}

type Delivery struct {
	Product  string
	Factory  string
	Customer string
	Units    int64
	Cost     float64
}

type UnitCost struct {
	Customer string
	Product  string
	Factory  string
	Cost     float64
}

type Result struct {
	Orders     []Order
	Bills      []Bill
	Production []Production
	Deliveries []Delivery
	// Manufacturing is the production cost per factory
	Manufacturing map[string]float64
	// Shipping is the delivery cost per customer
	Shipping  map[string]float64
	UnitCosts []UnitCost
	Total     float64
}

type order struct {
	material string
	factory  string
	supplier int
}

type production struct {
	product int
	factory string
}

type delivery struct {
	product  int
	factory  string
	customer string
}

type Instance struct {
	Model      *model.Model
	input      Input
	orders     map[order]*model.Variable
	production map[production]*model.Variable
	deliveries map[delivery]*model.Variable
	// declaration order of the maps above
	orderKeys      []order
	productionKeys []production
	deliveryKeys   []delivery
}

func Build(input Input) (*Instance, error) {
	if err := validate(input); err != nil {
		return nil, err
	}

	m := model.NewModel()
	inst := &Instance{
		Model:      m,
		input:      input,
		orders:     make(map[order]*model.Variable),
		production: make(map[production]*model.Variable),
		deliveries: make(map[delivery]*model.Variable),
	}
	materials := input.Materials()

	//** Orders, bounded by the supplier stock
	for s, supplier := range input.Suppliers {
		for _, material := range materials {
			stock, ok := supplier.Stock[material]
			if !ok {
				continue
			}
			ordered := make([]*model.Variable, 0, len(input.Factories))
			for _, factory := range input.Factories {
				variable, err := m.Int(model.NewKey("order", material, factory, supplier.Name), 0, stock)
				if err != nil {
					return nil, err
				}
				key := order{material: material, factory: factory, supplier: s}
				inst.orders[key] = variable
				inst.orderKeys = append(inst.orderKeys, key)
				ordered = append(ordered, variable)
				if err := m.Objective().AddTerm(variable, supplier.Prices[material]+supplier.Shipping[factory]); err != nil {
					return nil, err
				}
			}
			if err := m.Add(model.AtMost(model.Ones(ordered...), stock)); err != nil {
				return nil, err
			}
		}
	}

	//** Production volumes; the capacity is the upper bound of each volume
	for p, product := range input.Products {
		for _, factory := range input.Factories {
			capacity, ok := product.Capacity[factory]
			if !ok {
				continue
			}
			variable, err := m.Int(model.NewKey("produce", product.Name, factory), 0, capacity)
			if err != nil {
				return nil, err
			}
			key := production{product: p, factory: factory}
			inst.production[key] = variable
			inst.productionKeys = append(inst.productionKeys, key)
			if err := m.Objective().AddTerm(variable, product.Cost[factory]); err != nil {
				return nil, err
			}
		}
	}

	//** Deliveries meet the demand exactly
	for p, product := range input.Products {
		for _, customer := range input.Customers {
			demand, ok := product.Demand[customer]
			if !ok {
				continue
			}
			delivered := make([]*model.Variable, 0, len(product.Capacity))
			for _, factory := range input.Factories {
				if _, ok := product.Capacity[factory]; !ok {
					continue
				}
				variable, err := m.Int(model.NewKey("deliver", product.Name, factory, customer), 0, demand)
				if err != nil {
					return nil, err
				}
				key := delivery{product: p, factory: factory, customer: customer}
				inst.deliveries[key] = variable
				inst.deliveryKeys = append(inst.deliveryKeys, key)
				delivered = append(delivered, variable)
				if err := m.Objective().AddTerm(variable, input.Delivery[factory][customer]); err != nil {
					return nil, err
				}
			}
			if err := m.Add(model.Equal(model.Ones(delivered...), demand)); err != nil {
				return nil, err
			}
		}
	}

	//** A factory ships no more than it produces
	for _, key := range inst.productionKeys {
		shipped := lo.Filter(inst.deliveryKeys, func(d delivery, _ int) bool {
			return d.product == key.product && d.factory == key.factory
		})
		if len(shipped) == 0 {
			continue
		}
		terms := lo.Map(shipped, func(d delivery, _ int) model.Term {
			return model.Term{Var: inst.deliveries[d], Coef: 1}
		})
		terms = append(terms, model.Term{Var: inst.production[key], Coef: -1})
		if err := m.Add(model.AtMost(terms, 0)); err != nil {
			return nil, err
		}
	}

	//** A factory orders at least the materials it consumes
	for _, factory := range input.Factories {
		for _, material := range materials {
			var terms []model.Term
			for _, key := range inst.productionKeys {
				units := input.Products[key.product].Requirements[material]
				if key.factory == factory && units > 0 {
					terms = append(terms, model.Term{Var: inst.production[key], Coef: -units})
				}
			}
			if len(terms) == 0 {
				continue
			}
			for _, key := range inst.orderKeys {
				if key.factory == factory && key.material == material {
					terms = append(terms, model.Term{Var: inst.orders[key], Coef: 1})
				}
			}
			if err := m.Add(model.AtLeast(terms, 0)); err != nil {
				return nil, err
			}
		}
	}

	return inst, nil
}

func validate(input Input) error {
	materials := input.Materials()
	for _, supplier := range input.Suppliers {
		for material := range supplier.Stock {
			if _, ok := supplier.Prices[material]; !ok {
				return fmt.Errorf("supplier %v has no price for %v", supplier.Name, material)
			}
		}
		if missing := lo.Without(input.Factories, lo.Keys(supplier.Shipping)...); len(missing) > 0 {
			return fmt.Errorf("supplier %v has no shipping cost to %v", supplier.Name, missing)
		}
	}
	for _, product := range input.Products {
		if unknown := lo.Without(lo.Keys(product.Requirements), materials...); len(unknown) > 0 {
			return fmt.Errorf("product %v requires materials no supplier stocks %v", product.Name, unknown)
		}
		if unknown := lo.Without(lo.Keys(product.Capacity), input.Factories...); len(unknown) > 0 {
			return fmt.Errorf("product %v has capacity in unknown factories %v", product.Name, unknown)
		}
		if unknown := lo.Without(lo.Keys(product.Demand), input.Customers...); len(unknown) > 0 {
			return fmt.Errorf("product %v is demanded by unknown customers %v", product.Name, unknown)
		}
		if len(product.Demand) > 0 && len(product.Capacity) == 0 {
			return fmt.Errorf("product %v is demanded but no factory makes it", product.Name)
		}
		for factory := range product.Capacity {
			if _, ok := product.Cost[factory]; !ok {
				return fmt.Errorf("product %v has no production cost in %v", product.Name, factory)
			}
			for customer := range product.Demand {
				if _, ok := input.Delivery[factory][customer]; !ok {
					return fmt.Errorf("no delivery cost from %v to %v", factory, customer)
				}
			}
		}
	}
	return nil
}

func (inst *Instance) Decode(solution model.Solution) (Result, error) {
	input := inst.input
	result := Result{
		Orders:        make([]Order, 0),
		Bills:         make([]Bill, 0),
		Production:    make([]Production, 0),
		Deliveries:    make([]Delivery, 0),
		Manufacturing: make(map[string]float64),
		Shipping:      make(map[string]float64),
		UnitCosts:     make([]UnitCost, 0),
	}

	//** Orders and supplier bills
	bills := make(map[[2]string]float64)
	for _, key := range inst.orderKeys {
		units := solution.Value(inst.orders[key])
		if units == 0 {
			continue
		}
		supplier := input.Suppliers[key.supplier]
		cost := float64(units) * (supplier.Prices[key.material] + supplier.Shipping[key.factory])
		result.Orders = append(result.Orders, Order{Material: key.material, Factory: key.factory, Supplier: supplier.Name, Units: units, Cost: cost})
		bills[[2]string{key.factory, supplier.Name}] += cost
		result.Total += cost
	}
	for _, factory := range input.Factories {
		for _, supplier := range input.Suppliers {
			if amount, ok := bills[[2]string{factory, supplier.Name}]; ok {
				result.Bills = append(result.Bills, Bill{Factory: factory, Supplier: supplier.Name, Amount: amount})
			}
		}
	}

	//** Manufacturing
	for _, key := range inst.productionKeys {
		units := solution.Value(inst.production[key])
		if units == 0 {
			continue
		}
		product := input.Products[key.product]
		cost := float64(units) * product.Cost[key.factory]
		result.Production = append(result.Production, Production{Product: product.Name, Factory: key.factory, Units: units, Cost: cost})
		result.Manufacturing[key.factory] += cost
		result.Total += cost
	}

	//** Deliveries
	for _, key := range inst.deliveryKeys {
		units := solution.Value(inst.deliveries[key])
		if units == 0 {
			continue
		}
		cost := float64(units) * input.Delivery[key.factory][key.customer]
		result.Deliveries = append(result.Deliveries, Delivery{
			Product:  input.Products[key.product].Name,
			Factory:  key.factory,
			Customer: key.customer,
			Units:    units,
			Cost:     cost,
		})
		result.Shipping[key.customer] += cost
		result.Total += cost
	}

	result.UnitCosts = unitCosts(result, input)
	return result, nil
}

// unitCosts prices one unit of every delivered product, charging materials at the average
// price the factory paid for them
func unitCosts(result Result, input Input) []UnitCost {
	paid := make(map[[2]string]float64)
	bought := make(map[[2]string]int64)
	for _, o := range result.Orders {
		paid[[2]string{o.Factory, o.Material}] += o.Cost
		bought[[2]string{o.Factory, o.Material}] += o.Units
	}

	costs := make([]UnitCost, 0, len(result.Deliveries))
	for _, d := range result.Deliveries {
		product, _ := lo.Find(input.Products, func(product Product) bool { return product.Name == d.Product })
		cost := product.Cost[d.Factory] + input.Delivery[d.Factory][d.Customer]
		materials := lo.Keys(product.Requirements)
		slices.Sort(materials)
		for _, material := range materials {
			key := [2]string{d.Factory, material}
			if bought[key] > 0 {
				cost += float64(product.Requirements[material]) * paid[key] / float64(bought[key])
			}
		}
		costs = append(costs, UnitCost{Customer: d.Customer, Product: d.Product, Factory: d.Factory, Cost: cost})
	}
	return costs
}

// TotalCost recomputes the cost of a plan from the input prices
func TotalCost(input Input) decode.Aggregate[Result] {
	return func(result Result) float64 {
		total := 0.0
		for _, o := range result.Orders {
			supplier, _ := lo.Find(input.Suppliers, func(supplier Supplier) bool { return supplier.Name == o.Supplier })
			total += float64(o.Units) * (supplier.Prices[o.Material] + supplier.Shipping[o.Factory])
		}
		for _, p := range result.Production {
			product, _ := lo.Find(input.Products, func(product Product) bool { return product.Name == p.Product })
			total += float64(p.Units) * product.Cost[p.Factory]
		}
		for _, d := range result.Deliveries {
			total += float64(d.Units) * input.Delivery[d.Factory][d.Customer]
		}
		return total
	}
}

// Solve finds the cheapest plan meeting every customer demand
func Solve(ctx context.Context, adapter sat.Adapter, input Input, tolerance float64) (decode.Outcome[Result], error) {
	inst, err := Build(input)
	if err != nil {
		return decode.Outcome[Result]{}, err
	}
	handle, err := adapter.Build(inst.Model)
	if err != nil {
		return decode.Outcome[Result]{}, err
	}
	return decode.Optimize(ctx, adapter, handle, decode.DecoderFunc[Result](inst.Decode), TotalCost(input), tolerance)
}

// Verify checks stock, capacity, demand and material balance of a plan
func Verify(result Result, input Input) bool {
	ordered := make(map[[2]string]int64)
	for _, o := range result.Orders {
		ordered[[2]string{o.Supplier, o.Material}] += o.Units
	}
	for _, supplier := range input.Suppliers {
		for material, stock := range supplier.Stock {
			if ordered[[2]string{supplier.Name, material}] > stock {
				return false
			}
		}
	}

	produced := make(map[[2]string]int64)
	consumed := make(map[[2]string]int64)
	for _, p := range result.Production {
		product, ok := lo.Find(input.Products, func(product Product) bool { return product.Name == p.Product })
		if !ok || p.Units > product.Capacity[p.Factory] {
			return false
		}
		produced[[2]string{p.Product, p.Factory}] += p.Units
		for material, units := range product.Requirements {
			consumed[[2]string{p.Factory, material}] += units * p.Units
		}
	}

	received := make(map[[2]string]int64)
	for _, o := range result.Orders {
		received[[2]string{o.Factory, o.Material}] += o.Units
	}
	for key, units := range consumed {
		if received[key] < units {
			return false
		}
	}

	shipped := make(map[[2]string]int64)
	delivered := make(map[[2]string]int64)
	for _, d := range result.Deliveries {
		shipped[[2]string{d.Product, d.Factory}] += d.Units
		delivered[[2]string{d.Product, d.Customer}] += d.Units
	}
	for key, units := range shipped {
		if units > produced[key] {
			return false
		}
	}
	for _, product := range input.Products {
		for customer, demand := range product.Demand {
			if delivered[[2]string{product.Name, customer}] != demand {
				return false
			}
		}
	}
	return true
}
