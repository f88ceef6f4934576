package model

// OrderKind is the kind of order carried by a Command.
type OrderKind string

const (
	OrderMove       OrderKind = "move"
	OrderAttackMove OrderKind = "attack_move"
	OrderAttack     OrderKind = "attack"
	OrderBuild      OrderKind = "build"
	OrderTrain      OrderKind = "train"
)

// Command is one order in a tick's batch. Target is used by position orders,
// TargetTag by unit-targeted attacks, Item by build and train orders.
type Command struct {
	Tag       Tag       `json:"tag"`
	Kind      OrderKind `json:"kind"`
	Target    Point     `json:"target"`
	TargetTag Tag       `json:"targetTag,omitempty"`
	Item      string    `json:"item,omitempty"`
}

// Cost is the resource price of a unit or structure.
type Cost struct {
	Minerals int     `yaml:"minerals" json:"minerals"`
	Vespene  int     `yaml:"vespene" json:"vespene"`
	Supply   float64 `yaml:"supply" json:"supply"`
}

// Times scales a cost by n units.
func (c Cost) Times(n int) Cost {
	return Cost{Minerals: c.Minerals * n, Vespene: c.Vespene * n, Supply: c.Supply * float64(n)}
}
