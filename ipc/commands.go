package ipc

import "github.com/nstehr/vimy/vimy-tactics/model"

// Order is one engine order. Units given the same order in a tick share a
// single Order so the engine can issue it as a group.
type Order struct {
	Kind      model.OrderKind `json:"kind"`
	UnitTags  []model.Tag     `json:"unit_tags"`
	X         float64         `json:"x"`
	Y         float64         `json:"y"`
	TargetTag model.Tag       `json:"target_tag,omitempty"`
	Item      string          `json:"item,omitempty"`
}

// CommandsMessage is the reply to a game_state: every order for that tick.
type CommandsMessage struct {
	Iteration int     `json:"iteration"`
	Orders    []Order `json:"orders"`
}

type orderKey struct {
	kind      model.OrderKind
	target    model.Point
	targetTag model.Tag
	item      string
}

// NewCommands groups cmds by identical order. Groups keep the order in which
// they first appear, and tags keep batch order within a group.
func NewCommands(iteration int, cmds []model.Command) CommandsMessage {
	msg := CommandsMessage{Iteration: iteration, Orders: []Order{}}
	index := make(map[orderKey]int)
	for _, c := range cmds {
		k := orderKey{c.Kind, c.Target, c.TargetTag, c.Item}
		// Train and build orders name one producer each.
		if c.Kind == model.OrderTrain || c.Kind == model.OrderBuild {
			msg.Orders = append(msg.Orders, toOrder(c))
			continue
		}
		if i, ok := index[k]; ok {
			msg.Orders[i].UnitTags = append(msg.Orders[i].UnitTags, c.Tag)
			continue
		}
		index[k] = len(msg.Orders)
		msg.Orders = append(msg.Orders, toOrder(c))
	}
	return msg
}

func toOrder(c model.Command) Order {
	return Order{
		Kind:      c.Kind,
		UnitTags:  []model.Tag{c.Tag},
		X:         c.Target.X,
		Y:         c.Target.Y,
		TargetTag: c.TargetTag,
		Item:      c.Item,
	}
}

// Len is the number of unit orders the message carries.
func (m CommandsMessage) Len() int {
	n := 0
	for _, o := range m.Orders {
		n += len(o.UnitTags)
	}
	return n
}
