package render

import (
	"math"
	"math/rand"
	"time"

	"github.com/planfold/plotd/internal/model"
)

// Force simulation constants. The simulation runs a fixed number of ticks
// with a decaying alpha, the same shape as the d3-force scheduler the
// browser renderer used.
const (
	simTicks       = 300
	alphaInitial   = 1.0
	alphaDecay     = 0.0228 // 1 - (0.001)^(1/300)
	chargeStrength = -180.0 // inter-node repulsion
	linkDistance   = 80.0
	linkStrength   = 0.4
	centerStrength = 0.05
	collidePadding = 4.0
	velocityDecay  = 0.6
)

type simNode struct {
	node   *model.GraphNode
	x, y   float64
	vx, vy float64
	radius float64
	pinned bool
}

// ForceLayout places graph nodes with a force-directed simulation:
// centering toward the viewport middle, pairwise repulsion, spring forces
// along links, and collision avoidance between node circles. Positions are
// not deterministic across runs unless a seed is fixed or nodes are pinned.
//
// Nodes with Pinned set keep their X/Y through every tick; the rest of the
// graph relaxes around them.
func ForceLayout(p *model.GraphPayload, width, height float64, seed int64) {
	if len(p.Nodes) == 0 {
		return
	}

	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	nodes := make([]*simNode, len(p.Nodes))
	index := make(map[string]*simNode, len(p.Nodes))
	for i := range p.Nodes {
		n := &p.Nodes[i]
		sn := &simNode{node: n, radius: nodeRadius(*n) + collidePadding, pinned: n.Pinned}
		if n.Pinned || n.X != 0 || n.Y != 0 {
			sn.x, sn.y = n.X, n.Y
		} else {
			// Phyllotaxis-style initial placement around the center keeps
			// the first ticks from exploding.
			angle := float64(i) * 2.399963
			r := 10 * math.Sqrt(float64(i+1))
			sn.x = width/2 + r*math.Cos(angle) + rng.Float64()
			sn.y = height/2 + r*math.Sin(angle) + rng.Float64()
		}
		nodes[i] = sn
		index[n.ID] = sn
	}

	alpha := alphaInitial
	for tick := 0; tick < simTicks; tick++ {
		alpha += (0 - alpha) * alphaDecay

		applyCharge(nodes, alpha)
		applyLinks(p.Links, index, alpha)
		applyCenter(nodes, width/2, height/2, alpha)
		applyCollide(nodes)

		for _, sn := range nodes {
			if sn.pinned {
				sn.vx, sn.vy = 0, 0
				continue
			}
			sn.vx *= velocityDecay
			sn.vy *= velocityDecay
			sn.x += sn.vx
			sn.y += sn.vy
		}
	}

	for _, sn := range nodes {
		sn.node.X = clamp(sn.x, sn.radius, width-sn.radius)
		sn.node.Y = clamp(sn.y, sn.radius, height-sn.radius)
	}
}

// applyCharge adds pairwise repulsion between all nodes.
func applyCharge(nodes []*simNode, alpha float64) {
	for i := 0; i < len(nodes); i++ {
		for j := i + 1; j < len(nodes); j++ {
			a, b := nodes[i], nodes[j]
			dx, dy := b.x-a.x, b.y-a.y
			d2 := dx*dx + dy*dy
			if d2 == 0 {
				dx, d2 = 1e-6, 1e-12
			}
			f := chargeStrength * alpha / d2
			fx, fy := dx*f, dy*f
			a.vx += fx
			a.vy += fy
			b.vx -= fx
			b.vy -= fy
		}
	}
}

// applyLinks pulls linked nodes toward the configured link distance.
func applyLinks(links []model.GraphLink, index map[string]*simNode, alpha float64) {
	for _, l := range links {
		a, b := index[l.Source], index[l.Target]
		if a == nil || b == nil {
			continue
		}
		dx, dy := b.x-a.x, b.y-a.y
		d := math.Hypot(dx, dy)
		if d == 0 {
			d, dx = 1e-6, 1e-6
		}
		f := (d - linkDistance) / d * linkStrength * alpha
		fx, fy := dx*f, dy*f
		a.vx += fx
		a.vy += fy
		b.vx -= fx
		b.vy -= fy
	}
}

// applyCenter nudges every node toward the viewport center.
func applyCenter(nodes []*simNode, cx, cy, alpha float64) {
	for _, sn := range nodes {
		sn.vx += (cx - sn.x) * centerStrength * alpha
		sn.vy += (cy - sn.y) * centerStrength * alpha
	}
}

// applyCollide separates overlapping node circles directly (position
// adjustment, not velocity), one pass per tick.
func applyCollide(nodes []*simNode) {
	for i := 0; i < len(nodes); i++ {
		for j := i + 1; j < len(nodes); j++ {
			a, b := nodes[i], nodes[j]
			dx, dy := b.x-a.x, b.y-a.y
			d := math.Hypot(dx, dy)
			min := a.radius + b.radius
			if d >= min || d == 0 {
				continue
			}
			push := (min - d) / d / 2
			px, py := dx*push, dy*push
			if !a.pinned {
				a.x -= px
				a.y -= py
			}
			if !b.pinned {
				b.x += px
				b.y += py
			}
		}
	}
}

func nodeRadius(n model.GraphNode) float64 {
	if n.Size > 0 {
		return n.Size
	}
	return 14
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		return lo
	}
	return math.Min(math.Max(v, lo), hi)
}

// graphScene draws a laid-out graph payload: links first, then node
// circles with labels on top.
func graphScene(p *model.GraphPayload, width, height float64) *Scene {
	s := &Scene{Width: width, Height: height}

	pos := make(map[string]model.GraphNode, len(p.Nodes))
	for _, n := range p.Nodes {
		pos[n.ID] = n
	}

	for _, l := range p.Links {
		a, b := pos[l.Source], pos[l.Target]
		s.add(Line{X1: a.X, Y1: a.Y, X2: b.X, Y2: b.Y, Arrow: true})
	}

	for _, n := range p.Nodes {
		s.add(Circle{CX: n.X, CY: n.Y, R: nodeRadius(n), Fill: colorFor(n.Type), Stroke: "#ffffff"})
		label := n.Label
		if label == "" {
			label = n.ID
		}
		s.add(Text{X: n.X, Y: n.Y + nodeRadius(n) + 14, Value: label, Anchor: "middle"})
	}

	return s
}
