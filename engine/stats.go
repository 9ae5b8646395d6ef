package engine

// Scale is the fixed-point denominator for ratio values: 1024 represents
// 100%. All stat arithmetic is integer; nothing on the transition path
// touches a float.
const Scale = 1024

// Condition is a reverse-dependency rule: it reads only persisted state
// (never a computed upper layer) and contributes a final multiplier to one
// stat. This is the only sanctioned way to express effects like "low HP
// slows you down" without introducing a cycle into the Core->Derived->
// Speed/Cost->Modifiers->ResourceMax pass.
type Condition struct {
	Stat      StatKind
	Predicate func(Actor) bool
	Ratio     int32 // scaled integer, applied as a final multiplier
}

// DefaultConditions returns the built-in reverse-dependency rules: a
// Lucidity-exhaustion penalty and a low-HP speed penalty. The Lucidity rule
// scales attack only; no other stat reads Lucidity.
func DefaultConditions() []Condition {
	return []Condition{
		{
			Stat:      StatSpeed,
			Predicate: func(a Actor) bool { return a.Resources.HP*4 < maxHP(a.Stats) },
			Ratio:     768, // 25% slower below quarter HP
		},
		{
			Stat:      StatAttack,
			Predicate: func(a Actor) bool { return a.Resources.Lucidity <= 0 },
			Ratio:     512, // lucidity exhaustion halves effective attack
		},
	}
}

// Snapshot is the frozen per-action stat computation: Core -> Derived ->
// Speed/Cost -> Modifiers -> ResourceMax, in exactly that order, in a
// single pass. Once computed it is immutable for the duration of the
// action; apply() reads Snapshot fields, never recomputes them mid-action.
type Snapshot struct {
	Core        CoreStats
	Attack      int32
	Defense     int32
	Speed       int32 // speed rating, higher is faster; ActionCost holds the ticks
	ActionCost  int32
	ResourceMax Resources
}

// ComputeSnapshot runs the full layered pass for actor, applying mods in
// fixed stacking order: Flat -> %Inc (summed) -> More (multiplied) ->
// Less (multiplied) -> Clamp -> Conditions.
func ComputeSnapshot(actor Actor, mods []Modifier, conditions []Condition) Snapshot {
	core := actor.Stats

	attack := stack(core.STR*4, StatAttack, mods, conditions, actor)
	defense := stack(core.CON*3, StatDefense, mods, conditions, actor)
	speed := stack(baseSpeed(core), StatSpeed, mods, conditions, actor)
	maxHPVal := stack(maxHP(core), StatResourceHP, mods, conditions, actor)
	maxMPVal := stack(maxMP(core), StatResourceMP, mods, conditions, actor)

	cost := speedToCost(speed)

	return Snapshot{
		Core:       core,
		Attack:     attack,
		Defense:    defense,
		Speed:      speed,
		ActionCost: cost,
		ResourceMax: Resources{
			HP:       clampNonNeg(maxHPVal),
			MP:       clampNonNeg(maxMPVal),
			Lucidity: actor.Resources.Lucidity, // Lucidity max is fixed at mint time, not derived
		},
	}
}

func baseSpeed(core CoreStats) int32 { return 100 + core.DEX*2 }
func maxHP(core CoreStats) int32     { return 20 + core.CON*8 + core.Level*5 }
func maxMP(core CoreStats) int32     { return 10 + core.INT*6 + core.Level*3 }

// speedToCost converts a speed rating (higher = faster) into the tick cost
// of a single base action. 100 speed = 100 ticks per action; doubling
// speed halves the cost, floored at 1 tick.
func speedToCost(speed int32) int32 {
	if speed <= 0 {
		return 100
	}
	cost := (100 * 100) / speed
	if cost < 1 {
		cost = 1
	}
	return cost
}

// stack folds Flat -> %Inc -> More -> Less -> Clamp -> Conditions for one
// stat, in that fixed order.
func stack(base int32, stat StatKind, mods []Modifier, conditions []Condition, actor Actor) int32 {
	v := base

	var flat, pctInc int32
	more := Scale
	less := Scale
	for _, m := range mods {
		if m.Stat != stat {
			continue
		}
		switch m.Kind {
		case ModFlat:
			flat += m.Value
		case ModPctInc:
			pctInc += m.Value
		case ModMore:
			more = scaleMul(more, Scale+m.Value)
		case ModLess:
			less = scaleMul(less, Scale-m.Value)
		}
	}

	v += flat
	v = scaleMul(v, Scale+pctInc)
	v = scaleMul(v, more)
	v = scaleMul(v, less)
	v = clampNonNeg(v)

	for _, c := range conditions {
		if c.Stat == stat && c.Predicate(actor) {
			v = scaleMul(v, c.Ratio)
		}
	}
	return v
}

func scaleMul(v, ratio int32) int32 {
	return int32((int64(v) * int64(ratio)) / Scale)
}

func clampNonNeg(v int32) int32 {
	if v < 0 {
		return 0
	}
	return v
}
