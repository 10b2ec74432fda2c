package statusbar

// mergeByPosition places every worker method's last output at its declared
// position and fills the remaining slots with the producer items.
//
// There are as many slots as worker methods plus producer items. Workers
// are walked in registration order and their methods by name. When a slot
// is already taken the newcomer takes it and the displaced entry moves to
// the overflow, which also receives out of range positions. Producer items
// fill the empty slots in snapshot order, the overflow is appended after the
// last slot, and entries with no text are dropped.
func mergeByPosition(frame Frame, workers []Worker) Frame {
	type method struct {
		position int
		output   OutputItem
	}

	var methods []method
	for _, w := range workers {
		for _, m := range sortedMethods(w) {
			methods = append(methods, method{position: m.Position, output: m.LastOutput.Clone()})
		}
	}

	total := len(methods) + len(frame)
	slots := make([]OutputItem, total)
	occupied := make([]bool, total)
	var overflow []OutputItem

	for _, m := range methods {
		if m.position < 0 || m.position >= total {
			overflow = append(overflow, m.output)
			continue
		}
		if occupied[m.position] {
			overflow = append(overflow, slots[m.position])
		}
		slots[m.position] = m.output
		occupied[m.position] = true
	}

	next := 0
	for _, item := range frame {
		for next < total && occupied[next] {
			next++
		}
		if next == total {
			overflow = append(overflow, item)
			continue
		}
		slots[next] = item
		occupied[next] = true
	}

	out := make(Frame, 0, total)
	for i, item := range slots {
		if occupied[i] && !item.Empty() {
			out = append(out, item)
		}
	}
	for _, item := range overflow {
		if !item.Empty() {
			out = append(out, item)
		}
	}
	return out
}

// mergeByOrder lays items out following the config order: a worker name
// contributes the outputs of all its methods, a producer name its item from
// the frame.
func mergeByOrder(cfg *Configuration, frame Frame, registry *Registry) Frame {
	out := make(Frame, 0, len(cfg.Order))
	producerIndex := 0

	for _, name := range cfg.Order {
		if w, ok := registry.Lookup(name); ok {
			for _, m := range sortedMethods(w) {
				if !m.LastOutput.Empty() {
					out = append(out, m.LastOutput.Clone())
				}
			}
			continue
		}

		if !isProducerModuleName(name) {
			continue
		}
		if producerIndex < len(frame) && !frame[producerIndex].Empty() {
			out = append(out, frame[producerIndex])
		}
		producerIndex++
	}
	return out
}

// useOrderMerge reports whether the config order names a registered worker
func useOrderMerge(cfg *Configuration, registry *Registry) bool {
	for _, name := range cfg.WorkerModules {
		if _, ok := registry.Lookup(name); ok {
			return true
		}
	}
	return false
}
