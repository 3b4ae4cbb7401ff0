// core/style.go
//
// Style cascade. For each element the resolver produces the effective value
// of every property key, applying in order of increasing precedence:
// built-in default, inherited parent value, the style chain (extends parents
// first), pseudo-class overlays for active states, then inline properties.

package core

import "github.com/kryonlabs/kryon-renderer/krb"

// Resolved returns the effective value of key for the element after the full
// cascade. Results are memoized per element, keyed by (style epoch, pseudo
// bitset).
func (d *Document) Resolved(id ElementID, key krb.PropertyKey) Value {
	return d.ResolveAll(id)[key]
}

// ResolveAll returns the element's complete resolved property map. The map
// is owned by the cache; callers must not mutate it.
func (d *Document) ResolveAll(id ElementID) map[krb.PropertyKey]Value {
	el := d.Get(id)
	if el.resolved != nil && el.resolvedEpoch == d.styleEpoch && el.resolvedPseudo == el.Pseudo {
		return el.resolved
	}

	m := make(map[krb.PropertyKey]Value, len(registry))

	// 1+2: defaults, then parent values for inherited keys.
	var parentMap map[krb.PropertyKey]Value
	if el.Parent != InvalidElement {
		parentMap = d.ResolveAll(el.Parent)
	}
	AllKeys(func(key krb.PropertyKey, info PropInfo) {
		if info.Inherited && parentMap != nil {
			m[key] = parentMap[key]
			return
		}
		m[key] = info.Default
	})

	// 3: style chain, ancestors first so children override.
	chain := d.styleChain(el.StyleID)
	for _, st := range chain {
		d.applyBlock(m, st.PropBlock)
	}

	// 4: pseudo overlays for currently active states. Overlay precedence
	// follows bit order: hover < active < focus < disabled.
	for _, state := range []krb.PseudoState{krb.PseudoHover, krb.PseudoActive, krb.PseudoFocus, krb.PseudoDisabled} {
		if el.Pseudo&state == 0 {
			continue
		}
		for _, st := range chain {
			for _, ps := range st.Pseudos {
				if ps.State == state {
					d.applyBlock(m, ps.PropBlock)
				}
			}
		}
	}

	// 5: inline properties, highest precedence.
	for k, v := range el.Inline {
		m[k] = v
	}

	// Input text owned by the runtime shadows the loaded value.
	if el.InputValue != "" {
		m[krb.PropValue] = StringValue(el.InputValue)
	}

	// The visible/checked shadows mirror the cascade, so a value set
	// through a named style behaves exactly like an inline one.
	if v := m[krb.PropVisibility]; v.Kind == KindBool {
		el.Visible = v.Bool
	}
	if v := m[krb.PropChecked]; v.Kind == KindBool {
		el.Checked = v.Bool
	}

	el.resolved = m
	el.resolvedEpoch = d.styleEpoch
	el.resolvedPseudo = el.Pseudo
	return m
}

func (d *Document) applyBlock(m map[krb.PropertyKey]Value, blockOffset uint32) {
	block, ok := d.Source.BlockAt(blockOffset)
	if !ok {
		return
	}
	for _, p := range block.Properties {
		if v, ok := DecodeProperty(d.Source, p); ok {
			m[p.Key] = v
		}
	}
}

// styleChain returns the style and its extends ancestors in application
// order: furthest ancestors first, multiple extends left-to-right with later
// parents overriding earlier ones, the style itself last. Cycles are
// rejected at parse; the depth cap here guards against hand-built documents.
func (d *Document) styleChain(styleID uint16) []*krb.Style {
	if styleID == krb.NoStyleID {
		return nil
	}
	st, ok := d.Source.StyleByID(styleID)
	if !ok {
		d.warnUnknownStyle(styleID, "")
		return nil
	}

	var chain []*krb.Style
	seen := make(map[uint16]bool)
	var walk func(s *krb.Style, depth int)
	walk = func(s *krb.Style, depth int) {
		if seen[s.ID] || depth > krb.MaxStyleChainDepth {
			return
		}
		seen[s.ID] = true
		for _, ext := range s.Extends {
			parent, ok := d.Source.StyleByID(ext)
			if !ok {
				d.warnUnknownStyle(ext, "")
				continue
			}
			walk(parent, depth+1)
		}
		chain = append(chain, s)
	}
	walk(st, 0)
	return chain
}

// ResolveWarnings re-checks style references and reports each problem once.
// Called after load so StyleError surfaces before the first frame.
func (d *Document) ResolveWarnings() {
	for i := range d.Elements {
		el := &d.Elements[i]
		if el.StyleID == krb.NoStyleID {
			continue
		}
		if _, ok := d.Source.StyleByID(el.StyleID); !ok {
			d.warnUnknownStyle(el.StyleID, "")
		}
	}
}
