package layering

import (
	"fmt"
	"slices"
)

// Kind categorizes the traversal construct a scope frame belongs to. Inner
// kinds shadow outer kinds when layering snapshots.
type Kind int

const (
	// KindUnknown guards against misconfiguration so call sites can detect
	// missing metadata.
	KindUnknown Kind = iota
	// KindGlobal represents the outermost frame (module or program scope).
	KindGlobal
	// KindFunction represents a function or closure body frame.
	KindFunction
	// KindBlock represents the innermost frames (loops, conditionals, lexical
	// blocks).
	KindBlock
)

func (k Kind) String() string {
	switch k {
	case KindGlobal:
		return "global"
	case KindFunction:
		return "function"
	case KindBlock:
		return "block"
	default:
		return "unknown"
	}
}

// ParseKind converts a string representation into the corresponding Kind.
// Returns KindUnknown for unrecognised values.
func ParseKind(value string) Kind {
	switch value {
	case "global", "GLOBAL":
		return KindGlobal
	case "function", "FUNCTION":
		return KindFunction
	case "block", "BLOCK":
		return KindBlock
	default:
		return KindUnknown
	}
}

// Frame names one nesting level within a layering chain.
type Frame struct {
	Key  string // logical key for the binding domain (e.g., "constraints")
	Kind Kind   // nesting category
	ID   string // frame identifier when Kind is function or block
}

// Identifier returns a stable slug usable when composing deterministic trace
// or event keys (e.g., "block/f3a1/constraints").
func (f Frame) Identifier() string {
	switch f.Kind {
	case KindFunction:
		return fmt.Sprintf("function/%s/%s", f.ID, f.Key)
	case KindBlock:
		return fmt.Sprintf("block/%s/%s", f.ID, f.Key)
	case KindGlobal:
		return fmt.Sprintf("global/%s", f.Key)
	default:
		return fmt.Sprintf("unknown/%s", f.Key)
	}
}

// Chain describes the ordered layering sequence from innermost to outermost.
type Chain struct {
	ordered []Frame
}

// NewChain constructs a chain and deduplicates frames using their Identifier.
// The resulting order always places inner kinds before outer ones while
// keeping relative ordering for peers.
func NewChain(frames ...Frame) Chain {
	filtered := make([]Frame, 0, len(frames))
	seen := map[string]struct{}{}

	for _, frame := range frames {
		if frame.Kind == KindUnknown {
			continue
		}
		id := frame.Identifier()
		if _, exists := seen[id]; exists {
			continue
		}
		seen[id] = struct{}{}
		filtered = append(filtered, frame)
	}

	slices.SortStableFunc(filtered, func(a, b Frame) int {
		if a.Kind == b.Kind {
			return 0
		}
		if a.Kind > b.Kind {
			return -1
		}
		return 1
	})

	return Chain{ordered: filtered}
}

// Ordered returns the layering sequence from innermost (index 0) to outermost.
func (c Chain) Ordered() []Frame {
	out := make([]Frame, len(c.ordered))
	copy(out, c.ordered)
	return out
}

// Innermost returns the first frame in the chain (zero frame if empty).
func (c Chain) Innermost() Frame {
	if len(c.ordered) == 0 {
		return Frame{}
	}
	return c.ordered[0]
}

// Outermost returns the final frame in the chain (zero frame if empty).
func (c Chain) Outermost() Frame {
	if len(c.ordered) == 0 {
		return Frame{}
	}
	return c.ordered[len(c.ordered)-1]
}
