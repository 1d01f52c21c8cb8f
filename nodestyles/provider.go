package nodestyles

import (
	"context"
	"errors"

	"github.com/npillmayer/nodestyles/protocol"
	"github.com/npillmayer/nodestyles/style"
)

// Provider delivers the style information of nodes. Implementations may
// talk to a remote backend; every call may block and should honour ctx.
type Provider interface {
	// MatchedStyles returns the rules matching a node, optionally with the
	// rules of its pseudo-elements and the styles inherited from ancestors.
	MatchedStyles(ctx context.Context, id style.NodeID, includePseudo, includeInherited bool) (*protocol.MatchedStyles, error)
	// InlineStyles returns the inline and attribute styles of a node.
	InlineStyles(ctx context.Context, id style.NodeID) (*protocol.InlineStyles, error)
	// ComputedStyle returns the computed properties of a node.
	ComputedStyle(ctx context.Context, id style.NodeID) ([]protocol.ComputedProperty, error)
}

// Editor is implemented by providers which allow changing styles.
type Editor interface {
	SetStyleText(ctx context.Context, id style.StyleID, text string) error
	SetRuleSelector(ctx context.Context, id style.StyleID, selector string) error
	// AddRule adds an empty rule to the inspector style sheet of a frame,
	// creating the style sheet if necessary.
	AddRule(ctx context.Context, frameID string, selector string) (style.StyleID, error)
}

// Dispatcher is implemented by providers which process requests
// asynchronously. NodeStyles will wait for outstanding dispatches before
// finishing a refresh, if configured to do so.
type Dispatcher interface {
	WaitForPendingDispatches(ctx context.Context) error
}

// SelectorNode is implemented by nodes which are able to name a selector
// matching themselves. It is used by AddRule if no selector is given.
type SelectorNode interface {
	style.Node
	AppropriateSelector() string
}

// Errors returned by the editing operations.
var (
	ErrNotEditable  = errors.New("style is not editable")
	ErrNoStyleSheet = errors.New("style has no style sheet")
	ErrNoSelector   = errors.New("no selector for node")
)

// Options configure a NodeStyles. The mapstructure tags name the keys used
// in configuration files.
type Options struct {
	IncludePseudo     bool `mapstructure:"include-pseudo"`      // fetch rules of pseudo-elements
	IncludeInherited  bool `mapstructure:"include-inherited"`   // fetch styles of ancestors
	WaitForDispatches bool `mapstructure:"wait-for-dispatches"` // wait for a Dispatcher before finishing a refresh
}

// DefaultOptions returns the options used if nothing else is configured.
func DefaultOptions() Options {
	return Options{
		IncludePseudo:     true,
		IncludeInherited:  true,
		WaitForDispatches: true,
	}
}
