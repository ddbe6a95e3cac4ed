package navigation

import "github.com/lsmith090/CIPP-sub000/internal/authz"

// MenuNode is one entry in the static navigation definition. The
// definition tree is owned by configuration and is read-only at
// evaluation time; Filter produces pruned copies, never mutations.
type MenuNode struct {
	// ID uniquely identifies the entry within the menu document.
	ID string `mapstructure:"id" json:"id"`

	// Title is the display label. Opaque to this core.
	Title string `mapstructure:"title" json:"title,omitempty"`

	// Path is the direct navigable target, when the entry links somewhere
	// itself rather than only grouping children. A grouping node with a
	// Path survives filtering even when all of its children are pruned.
	Path string `mapstructure:"path" json:"path,omitempty"`

	// RequiredPermissions and RequiredRoles gate visibility through the
	// access decision. An entry declaring neither is fail-closed: it is
	// never shown, for any state. There is no implicit "always visible"
	// menu entry.
	RequiredPermissions []authz.Permission `mapstructure:"requiredPermissions" json:"requiredPermissions,omitempty"`
	RequiredRoles       []authz.Role       `mapstructure:"requiredRoles" json:"requiredRoles,omitempty"`

	Children []MenuNode `mapstructure:"children" json:"children,omitempty"`
}

// Menu is the versioned navigation document.
type Menu struct {
	Version int        `mapstructure:"version" json:"version"`
	Items   []MenuNode `mapstructure:"items" json:"items"`
}
