package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/term2048/internal/engine"
	"github.com/vovakirdan/term2048/internal/input"
)

// Action is a semantic UI action, abstracted from physical key presses.
type Action int

const (
	ActionNone       Action = iota
	ActionMove              // Arrow keys, wasd, hjkl
	ActionYes               // Y - answer a dialog
	ActionNo                // N - answer a dialog
	ActionNewGame           // R - start over
	ActionBack              // B, Escape - go back to menu
	ActionScreenshot        // Ctrl+S - dump the screen to a file
	ActionQuit              // Q, Ctrl+C - exit game/session
)

// String returns a human-readable name for the action.
func (a Action) String() string {
	switch a {
	case ActionNone:
		return "None"
	case ActionMove:
		return "Move"
	case ActionYes:
		return "Yes"
	case ActionNo:
		return "No"
	case ActionNewGame:
		return "NewGame"
	case ActionBack:
		return "Back"
	case ActionScreenshot:
		return "Screenshot"
	case ActionQuit:
		return "Quit"
	default:
		return "Unknown"
	}
}

// KeyMapper translates Bubble Tea key messages to game actions.
// This centralizes key bindings and makes them testable.
type KeyMapper struct{}

// NewKeyMapper creates a new key mapper with default bindings.
func NewKeyMapper() *KeyMapper {
	return &KeyMapper{}
}

// MapKey translates a key message to an action.
// For ActionMove the direction is also returned.
func (km *KeyMapper) MapKey(msg tea.KeyMsg) (Action, engine.Direction) {
	key := msg.String()

	// Global quit keys
	switch key {
	case "ctrl+c", "q":
		return ActionQuit, 0
	case "ctrl+s":
		return ActionScreenshot, 0
	}

	// Dialog answers take precedence over movement keys
	switch key {
	case "y", "Y", "enter":
		return ActionYes, 0
	case "n", "N":
		return ActionNo, 0
	case "r":
		return ActionNewGame, 0
	case "b", "esc":
		return ActionBack, 0
	}

	if dir, ok := input.KeyDirection(key); ok {
		return ActionMove, dir
	}

	return ActionNone, 0
}

// MenuAction represents a menu-specific action derived from input.
type MenuAction int

const (
	MenuActionNone MenuAction = iota
	MenuActionUp
	MenuActionDown
	MenuActionSelect
	MenuActionBack
	MenuActionQuit
)

// MapKeyToMenuAction translates a key to a menu action.
func (km *KeyMapper) MapKeyToMenuAction(msg tea.KeyMsg) MenuAction {
	key := msg.String()

	switch key {
	case "ctrl+c", "q":
		return MenuActionQuit
	case "w", "up", "k": // vim-style k for up
		return MenuActionUp
	case "s", "down", "j": // vim-style j for down
		return MenuActionDown
	case "enter", " ":
		return MenuActionSelect
	case "b", "esc":
		return MenuActionBack
	}

	return MenuActionNone
}
