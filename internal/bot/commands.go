package bot

import "strings"

type Action string

const (
	ActionNone     Action = ""
	ActionExit     Action = "EXIT"
	ActionMenu     Action = "MENU"
	ActionBack     Action = "BACK"
	ActionLocation Action = "LOCATION"
	ActionBlock    Action = "BLOCK"
	ActionUnblock  Action = "UNBLOCK"
)

var keywords = map[string]Action{
	"sair":        ActionExit,
	"exit":        ActionExit,
	"quit":        ActionExit,
	"menu":        ActionMenu,
	"voltar":      ActionBack,
	"back":        ActionBack,
	"localizacao": ActionLocation,
	"loc":         ActionLocation,
	"l":           ActionLocation,
	"bloquear":    ActionBlock,
	"block":       ActionBlock,
	"b":           ActionBlock,
	"desbloquear": ActionUnblock,
	"unblock":     ActionUnblock,
	"d":           ActionUnblock,
}

// normalize trims and lowercases text for keyword and plate matching.
func normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

func parseAction(text string) Action {
	return keywords[normalize(text)]
}

// isVehicleAction reports whether a operates on a single selected vehicle.
func (a Action) isVehicleAction() bool {
	switch a {
	case ActionLocation, ActionBlock, ActionUnblock, ActionBack:
		return true
	}
	return false
}
