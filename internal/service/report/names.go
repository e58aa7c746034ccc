package report

import "eppdetect/internal/model"

var displayNames = map[model.Class]string{
	model.ClassPerson:  "Persona",
	model.ClassHelmet:  "Casco",
	model.ClassVest:    "Chaleco",
	model.ClassGloves:  "Guantes",
	model.ClassGoggles: "Gafas",
	model.ClassBoots:   "Botas",
}

var emojis = map[model.Class]string{
	model.ClassPerson:  "👤",
	model.ClassHelmet:  "⛑️",
	model.ClassVest:    "🦺",
	model.ClassGloves:  "🧤",
	model.ClassGoggles: "🥽",
	model.ClassBoots:   "🥾",
}

// DisplayName returns the Spanish name shown to users for an equipment class.
func DisplayName(c model.Class) string {
	if name, ok := displayNames[c]; ok {
		return name
	}
	return string(c)
}

// DisplayNames maps DisplayName over classes.
func DisplayNames(classes []model.Class) []string {
	out := make([]string, 0, len(classes))
	for _, c := range classes {
		out = append(out, DisplayName(c))
	}
	return out
}

// Emoji returns the icon used for a class in chat and text reports.
func Emoji(c model.Class) string {
	if e, ok := emojis[c]; ok {
		return e
	}
	return "📌"
}
