package model

import "strconv"

// Label is a colored tag scoped to a board.
type Label struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	TextColor string `json:"text_color,omitempty"`
	Board     int    `json:"board,omitempty"`
}

// PresetLabel is one of the built-in label suggestions offered before a
// board defines its own.
type PresetLabel struct {
	Key   string
	Name  string
	Color string
}

var presetLabels = []PresetLabel{
	{"high-priority", "High Priority", "red"},
	{"medium-priority", "Medium Priority", "orange"},
	{"low-priority", "Low Priority", "yellow"},
	{"bug", "Bug", "red"},
	{"feature", "Feature", "blue"},
	{"enhancement", "Enhancement", "purple"},
	{"design", "Design", "pink"},
	{"development", "Development", "green"},
	{"testing", "Testing", "indigo"},
	{"documentation", "Documentation", "gray"},
	{"research", "Research", "cyan"},
	{"urgent", "Urgent", "red"},
}

// PresetLabels returns a copy of the built-in catalog.
func PresetLabels() []PresetLabel {
	return append([]PresetLabel(nil), presetLabels...)
}

// PresetLabelByKey looks up a preset; unknown keys get a gray placeholder.
func PresetLabelByKey(key string) (PresetLabel, bool) {
	for _, l := range presetLabels {
		if l.Key == key {
			return l, true
		}
	}
	return PresetLabel{Key: key, Name: key, Color: "gray"}, false
}

// LabelByID finds one of a board's labels. Ids the board does not define
// get a gray stand-in named after the id.
func LabelByID(labels []Label, id int) Label {
	for _, l := range labels {
		if l.ID == id {
			return l
		}
	}
	return Label{ID: id, Name: "#" + strconv.Itoa(id), Color: "gray"}
}
