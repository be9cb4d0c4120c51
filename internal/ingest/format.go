package ingest

// The packaged storyworld format: one YAML document describing a complete
// world. Events nest their choices and input; paths nest their conditions
// and effects so authored ordering survives the import.

type worldFile struct {
	World      worldDoc       `yaml:"world"`
	Variables  []variableDoc  `yaml:"variables"`
	Characters []characterDoc `yaml:"characters"`
	Scenes     []sceneDoc     `yaml:"scenes"`
	Paths      []pathDoc      `yaml:"paths"`
}

type worldDoc struct {
	ID            string `yaml:"id"`
	Title         string `yaml:"title"`
	Designer      string `yaml:"designer"`
	Version       string `yaml:"version"`
	StartingEvent string `yaml:"starting_event"`
}

type variableDoc struct {
	ID      string `yaml:"id"`
	Title   string `yaml:"title"`
	Type    string `yaml:"type"`
	Initial string `yaml:"initial"`
}

type characterDoc struct {
	ID          string `yaml:"id"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

type sceneDoc struct {
	ID     string     `yaml:"id"`
	Title  string     `yaml:"title"`
	Events []eventDoc `yaml:"events"`
}

type eventDoc struct {
	ID        string      `yaml:"id"`
	Type      string      `yaml:"type"`
	Title     string      `yaml:"title"`
	Content   string      `yaml:"content"`
	Character string      `yaml:"character"`
	Ending    bool        `yaml:"ending"`
	Choices   []choiceDoc `yaml:"choices"`
	Input     *inputDoc   `yaml:"input"`
}

type choiceDoc struct {
	ID    string `yaml:"id"`
	Title string `yaml:"title"`
}

type inputDoc struct {
	ID       string `yaml:"id"`
	Variable string `yaml:"variable"`
}

type pathDoc struct {
	ID          string `yaml:"id"`
	Title       string `yaml:"title"`
	Scene       string `yaml:"scene"`
	Origin      string `yaml:"origin"`
	Destination string `yaml:"destination"`
	// DestinationType defaults to EVENT; SCENE routes to the named scene's
	// first event.
	DestinationType string      `yaml:"destination_type"`
	Choice          string      `yaml:"choice"`
	Input           string      `yaml:"input"`
	ConditionsType  string      `yaml:"conditions_type"`
	Conditions      []clauseDoc `yaml:"conditions"`
	Effects         []clauseDoc `yaml:"effects"`
}

type clauseDoc struct {
	ID       string `yaml:"id"`
	Variable string `yaml:"variable"`
	Operator string `yaml:"operator"`
	Value    string `yaml:"value"`
}
