package entity

// Reference is one numbered web-search hit handed to the Respond stage.
// Position is 1-based and equals the index used in [citation:Position]
// markers the model is asked to produce.
type Reference struct {
	Position int    `json:"position"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	Snippet  string `json:"snippet"`
}
