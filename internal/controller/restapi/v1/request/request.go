package request

type SignURL struct {
	URL    string            `json:"url"`
	Params map[string]string `json:"params"`
}
