package response

type Error struct {
	Error string `json:"error" example:"message"`
}

type SignURL struct {
	URL string `json:"url"`
}
