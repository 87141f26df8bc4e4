package dto

type ExtractTextResponse struct {
	Text string `json:"text"`
}
