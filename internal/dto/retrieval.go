package dto

import "github.com/micocomia/5902Group5/internal/models"

type SearchRequest struct {
	Query string `json:"query"`
	K     int    `json:"k"`
}

type SearchResponse struct {
	Query   string            `json:"query"`
	Results []models.Document `json:"results"`
}

type CoursesResponse struct {
	Courses []models.Course `json:"courses"`
}

type IndexResponse struct {
	Collection string `json:"collection"`
	Count      int    `json:"count"`
}
