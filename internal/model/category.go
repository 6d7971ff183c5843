package model

type Category struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Position int    `json:"position"`
}

type GetCategoriesRequest struct{}

type GetCategoriesResponse struct {
	Categories []Category `json:"categories"`
}

type CreateCategoryRequest struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Position int    `json:"position"`
}

type CreateCategoryResponse struct {
	Key string `json:"key"`
}

type UpdateCategoryRequest struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Position int    `json:"position"`
}

type UpdateCategoryResponse struct{}

type DeleteCategoryRequest struct {
	Key string `json:"key"`
}

type DeleteCategoryResponse struct {
	ReassignedOptions int `json:"reassigned_options"`
}
