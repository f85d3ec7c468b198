package dto

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ListResponse wraps collections with their size
type ListResponse struct {
	Items interface{} `json:"items"`
	Count int         `json:"count"`
}
